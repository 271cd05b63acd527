// Package discord adapts the bot session: command dispatch, presence display
// and alert delivery.
package discord

import (
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/pseudonimous/discord-static-price-ticker/internal/database"
	"github.com/pseudonimous/discord-static-price-ticker/internal/market"
	"github.com/pseudonimous/discord-static-price-ticker/internal/ticker"
)

// BotConfig configuration of the bot
type BotConfig struct {
	Token      string
	CryptoName string
	FiatName   string
	Debug      bool
}

// Bot wraps the discord session. It implements both the ticker's presence
// sink and its notifier.
type Bot struct {
	Session *discordgo.Session
	Config  BotConfig

	store  *database.Store
	source market.Source

	commandsProcessed prometheus.Counter

	ready     chan struct{}
	readyOnce sync.Once
}

// NewBot creates the discord session and wires the readiness gate. The
// session is not opened yet; call Open.
func NewBot(c BotConfig, store *database.Store, source market.Source, commandsProcessed prometheus.Counter) (*Bot, error) {
	session, err := discordgo.New("Bot " + c.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create discord session")
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent
	session.LogLevel = discordgo.LogWarning
	if c.Debug {
		session.LogLevel = discordgo.LogDebug
	}

	b := &Bot{
		Session:           session,
		Config:            c,
		store:             store,
		source:            source,
		commandsProcessed: commandsProcessed,
		ready:             make(chan struct{}),
	}

	session.AddHandler(func(_ *discordgo.Session, _ *discordgo.Ready) {
		b.readyOnce.Do(func() {
			log.Info("discord session ready")
			close(b.ready)
		})
	})
	session.AddHandler(b.handleMessage)

	return b, nil
}

// Open connects the session.
func (b *Bot) Open() error {
	return errors.Wrap(b.Session.Open(), "could not open discord session")
}

// Close disconnects the session.
func (b *Bot) Close() error {
	return b.Session.Close()
}

// Ready is closed once the gateway reports the session ready; the poll loop
// waits on it before its first tick.
func (b *Bot) Ready() <-chan struct{} {
	return b.ready
}

// Update pushes the ticker's display state: the price label becomes the bot's
// nickname in every guild, the mood the status, the change line the activity.
// All of it is fire-and-forget per guild.
func (b *Bot) Update(label string, mood ticker.Mood, status string) {
	for _, g := range b.Session.State.Guilds {
		if err := b.Session.GuildMemberNickname(g.ID, "@me", label); err != nil {
			log.Debugf("unable to set nickname in guild %s: %v", g.ID, err)
		}
	}

	presence := "idle"
	switch mood {
	case ticker.MoodUp:
		presence = "online"
	case ticker.MoodDown:
		presence = "dnd"
	}

	err := b.Session.UpdateStatusComplex(discordgo.UpdateStatusData{
		Status: presence,
		Activities: []*discordgo.Activity{{
			Name: status,
			Type: discordgo.ActivityTypeWatching,
		}},
	})
	if err != nil {
		log.Debugf("unable to update presence: %v", err)
	}
}
