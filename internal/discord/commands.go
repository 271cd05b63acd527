package discord

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"github.com/pseudonimous/discord-static-price-ticker/config"
	"github.com/pseudonimous/discord-static-price-ticker/internal/commands"
	"github.com/pseudonimous/discord-static-price-ticker/lib/translation"
)

// canonicalCommands maps every alias onto its canonical command name.
var canonicalCommands = map[string]string{
	"ppa-add": "ppa-add", "ppa-a": "ppa-add", "add-ppa": "ppa-add",
	"ppa-list": "ppa-list", "ppa-l": "ppa-list", "lsppa": "ppa-list", "list-ppa": "ppa-list",
	"ppa-remove": "ppa-remove", "ppa-r": "ppa-remove", "ppa-rm": "ppa-remove",
	"ppa-rem": "ppa-remove", "rm-ppa": "ppa-remove", "rem-ppa": "ppa-remove", "remove-ppa": "ppa-remove",
	"cpa-add": "cpa-add", "cpa-a": "cpa-add", "add-cpa": "cpa-add",
	"cpa-list": "cpa-list", "cpa-l": "cpa-list", "lscpa": "cpa-list", "list-cpa": "cpa-list",
	"cpa-remove": "cpa-remove", "cpa-r": "cpa-remove", "cpa-rm": "cpa-remove",
	"cpa-rem": "cpa-remove", "rm-cpa": "cpa-remove", "rem-cpa": "cpa-remove", "remove-cpa": "cpa-remove",
	"stats": "stats", "cap": "stats", "mcap": "stats", "supply": "stats", "rank": "stats", "volume": "stats",
	"ath": "ath", "all-time-high": "ath",
	"atl": "atl", "all-time-low": "atl",
}

func (b *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	prefix := config.GetString("command_prefix")
	if !strings.HasPrefix(m.Content, prefix) {
		return
	}

	fields := strings.Fields(strings.TrimPrefix(m.Content, prefix))
	if len(fields) == 0 {
		return
	}
	cmd, known := canonicalCommands[strings.ToLower(fields[0])]
	if !known {
		return
	}
	log.Debugf("received command: %s", cmd)

	var embed *discordgo.MessageEmbed
	switch cmd {
	case "ppa-add":
		price, ok := b.priceArgument(fields)
		if !ok {
			embed = usageEmbed(prefix, fields[0])
			break
		}
		embed = commands.AddPersonal(b.store, m.Author.ID, price)
	case "ppa-list":
		embed = commands.ListPersonal(b.store, m.Author.ID, m.Author.Username)
	case "ppa-remove":
		price, ok := b.priceArgument(fields)
		if !ok {
			embed = usageEmbed(prefix, fields[0])
			break
		}
		embed = commands.RemovePersonal(b.store, m.Author.ID, price)
	case "cpa-add", "cpa-list", "cpa-remove":
		embed = b.handleChannelAlertCommand(s, m, cmd, fields)
	case "stats", "ath", "atl":
		embed = b.handleStatsCommand(cmd)
	}

	if embed == nil {
		return
	}
	if _, err := s.ChannelMessageSendEmbed(m.ChannelID, embed); err != nil {
		log.Errorf("failed to send command reply: %v", err)
		return
	}
	if b.commandsProcessed != nil {
		b.commandsProcessed.Inc()
	}
}

// handleChannelAlertCommand enforces the guild-only and moderator gates
// before any channel alert operation runs.
func (b *Bot) handleChannelAlertCommand(s *discordgo.Session, m *discordgo.MessageCreate, cmd string, fields []string) *discordgo.MessageEmbed {
	if m.GuildID == "" {
		return rejectionEmbed(translation.Translate("Channel price alerts only work inside a server."))
	}
	if cmd != "cpa-list" && !b.isModerator(s, m) {
		return rejectionEmbed(translation.Translate("You need moderator permissions to manage channel price alerts."))
	}

	switch cmd {
	case "cpa-add":
		price, ok := b.priceArgument(fields)
		if !ok {
			return usageEmbed(config.GetString("command_prefix"), fields[0])
		}
		return commands.AddChannel(b.store, m.ChannelID, m.Author.ID, price)
	case "cpa-list":
		return commands.ListChannel(b.store, m.ChannelID, b.channelName(s, m.ChannelID))
	default:
		price, ok := b.priceArgument(fields)
		if !ok {
			return usageEmbed(config.GetString("command_prefix"), fields[0])
		}
		return commands.RemoveChannel(b.store, m.ChannelID, price)
	}
}

func (b *Bot) handleStatsCommand(cmd string) *discordgo.MessageEmbed {
	ctx, cancel := context.WithTimeout(context.Background(), config.GetDuration("fetch_timeout_seconds"))
	defer cancel()

	var (
		embed *discordgo.MessageEmbed
		err   error
	)
	switch cmd {
	case "stats":
		embed, err = commands.Stats(ctx, b.source)
	case "ath":
		embed, err = commands.ATH(ctx, b.source)
	case "atl":
		embed, err = commands.ATL(ctx, b.source)
	}
	if err != nil {
		log.Errorf("stats command failed: %v", err)
		return rejectionEmbed(translation.Translate("Market data is unavailable right now. Please try again in a bit."))
	}
	return embed
}

// priceArgument parses the numeric argument of add/remove commands. NaN and
// infinities parse fine here; threshold validation rejects them later with a
// friendlier message.
func (b *Bot) priceArgument(fields []string) (float64, bool) {
	if len(fields) < 2 {
		return 0, false
	}
	price, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

func (b *Bot) isModerator(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	perms, err := s.State.MessagePermissions(m.Message)
	if err != nil {
		perms, err = s.UserChannelPermissions(m.Author.ID, m.ChannelID)
		if err != nil {
			log.Warnf("could not resolve permissions for %s: %v", m.Author.ID, err)
			return false
		}
	}
	const modBits = discordgo.PermissionAdministrator | discordgo.PermissionManageServer | discordgo.PermissionManageMessages
	return perms&modBits != 0
}

func (b *Bot) channelName(s *discordgo.Session, channelID string) string {
	channel, err := s.State.Channel(channelID)
	if err != nil {
		channel, err = s.Channel(channelID)
		if err != nil {
			return channelID
		}
	}
	return channel.Name
}

func rejectionEmbed(title string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Title: "⛔  " + title, Color: config.GetInt("embed_color")}
}

func usageEmbed(prefix, invoked string) *discordgo.MessageEmbed {
	return rejectionEmbed(translation.Translate("Usage: ") + prefix + invoked + " <price>")
}
