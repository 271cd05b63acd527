package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/pseudonimous/discord-static-price-ticker/internal/ticker"
	"github.com/pseudonimous/discord-static-price-ticker/lib/helpers"
	"github.com/pseudonimous/discord-static-price-ticker/lib/translation"
)

const (
	colorDown = 0xd92b47
	colorUp   = 0x7ab160
)

func (b *Bot) alertEmbed(n ticker.Notification, setBy string) *discordgo.MessageEmbed {
	color := colorUp
	if n.MovedDown() {
		color = colorDown
	}
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🛎️  "+translation.Translate("Price Alert: **%s** just hit **%s%v**!"),
			b.Config.CryptoName, b.Config.FiatName, n.Threshold),
		Color: color,
		Description: fmt.Sprintf(
			translation.Translate("You're receiving this message because at %s, %s a price alert for **%s** at **%s%v**.\nRight now, at %s, **%s** is worth **%s%v**."),
			helpers.FormatDateTime(n.CreatedAt),
			setBy,
			b.Config.CryptoName,
			b.Config.FiatName, n.Threshold,
			n.FiredAt.UTC().Format("15:04"),
			b.Config.CryptoName,
			b.Config.FiatName, n.CurrentPrice,
		),
		Footer: &discordgo.MessageEmbedFooter{Text: translation.Translate("All times in UTC.")},
	}
}

// NotifyUser delivers a fired personal alert by direct message. A user whose
// DM channel cannot be resolved reports ticker.ErrUnresolvable so the poll
// loop keeps the alert for a later cycle.
func (b *Bot) NotifyUser(userID string, n ticker.Notification) error {
	channel, err := b.Session.UserChannelCreate(userID)
	if err != nil {
		return errors.Wrapf(ticker.ErrUnresolvable, "no DM channel for user %s: %v", userID, err)
	}
	embed := b.alertEmbed(n, translation.Translate("you set"))
	if _, err := b.Session.ChannelMessageSendEmbed(channel.ID, embed); err != nil {
		return errors.Wrapf(err, "could not deliver price alert to user %s", userID)
	}
	return nil
}

// NotifyChannel delivers a fired channel alert to the channel it was set in,
// mentioning the user who created it. A channel that cannot be resolved
// reports ticker.ErrUnresolvable so the alert survives.
func (b *Bot) NotifyChannel(channelID string, n ticker.Notification) error {
	if _, err := b.Session.State.Channel(channelID); err != nil {
		if _, err := b.Session.Channel(channelID); err != nil {
			return errors.Wrapf(ticker.ErrUnresolvable, "no channel %s: %v", channelID, err)
		}
	}

	embed := b.alertEmbed(n, fmt.Sprintf(translation.Translate("<@%s> set"), n.CreatorID))
	if _, err := b.Session.ChannelMessageSendEmbed(channelID, embed); err != nil {
		return errors.Wrapf(err, "could not deliver price alert to channel %s", channelID)
	}
	return nil
}
