package commands

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"

	"github.com/pseudonimous/discord-static-price-ticker/config"
	"github.com/pseudonimous/discord-static-price-ticker/internal/alert"
	"github.com/pseudonimous/discord-static-price-ticker/internal/database"
	"github.com/pseudonimous/discord-static-price-ticker/internal/types"
	"github.com/pseudonimous/discord-static-price-ticker/lib/helpers"
	"github.com/pseudonimous/discord-static-price-ticker/lib/translation"
)

func embedColor() int {
	return config.GetInt("embed_color")
}

func rejection(title string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Title: "⛔  " + title, Color: embedColor()}
}

func invalidThresholdEmbed(price float64) *discordgo.MessageEmbed {
	switch {
	case math.IsNaN(price):
		return rejection(translation.Translate("Please stick to existing numbers for price alerts. :)"))
	case math.IsInf(price, 0):
		return rejection(translation.Translate("To the moon, yes. But not to infinity."))
	default:
		return rejection(translation.Translate("You cannot set a price alert for a price lower than 0!"))
	}
}

// AddPersonal validates and stores a personal price alert, answering with the
// appropriate embed for every outcome.
func AddPersonal(store *database.Store, invokerID string, price float64) *discordgo.MessageEmbed {
	log.Debugf("processing ppa-add for %s at %f", invokerID, price)

	if err := alert.ValidateThreshold(price); err != nil {
		return invalidThresholdEmbed(price)
	}

	err := store.AddPersonal(types.PersonalAlert{
		InvokerID: invokerID,
		Price:     price,
		CreatedAt: time.Now().UTC().Unix(),
	})
	switch {
	case err == nil:
	case errors.Is(err, alert.ErrLimitExceeded):
		return rejection(fmt.Sprintf(
			translation.Translate("You've exceeded the personal price alert limit of **%d**!"),
			config.GetInt("max_ppa")))
	case errors.Is(err, alert.ErrDuplicateThreshold):
		return rejection(fmt.Sprintf(
			translation.Translate("You already have a personal price alert at **%s%s**!"),
			config.GetString("fiat_name"), helpers.FormatPrice(price, config.GetInt("stats_precision"))))
	default:
		log.Errorf("failed to store personal alert: %v", err)
		return rejection(translation.Translate("Something went wrong while saving your alert. Please try again."))
	}

	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("✅  "+translation.Translate("Successfully added a personal price alert for **%s** at **%s%s**."),
			config.GetString("cryptocurrency_name"),
			config.GetString("fiat_name"),
			helpers.FormatPrice(price, config.GetInt("stats_precision"))),
		Color:  embedColor(),
		Footer: &discordgo.MessageEmbedFooter{Text: translation.Translate("Remember to keep your DMs open!")},
	}
}

// ListPersonal renders the invoker's personal alerts.
func ListPersonal(store *database.Store, invokerID, invokerName string) *discordgo.MessageEmbed {
	alerts, err := store.ListPersonal(invokerID)
	if err != nil {
		log.Errorf("failed to list personal alerts: %v", err)
		return rejection(translation.Translate("Could not fetch your price alerts. Please try again."))
	}
	if len(alerts) == 0 {
		return rejection(translation.Translate("You have no personal price alerts!"))
	}

	embed := &discordgo.MessageEmbed{
		Title:  fmt.Sprintf("📃  "+translation.Translate("List of **%s**'s personal price alerts"), invokerName),
		Color:  embedColor(),
		Footer: &discordgo.MessageEmbedFooter{Text: translation.Translate("All times in UTC.")},
	}
	for _, a := range alerts {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: config.GetString("fiat_name") + helpers.FormatPrice(a.Price, config.GetInt("stats_precision")),
			Value: fmt.Sprintf(translation.Translate("from %s (%s)"),
				helpers.FormatDateTime(a.Created()), humanize.Time(a.Created())),
		})
	}
	return embed
}

// RemovePersonal deletes the invoker's alert at the given price.
func RemovePersonal(store *database.Store, invokerID string, price float64) *discordgo.MessageEmbed {
	err := store.RemovePersonal(invokerID, price)
	if errors.Is(err, alert.ErrNotFound) {
		return rejection(fmt.Sprintf(
			translation.Translate("You don't have a personal price alert at **%s%s**!"),
			config.GetString("fiat_name"), helpers.FormatPrice(price, config.GetInt("stats_precision"))))
	}
	if err != nil {
		log.Errorf("failed to remove personal alert: %v", err)
		return rejection(translation.Translate("Something went wrong while removing your alert. Please try again."))
	}
	return &discordgo.MessageEmbed{
		Title: "🗑️  " + translation.Translate("Personal price alert removed."),
		Color: embedColor(),
	}
}

// AddChannel validates and stores a channel price alert. The moderator and
// guild-only checks happen in the dispatch layer before this runs.
func AddChannel(store *database.Store, channelID, invokerID string, price float64) *discordgo.MessageEmbed {
	log.Debugf("processing cpa-add for channel %s at %f", channelID, price)

	if err := alert.ValidateThreshold(price); err != nil {
		return invalidThresholdEmbed(price)
	}

	err := store.AddChannel(types.ChannelAlert{
		ChannelID: channelID,
		InvokerID: invokerID,
		Price:     price,
		CreatedAt: time.Now().UTC().Unix(),
	})
	switch {
	case err == nil:
	case errors.Is(err, alert.ErrLimitExceeded):
		return rejection(fmt.Sprintf(
			translation.Translate("The channel price alert limit of **%d** has been exceeded for this channel!"),
			config.GetInt("max_cpa")))
	case errors.Is(err, alert.ErrDuplicateThreshold):
		return rejection(fmt.Sprintf(
			translation.Translate("There's already a channel price alert at **%s%s**!"),
			config.GetString("fiat_name"), helpers.FormatPrice(price, config.GetInt("stats_precision"))))
	default:
		log.Errorf("failed to store channel alert: %v", err)
		return rejection(translation.Translate("Something went wrong while saving the alert. Please try again."))
	}

	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("✅  "+translation.Translate("Successfully added a channel price alert for **%s** at **%s%s**."),
			config.GetString("cryptocurrency_name"),
			config.GetString("fiat_name"),
			helpers.FormatPrice(price, config.GetInt("stats_precision"))),
		Color: embedColor(),
	}
}

// ListChannel renders the channel's alerts.
func ListChannel(store *database.Store, channelID, channelName string) *discordgo.MessageEmbed {
	alerts, err := store.ListChannel(channelID)
	if err != nil {
		log.Errorf("failed to list channel alerts: %v", err)
		return rejection(translation.Translate("Could not fetch the channel's price alerts. Please try again."))
	}
	if len(alerts) == 0 {
		return rejection(translation.Translate("There are no channel price alerts for this channel."))
	}

	embed := &discordgo.MessageEmbed{
		Title:  fmt.Sprintf("📃  "+translation.Translate("List of channel price alerts for **#%s**"), channelName),
		Color:  embedColor(),
		Footer: &discordgo.MessageEmbedFooter{Text: translation.Translate("All times in UTC.")},
	}
	for _, a := range alerts {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: config.GetString("fiat_name") + helpers.FormatPrice(a.Price, config.GetInt("stats_precision")),
			Value: fmt.Sprintf(translation.Translate("by <@%s> from %s"),
				a.InvokerID, helpers.FormatDateTime(a.Created())),
		})
	}
	return embed
}

// RemoveChannel deletes the channel's alert at the given price.
func RemoveChannel(store *database.Store, channelID string, price float64) *discordgo.MessageEmbed {
	err := store.RemoveChannel(channelID, price)
	if errors.Is(err, alert.ErrNotFound) {
		return rejection(fmt.Sprintf(
			translation.Translate("There's no channel price alert at **%s%s** for this channel!"),
			config.GetString("fiat_name"), helpers.FormatPrice(price, config.GetInt("stats_precision"))))
	}
	if err != nil {
		log.Errorf("failed to remove channel alert: %v", err)
		return rejection(translation.Translate("Something went wrong while removing the alert. Please try again."))
	}
	return &discordgo.MessageEmbed{
		Title: "🗑️  " + translation.Translate("Channel price alert removed."),
		Color: embedColor(),
	}
}
