package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/pseudonimous/discord-static-price-ticker/config"
	"github.com/pseudonimous/discord-static-price-ticker/internal/market"
	"github.com/pseudonimous/discord-static-price-ticker/lib/helpers"
	"github.com/pseudonimous/discord-static-price-ticker/lib/translation"
)

func formatBig(number float64) string {
	if config.GetBool("human_readable_stats") {
		return helpers.HumanReadable(number, config.GetInt("human_readable_precision"))
	}
	return helpers.FormatGrouped(number)
}

// Stats renders the general market statistics embed.
func Stats(ctx context.Context, source market.Source) (*discordgo.MessageEmbed, error) {
	log.Debug("processing stats command")

	stats, err := source.Stats(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "command stats")
	}
	quote, err := source.Sample(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "command stats")
	}

	fiat := config.GetString("fiat_name")
	precision := config.GetInt("stats_precision")
	diff, pct := quote.Change()

	supply := formatBig(stats.CirculatingSupply)
	if stats.HasTotalSupply {
		supply += " / " + formatBig(stats.TotalSupply)
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("📊  "+translation.Translate("Statistics for **%s**"), config.GetString("cryptocurrency_name")),
		Color: embedColor(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: translation.Translate("Rank"), Value: fmt.Sprintf("#%d", stats.Rank), Inline: true},
			{Name: translation.Translate("Market Cap"), Value: fiat + formatBig(stats.MarketCap), Inline: true},
			{Name: translation.Translate("Circulating Supply"), Value: supply, Inline: true},
			{Name: translation.Translate("Price"), Value: fiat + helpers.FormatPrice(stats.Price, precision), Inline: true},
			{Name: translation.Translate("Change (24h)"), Value: helpers.FormatChange(diff, pct, precision, fiat), Inline: true},
			{Name: translation.Translate("Volume (24h)"), Value: formatBig(stats.Volume24h), Inline: true},
		},
	}
	if config.GetBool("human_readable_stats") {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: translation.Translate("Some values are approximates.")}
	}
	return embed, nil
}

// ATH renders the all-time-high embed.
func ATH(ctx context.Context, source market.Source) (*discordgo.MessageEmbed, error) {
	log.Debug("processing ath command")

	stats, err := source.Stats(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "command ath")
	}
	return extremeEmbed("📈", translation.Translate("all-time high"), stats.ATH), nil
}

// ATL renders the all-time-low embed. Not every backend reports an all-time
// low; in that case the embed says so instead of failing.
func ATL(ctx context.Context, source market.Source) (*discordgo.MessageEmbed, error) {
	log.Debug("processing atl command")

	stats, err := source.Stats(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "command atl")
	}
	if !stats.HasATL {
		return rejection(fmt.Sprintf(
			translation.Translate("The configured data source doesn't report an all-time low for **%s**."),
			config.GetString("cryptocurrency_name"))), nil
	}
	return extremeEmbed("📉", translation.Translate("all-time low"), stats.ATL), nil
}

func extremeEmbed(icon, kind string, point market.PricePoint) *discordgo.MessageEmbed {
	name := config.GetString("cryptocurrency_name")
	fiat := config.GetString("fiat_name")
	precision := config.GetInt("stats_precision")

	var when string
	if helpers.IsMidnight(point.Date) {
		when = fmt.Sprintf(translation.Translate("The %s was hit at **%s**."), kind, helpers.FormatDate(point.Date))
	} else {
		when = fmt.Sprintf(translation.Translate("The %s was hit at **%s** (UTC)."), kind, helpers.FormatDateTime(point.Date))
	}

	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf(icon+"  "+translation.Translate("**%s**'s %s is **%s%s**."),
			name, kind, fiat, helpers.FormatPrice(point.Price, precision)),
		Description: when + "\n" + fmt.Sprintf(translation.Translate("Change to current price: **%.2f%%**."), point.ChangePct),
		Color:       embedColor(),
	}
}
