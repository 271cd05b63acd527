package helpers

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	DateTimeFormat = "2006-01-02 15:04"
	DateFormat     = "2006-01-02"
)

var humanReadableSuffixes = [...]string{"", "K", "M", "B", "T", "Q"}

// FormatPrice renders a price with a fixed precision; precision 0 truncates
// to a whole number, as the presence display does.
func FormatPrice(price float64, precision int) string {
	if precision == 0 {
		return fmt.Sprintf("%d", int64(price))
	}
	return fmt.Sprintf("%.*f", precision, price)
}

// FormatChange renders the signed 24h change line, e.g. "+$120 (+1.84%)".
// A negative absolute change keeps its sign in front of the fiat symbol and
// the percentage carries its own minus.
func FormatChange(diff, pct float64, precision int, fiat string) string {
	if pct >= 0 {
		return fmt.Sprintf("+%s%s (+%.2f%%)", fiat, FormatPrice(diff, precision), pct)
	}
	return fmt.Sprintf("-%s%s (%.2f%%)", fiat, FormatPrice(math.Abs(diff), precision), pct)
}

// HumanReadable compacts a number with K/M/B/T/Q suffixes in steps of 1000.
// Values below 1000 keep no suffix.
func HumanReadable(number float64, precision int) string {
	if number <= 0 {
		return FormatPrice(number, precision)
	}
	multiple := int(math.Trunc(math.Log2(number) / math.Log2(1000)))
	if multiple >= len(humanReadableSuffixes) {
		multiple = len(humanReadableSuffixes) - 1
	}
	value := number / math.Pow(1000, float64(multiple))
	suffix := humanReadableSuffixes[multiple]
	if precision == 0 {
		return fmt.Sprintf("%d%s", int64(value), suffix)
	}
	return fmt.Sprintf("%.*f%s", precision, value, suffix)
}

// FormatGrouped renders a whole number with comma thousand separators.
func FormatGrouped(number float64) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%d", int64(number+0.5))
}

// FormatDateTime renders a UTC timestamp the way alert embeds show it.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format(DateTimeFormat)
}

// FormatDate renders the date part only.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateFormat)
}

// IsMidnight reports whether a timestamp carries no intra-day component, in
// which case only the date is worth showing.
func IsMidnight(t time.Time) bool {
	return t.UTC().Hour() == 0 && t.UTC().Minute() == 0
}
