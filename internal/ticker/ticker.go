// Package ticker drives the fetch-evaluate-notify poll cycle.
package ticker

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/pseudonimous/discord-static-price-ticker/internal/alert"
	"github.com/pseudonimous/discord-static-price-ticker/internal/database"
	"github.com/pseudonimous/discord-static-price-ticker/internal/market"
	"github.com/pseudonimous/discord-static-price-ticker/lib/helpers"
)

// Mood is the tri-state presence classification derived from the 24h change.
type Mood int

const (
	MoodNeutral Mood = iota // change within ±2%
	MoodUp                  // change above +2%
	MoodDown                // change below -2%
)

// PresenceSink receives the per-cycle display state. Implementations are
// fire-and-forget; errors stay inside the sink.
type PresenceSink interface {
	Update(label string, mood Mood, status string)
}

// Notification carries everything the dispatcher needs to render a fired
// alert.
type Notification struct {
	Threshold     float64
	CurrentPrice  float64
	PreviousPrice float64
	CreatedAt     time.Time
	FiredAt       time.Time
	CreatorID     string // set for channel alerts only
}

// MovedDown reports whether the price crossed the threshold on the way down.
func (n Notification) MovedDown() bool {
	return n.PreviousPrice > n.CurrentPrice
}

// ErrUnresolvable marks a notification target that cannot currently be
// resolved (user gone, channel deleted, transient lookup failure). The alert
// is kept for a later cycle instead of being consumed.
var ErrUnresolvable = errors.New("notification target unresolvable")

// Notifier delivers fired alerts. A resolution failure is reported as
// ErrUnresolvable and keeps the alert; any error past resolution is a
// delivery failure and the fired alert is consumed regardless.
type Notifier interface {
	NotifyUser(userID string, n Notification) error
	NotifyChannel(channelID string, n Notification) error
}

// Metrics are the poll-loop counters registered by the caller.
type Metrics struct {
	TicksCompleted prometheus.Counter
	FetchFailures  prometheus.Counter
	AlertsFired    *prometheus.CounterVec // label: kind (personal|channel)
	NotifyFailures prometheus.Counter
}

// Config holds the static ticker parameters.
type Config struct {
	Interval          time.Duration
	CryptoName        string
	FiatName          string
	PresencePrecision int
}

// Ticker owns the poll cycle and the previous-price state. It never runs two
// cycles concurrently: each cycle finishes before the next sleep begins.
type Ticker struct {
	cfg      Config
	store    *database.Store
	source   market.Source
	presence PresenceSink
	notifier Notifier
	metrics  *Metrics

	prev    float64
	hasPrev bool
}

// New builds a Ticker. presence and metrics may be nil.
func New(cfg Config, store *database.Store, source market.Source, presence PresenceSink, notifier Notifier, metrics *Metrics) *Ticker {
	return &Ticker{
		cfg:      cfg,
		store:    store,
		source:   source,
		presence: presence,
		notifier: notifier,
		metrics:  metrics,
	}
}

// Run blocks until ctx is done. It waits for the readiness gate once, then
// ticks on the configured interval, sleeping for whatever remains of the
// interval after each cycle's work.
func (t *Ticker) Run(ctx context.Context, ready <-chan struct{}) {
	select {
	case <-ready:
	case <-ctx.Done():
		return
	}

	log.Infof("ticker started (interval: %v)", t.cfg.Interval)
	for {
		started := time.Now()
		t.Tick(ctx)

		remaining := t.cfg.Interval - time.Since(started)
		if remaining < 0 {
			remaining = 0
		}
		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("ticker stopped")
			return
		case <-timer.C:
		}
	}
}

// Tick runs one poll cycle. A failed fetch aborts the cycle without touching
// the previous-price state or the stores.
func (t *Ticker) Tick(ctx context.Context) {
	quote, err := t.source.Sample(ctx)
	if err != nil {
		log.Errorf("market fetch failed, skipping cycle: %v", err)
		if t.metrics != nil {
			t.metrics.FetchFailures.Inc()
		}
		return
	}

	diff, pct := quote.Change()
	t.updatePresence(quote.Price, diff, pct)

	if t.hasPrev {
		t.evaluateAlerts(quote.Price)
	} else {
		log.Debug("first sample of this run, skipping alert evaluation")
	}

	t.prev = quote.Price
	t.hasPrev = true
	if t.metrics != nil {
		t.metrics.TicksCompleted.Inc()
	}
}

// Classify maps a 24h percentage change onto the presence mood bands.
func Classify(pct float64) Mood {
	switch {
	case pct > 2:
		return MoodUp
	case pct < -2:
		return MoodDown
	default:
		return MoodNeutral
	}
}

func (t *Ticker) updatePresence(price, diff, pct float64) {
	if t.presence == nil {
		return
	}
	label := t.cfg.CryptoName + ": " + t.cfg.FiatName + helpers.FormatPrice(price, t.cfg.PresencePrecision)
	status := helpers.FormatChange(diff, pct, t.cfg.PresencePrecision, t.cfg.FiatName)
	t.presence.Update(label, Classify(pct), status)
}

func (t *Ticker) evaluateAlerts(current float64) {
	now := time.Now().UTC()

	personal, err := t.store.AllPersonal()
	if err != nil {
		log.Errorf("failed to load personal alerts: %v", err)
	}
	for _, a := range personal {
		if !alert.Crosses(t.prev, current, a.Price) {
			continue
		}
		n := Notification{
			Threshold:     a.Price,
			CurrentPrice:  current,
			PreviousPrice: t.prev,
			CreatedAt:     a.Created(),
			FiredAt:       now,
		}
		if err := t.notifier.NotifyUser(a.InvokerID, n); err != nil {
			if errors.Is(err, ErrUnresolvable) {
				log.Debugf("user %s not resolvable, keeping alert: %v", a.InvokerID, err)
				continue
			}
			log.Warnf("unable to send price alert to user %s: %v", a.InvokerID, err)
			if t.metrics != nil {
				t.metrics.NotifyFailures.Inc()
			}
		}
		// The crossing consumed the alert, delivered or not.
		if err := t.store.RemovePersonal(a.InvokerID, a.Price); err != nil {
			log.Errorf("failed to remove fired personal alert: %v", err)
			continue
		}
		if t.metrics != nil {
			t.metrics.AlertsFired.WithLabelValues("personal").Inc()
		}
	}

	channel, err := t.store.AllChannel()
	if err != nil {
		log.Errorf("failed to load channel alerts: %v", err)
	}
	for _, a := range channel {
		if !alert.Crosses(t.prev, current, a.Price) {
			continue
		}
		n := Notification{
			Threshold:     a.Price,
			CurrentPrice:  current,
			PreviousPrice: t.prev,
			CreatedAt:     a.Created(),
			FiredAt:       now,
			CreatorID:     a.InvokerID,
		}
		if err := t.notifier.NotifyChannel(a.ChannelID, n); err != nil {
			if errors.Is(err, ErrUnresolvable) {
				log.Debugf("channel %s not resolvable, keeping alert: %v", a.ChannelID, err)
				continue
			}
			log.Warnf("unable to send price alert to channel %s: %v", a.ChannelID, err)
			if t.metrics != nil {
				t.metrics.NotifyFailures.Inc()
			}
		}
		if err := t.store.RemoveChannel(a.ChannelID, a.Price); err != nil {
			log.Errorf("failed to remove fired channel alert: %v", err)
			continue
		}
		if t.metrics != nil {
			t.metrics.AlertsFired.WithLabelValues("channel").Inc()
		}
	}
}
