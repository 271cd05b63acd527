package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/leonelquinteros/gotext"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"

	"github.com/pseudonimous/discord-static-price-ticker/config"
	"github.com/pseudonimous/discord-static-price-ticker/internal/database"
	"github.com/pseudonimous/discord-static-price-ticker/internal/discord"
	"github.com/pseudonimous/discord-static-price-ticker/internal/market"
	"github.com/pseudonimous/discord-static-price-ticker/internal/ticker"
	"github.com/pseudonimous/discord-static-price-ticker/lib/translation"
)

type BotMetrics struct {
	CommandsProcessed prometheus.Counter
	TicksCompleted    prometheus.Counter
	FetchFailures     prometheus.Counter
	NotifyFailures    prometheus.Counter
	AlertsFired       *prometheus.CounterVec
	ActiveAlerts      *prometheus.GaugeVec
}

var metrics = NewBotMetrics()

func init() {
	config.InitConfig()
	setupLogging()
}

func NewBotMetrics() *BotMetrics {
	m := &BotMetrics{
		CommandsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ticker",
			Subsystem: "discord_bot",
			Name:      "commands_processed",
			Help:      "The total number of processed commands",
		}),
		TicksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ticker",
			Subsystem: "discord_bot",
			Name:      "ticks_completed",
			Help:      "The total number of completed poll cycles",
		}),
		FetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ticker",
			Subsystem: "discord_bot",
			Name:      "fetch_failures",
			Help:      "The total number of failed market data fetches",
		}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ticker",
			Subsystem: "discord_bot",
			Name:      "notify_failures",
			Help:      "The total number of alert notifications that could not be delivered",
		}),
		AlertsFired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ticker",
				Subsystem: "discord_bot",
				Name:      "alerts_fired",
				Help:      "The total number of fired price alerts",
			},
			[]string{"kind"},
		),
		ActiveAlerts: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "ticker",
				Subsystem: "discord_bot",
				Name:      "alerts_active",
				Help:      "The current number of stored price alerts",
			},
			[]string{"kind"},
		),
	}

	prometheus.MustRegister(m.CommandsProcessed)
	prometheus.MustRegister(m.TicksCompleted)
	prometheus.MustRegister(m.FetchFailures)
	prometheus.MustRegister(m.NotifyFailures)
	prometheus.MustRegister(m.AlertsFired)
	prometheus.MustRegister(m.ActiveAlerts)

	return m
}

func main() {
	gotext.Configure("locales", strings.ToLower(config.GetString("lang")), "default")
	log.Debugf("Translations configured (language: %s)", translation.GetLanguage())

	store, err := database.New(config.GetString("db_path"), config.GetInt("max_ppa"), config.GetInt("max_cpa"))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	LoadMetricsFromDB(store)

	source := newMarketSource()

	bot, err := discord.NewBot(discord.BotConfig{
		Token:      config.GetString("discord_bot_token"),
		CryptoName: config.GetString("cryptocurrency_name"),
		FiatName:   config.GetString("fiat_name"),
		Debug:      config.GetBool("debug"),
	}, store, source, metrics.CommandsProcessed)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	if err := bot.Open(); err != nil {
		log.Fatalf("Failed to connect to discord: %v", err)
	}
	defer bot.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tick := ticker.New(ticker.Config{
		Interval:          config.GetDuration("poll_interval_seconds"),
		CryptoName:        config.GetString("cryptocurrency_name"),
		FiatName:          config.GetString("fiat_name"),
		PresencePrecision: config.GetInt("presence_precision"),
	}, store, source, bot, bot, &ticker.Metrics{
		TicksCompleted: metrics.TicksCompleted,
		FetchFailures:  metrics.FetchFailures,
		AlertsFired:    metrics.AlertsFired,
		NotifyFailures: metrics.NotifyFailures,
	})
	go tick.Run(ctx, bot.Ready())

	go func() {
		for {
			time.Sleep(5 * time.Minute)
			updateActiveAlerts(store)
			SaveMetricsToDB(store)
		}
	}()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		cancel()
		SaveMetricsToDB(store)
		bot.Close()
		store.Close()
		log.Println("Metrics saved, shutting down...")
		os.Exit(0)
	}()

	if err := launchMetricsAndHealthServer(config.GetInt("metrics_port")); err != nil {
		log.Fatalf("Failed to start metrics and health server: %v", err)
	}
}

func setupLogging() {
	log.SetLevel(log.ErrorLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting discord ticker bot...")
}

func newMarketSource() market.Source {
	timeout := config.GetDuration("fetch_timeout_seconds")
	switch config.GetString("market_source") {
	case "coinpaprika":
		return market.NewCoinpaprika(
			config.GetString("api_pro_key"),
			config.GetString("cryptocurrency_id"),
			strings.ToUpper(config.GetString("fiat_id")),
			timeout,
		)
	default:
		return market.NewCoinGecko(
			config.GetString("coingecko_api_url"),
			config.GetString("cryptocurrency_id"),
			config.GetString("fiat_id"),
			timeout,
		)
	}
}

func updateActiveAlerts(store *database.Store) {
	if personal, err := store.AllPersonal(); err == nil {
		metrics.ActiveAlerts.WithLabelValues("personal").Set(float64(len(personal)))
	}
	if channel, err := store.AllChannel(); err == nil {
		metrics.ActiveAlerts.WithLabelValues("channel").Set(float64(len(channel)))
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func launchMetricsAndHealthServer(port int) error {
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", healthCheckHandler)

	log.Infof("Launching metrics and health endpoint on :%d", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), http.DefaultServeMux)
}

func LoadMetricsFromDB(store *database.Store) {
	commandsProcessed, _ := store.GetMetric("commands_processed")
	ticksCompleted, _ := store.GetMetric("ticks_completed")
	fetchFailures, _ := store.GetMetric("fetch_failures")
	notifyFailures, _ := store.GetMetric("notify_failures")

	metrics.CommandsProcessed.Add(commandsProcessed)
	metrics.TicksCompleted.Add(ticksCompleted)
	metrics.FetchFailures.Add(fetchFailures)
	metrics.NotifyFailures.Add(notifyFailures)

	fired, _ := store.GetMetricsWithLabels("alerts_fired")
	for _, values := range fired {
		for kind, value := range values {
			metrics.AlertsFired.WithLabelValues(kind).Add(value)
		}
	}

	log.Println("Metrics loaded from database.")
}

func SaveMetricsToDB(store *database.Store) {
	store.SaveMetric("commands_processed", GetMetricValue(metrics.CommandsProcessed))
	store.SaveMetric("ticks_completed", GetMetricValue(metrics.TicksCompleted))
	store.SaveMetric("fetch_failures", GetMetricValue(metrics.FetchFailures))
	store.SaveMetric("notify_failures", GetMetricValue(metrics.NotifyFailures))

	metricChan := make(chan prometheus.Metric, 16)
	go func() {
		metrics.AlertsFired.Collect(metricChan)
		close(metricChan)
	}()

	for metric := range metricChan {
		metricProto := &dto.Metric{}
		if err := metric.Write(metricProto); err != nil {
			log.Printf("Failed to read AlertsFired metric: %v", err)
			continue
		}
		var kind string
		for _, label := range metricProto.Label {
			if label.GetName() == "kind" {
				kind = label.GetValue()
			}
		}
		store.SaveMetricWithLabels("alerts_fired", "kind", kind, metricProto.Counter.GetValue())
	}

	log.Println("Metrics saved to database.")
}

func GetMetricValue(metric prometheus.Collector) float64 {
	var metricValue float64
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Printf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		metricValue = metricProto.Counter.GetValue()
	} else if metricProto.Gauge != nil {
		metricValue = metricProto.Gauge.GetValue()
	}
	return metricValue
}
