package config

import (
	"sync"
	"time"

	"github.com/spf13/viper"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		viper.AutomaticEnv()

		viper.BindEnv("discord_bot_token", "DISCORD_BOT_TOKEN")
		viper.BindEnv("command_prefix", "COMMAND_PREFIX")
		viper.BindEnv("cryptocurrency_name", "CRYPTOCURRENCY_NAME")
		viper.BindEnv("cryptocurrency_id", "CRYPTOCURRENCY_ID")
		viper.BindEnv("fiat_name", "FIAT_NAME")
		viper.BindEnv("fiat_id", "FIAT_ID")
		viper.BindEnv("market_source", "MARKET_SOURCE")
		viper.BindEnv("coingecko_api_url", "COINGECKO_API_URL")
		viper.BindEnv("api_pro_key", "API_PRO_KEY")
		viper.BindEnv("poll_interval_seconds", "POLL_INTERVAL_SECONDS")
		viper.BindEnv("fetch_timeout_seconds", "FETCH_TIMEOUT_SECONDS")
		viper.BindEnv("max_ppa", "MAX_PPA")
		viper.BindEnv("max_cpa", "MAX_CPA")
		viper.BindEnv("presence_precision", "PRESENCE_PRECISION")
		viper.BindEnv("stats_precision", "STATS_PRECISION")
		viper.BindEnv("human_readable_precision", "HUMAN_READABLE_PRECISION")
		viper.BindEnv("human_readable_stats", "HUMAN_READABLE_STATS")
		viper.BindEnv("embed_color", "EMBED_COLOR")
		viper.BindEnv("db_path", "DB_PATH")
		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "LANG")

		viper.SetDefault("command_prefix", "!")
		viper.SetDefault("cryptocurrency_name", "Bitcoin")
		viper.SetDefault("cryptocurrency_id", "bitcoin")
		viper.SetDefault("fiat_name", "$")
		viper.SetDefault("fiat_id", "usd")
		viper.SetDefault("market_source", "coingecko")
		viper.SetDefault("poll_interval_seconds", 5)
		viper.SetDefault("fetch_timeout_seconds", 10)
		viper.SetDefault("max_ppa", 10)
		viper.SetDefault("max_cpa", 10)
		viper.SetDefault("presence_precision", 0)
		viper.SetDefault("stats_precision", 2)
		viper.SetDefault("human_readable_precision", 2)
		viper.SetDefault("human_readable_stats", true)
		viper.SetDefault("embed_color", 0x5865f2)
		viper.SetDefault("db_path", "data/bot.db")
		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}

func GetDuration(key string) time.Duration {
	InitConfig()
	return time.Duration(viper.GetInt(key)) * time.Second
}
