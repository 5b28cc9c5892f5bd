package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Indexer   IndexerConfig   `mapstructure:"indexer"`
	Notifier  NotifierConfig  `mapstructure:"notifier"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

// IndexerConfig points at the Thetanuts position indexer. The base URL is
// also the static fallback for the THETANUTS_INDEXER_URL dynamic key.
type IndexerConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type NotifierConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SchedulerConfig holds static fallbacks for the dynamic scheduler keys plus
// values only read at startup (reminder cron spec, config cache TTL).
type SchedulerConfig struct {
	Enabled              bool          `mapstructure:"enabled"`
	SyncInterval         time.Duration `mapstructure:"sync_interval"`
	SettleDelay          time.Duration `mapstructure:"settle_delay"`
	ReferrerAddress      string        `mapstructure:"referrer_address"`
	ExpiryReminderCron   string        `mapstructure:"expiry_reminder_cron"`
	ExpiryReminderWindow time.Duration `mapstructure:"expiry_reminder_window"`
	ConfigCacheTTL       time.Duration `mapstructure:"config_cache_ttl"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("indexer.base_url", "https://indexer.thetanuts.fi/v1")
	v.SetDefault("indexer.timeout", "15s")
	v.SetDefault("notifier.base_url", "https://api.neynar.com/v2")
	v.SetDefault("notifier.timeout", "10s")
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.sync_interval", "15m")
	v.SetDefault("scheduler.settle_delay", "10s")
	v.SetDefault("scheduler.referrer_address", "")
	// 07:00 UTC daily (six-field spec, seconds first).
	v.SetDefault("scheduler.expiry_reminder_cron", "0 0 7 * * *")
	v.SetDefault("scheduler.expiry_reminder_window", "60m")
	v.SetDefault("scheduler.config_cache_ttl", "30s")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
