package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/annuaire-pro/enrich-cli/internal/match"
	"github.com/annuaire-pro/enrich-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Scrape     ScrapeConfig     `yaml:"scrape" mapstructure:"scrape"`
	Match      MatchConfig      `yaml:"match" mapstructure:"match"`
	Checkpoint CheckpointConfig `yaml:"checkpoint" mapstructure:"checkpoint"`
	Audit      AuditConfig      `yaml:"audit" mapstructure:"audit"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the record store backend.
type StoreConfig struct {
	Driver      string            `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string            `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string            `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	BatchSize   int               `yaml:"batch_size" mapstructure:"batch_size"`
	Pool        *store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// SearchConfig configures the search retrieval service.
type SearchConfig struct {
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey       string  `yaml:"api_key" mapstructure:"api_key"`
	Locale       string  `yaml:"locale" mapstructure:"locale"`
	ResultCount  int     `yaml:"result_count" mapstructure:"result_count"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries   int     `yaml:"max_retries" mapstructure:"max_retries"`
	RequestsPerS float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst        int     `yaml:"burst" mapstructure:"burst"`
}

// ScrapeConfig configures the enrichment engine and its worker pool.
type ScrapeConfig struct {
	InitialWorkers    int     `yaml:"initial_workers" mapstructure:"initial_workers"`
	MaxWorkers        int     `yaml:"max_workers" mapstructure:"max_workers"`
	QueueCap          int     `yaml:"queue_cap" mapstructure:"queue_cap"`
	DelayMinSecs      float64 `yaml:"delay_min_secs" mapstructure:"delay_min_secs"`
	DelayMaxSecs      float64 `yaml:"delay_max_secs" mapstructure:"delay_max_secs"`
	ScaleIntervalSecs int     `yaml:"scale_interval_secs" mapstructure:"scale_interval_secs"`
	CooldownBaseSecs  int     `yaml:"cooldown_base_secs" mapstructure:"cooldown_base_secs"`
	CooldownMaxSecs   int     `yaml:"cooldown_max_secs" mapstructure:"cooldown_max_secs"`
	Limit             int     `yaml:"limit" mapstructure:"limit"`
	CheckpointEvery   int     `yaml:"checkpoint_every" mapstructure:"checkpoint_every"`
	ShutdownGraceSecs int     `yaml:"shutdown_grace_secs" mapstructure:"shutdown_grace_secs"`
}

// MatchConfig configures the listing linkage engine.
type MatchConfig struct {
	ListingsDir    string           `yaml:"listings_dir" mapstructure:"listings_dir"`
	MaxLoaded      int              `yaml:"max_loaded" mapstructure:"max_loaded"`
	EnableInitials bool             `yaml:"enable_initials" mapstructure:"enable_initials"`
	Thresholds     match.Thresholds `yaml:"thresholds" mapstructure:"thresholds"`
}

// CheckpointConfig configures checkpoint persistence.
type CheckpointConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// AuditConfig configures the JSONL audit trail.
type AuditConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks that the fields a command depends on are present.
func (c *Config) Validate(command string) error {
	var missing []string

	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		missing = append(missing, "store.database_url")
	}

	switch command {
	case "scrape":
		if c.Search.BaseURL == "" {
			missing = append(missing, "search.base_url")
		}
	case "match":
		if c.Match.ListingsDir == "" {
			missing = append(missing, "match.listings_dir")
		}
	}

	if len(missing) > 0 {
		return eris.Errorf("config: missing required fields for %s: %s",
			command, strings.Join(missing, ", "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.sqlite_path", "enrich.db")
	v.SetDefault("store.batch_size", 200)
	v.SetDefault("search.locale", "fr")
	v.SetDefault("search.result_count", 10)
	v.SetDefault("search.timeout_secs", 20)
	v.SetDefault("search.max_retries", 3)
	v.SetDefault("search.requests_per_second", 0.5)
	v.SetDefault("search.burst", 1)
	v.SetDefault("scrape.initial_workers", 2)
	v.SetDefault("scrape.max_workers", 6)
	v.SetDefault("scrape.queue_cap", 4)
	v.SetDefault("scrape.delay_min_secs", 2.0)
	v.SetDefault("scrape.delay_max_secs", 5.0)
	v.SetDefault("scrape.scale_interval_secs", 30)
	v.SetDefault("scrape.cooldown_base_secs", 30)
	v.SetDefault("scrape.cooldown_max_secs", 900)
	v.SetDefault("scrape.limit", 5000)
	v.SetDefault("scrape.checkpoint_every", 25)
	v.SetDefault("scrape.shutdown_grace_secs", 5)
	v.SetDefault("match.listings_dir", "listings")
	v.SetDefault("match.max_loaded", 6)
	v.SetDefault("match.enable_initials", true)
	v.SetDefault("match.thresholds.address", 0.35)
	v.SetDefault("match.thresholds.reverse_token", 0.30)
	v.SetDefault("match.thresholds.city_word", 0.25)
	v.SetDefault("match.thresholds.initials_floor", 0.15)
	v.SetDefault("match.thresholds.initials_score", 0.30)
	v.SetDefault("match.thresholds.postal_keyword", 0.45)
	v.SetDefault("match.thresholds.min_keyword_len", 4)
	v.SetDefault("checkpoint.dir", "checkpoints")
	v.SetDefault("audit.dir", "audit")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
