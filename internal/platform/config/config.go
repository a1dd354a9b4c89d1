package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment variable read by the service,
// e.g. GHG_DATABASE_URL maps to database.url.
const EnvPrefix = "GHG"

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string        `mapstructure:"addr"`
	Environment    string        `mapstructure:"environment"`
	LogLevel       string        `mapstructure:"log_level"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	Database Database `mapstructure:"database"`
	Redis    Redis    `mapstructure:"redis"`
	Kafka    Kafka    `mapstructure:"kafka"`
	Ledger   Ledger   `mapstructure:"ledger"`
}

// Database configures the Postgres pool. An empty URL selects in-memory stores.
type Database struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// Redis configures the optional factor resolution cache. An empty URL disables it.
type Redis struct {
	URL      string        `mapstructure:"url"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// Kafka configures publication of audit batches. An empty Brokers list leaves
// batches unpublished and the outbox disabled.
type Kafka struct {
	Brokers         string        `mapstructure:"brokers"`
	AuditTopic      string        `mapstructure:"audit_topic"`
	Acks            string        `mapstructure:"acks"`
	Retries         int           `mapstructure:"retries"`
	DeliveryTimeout time.Duration `mapstructure:"delivery_timeout"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	BatchSize       int           `mapstructure:"batch_size"`
	Retention       time.Duration `mapstructure:"retention"`
}

// Ledger holds domain switches.
type Ledger struct {
	// StrictFactorWindows rejects factors whose validity window overlaps an
	// existing factor for the same activity and unit.
	StrictFactorWindows bool `mapstructure:"strict_factor_windows"`
	HotspotLimit        int  `mapstructure:"hotspot_limit"`
}

// SetDefaults registers every key with its default so env binding sees it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("request_timeout", 30*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.cache_ttl", 10*time.Minute)

	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.audit_topic", "ghgledger.audit.entries")
	v.SetDefault("kafka.acks", "all")
	v.SetDefault("kafka.retries", 10)
	v.SetDefault("kafka.delivery_timeout", 30*time.Second)
	v.SetDefault("kafka.poll_interval", 500*time.Millisecond)
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.retention", 7*24*time.Hour)

	v.SetDefault("ledger.strict_factor_windows", false)
	v.SetDefault("ledger.hotspot_limit", 5)
}

// New returns a viper instance wired for GHG_ environment variables.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads an optional config file into v and decodes the result.
func Load(v *viper.Viper, file string) (Server, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Server{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Server
	if err := v.Unmarshal(&cfg); err != nil {
		return Server{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// FromEnv builds a Server config from defaults and environment variables only.
func FromEnv() (Server, error) {
	return Load(New(), "")
}

func (c Server) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("addr must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request_timeout must be positive")
	}
	if c.Ledger.HotspotLimit <= 0 {
		return errors.New("ledger.hotspot_limit must be positive")
	}
	if c.Redis.URL != "" && c.Redis.CacheTTL <= 0 {
		return errors.New("redis.cache_ttl must be positive when redis is enabled")
	}
	if c.PublishesAudit() {
		switch c.Kafka.Acks {
		case "0", "1", "all":
		default:
			return fmt.Errorf("kafka.acks must be one of 0, 1, all: got %q", c.Kafka.Acks)
		}
		if strings.TrimSpace(c.Kafka.AuditTopic) == "" {
			return errors.New("kafka.audit_topic must not be empty when kafka is enabled")
		}
		if c.Kafka.BatchSize <= 0 || c.Kafka.PollInterval <= 0 {
			return errors.New("kafka.batch_size and kafka.poll_interval must be positive")
		}
	}
	return nil
}

// PublishesAudit reports whether audit batches are streamed to Kafka.
func (c Server) PublishesAudit() bool {
	return strings.TrimSpace(c.Kafka.Brokers) != ""
}

// UsesPostgres reports whether durable stores should back the service.
func (c Server) UsesPostgres() bool {
	return c.Database.URL != ""
}
