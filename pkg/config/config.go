package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`

	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`

	// Storage selects where the canonical series blob lives. "redis" is the
	// durable object store, "file" a local CSV, "replicated" redis with a
	// local fallback copy that self-heals the durable side.
	Storage struct {
		Backend  string `yaml:"backend" default:"file" validate:"oneof=file redis replicated"`
		FilePath string `yaml:"file_path" default:"bitcoin_daily.csv"`
		BlobName string `yaml:"blob_name" default:"bitcoin_daily"`
		Redis    struct {
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db" default:"0"`
			Prefix   string `yaml:"prefix" default:"hodlwatch"`
		} `yaml:"redis"`
	} `yaml:"storage"`

	Sources struct {
		// InceptionDate is where the cold-start bulk backfill begins.
		InceptionDate string        `yaml:"inception_date" default:"2010-07-17" validate:"required,datetime=2006-01-02"`
		Timeout       time.Duration `yaml:"timeout" default:"15s"`
		CoinGecko     struct {
			BaseURL string `yaml:"base_url" default:"https://api.coingecko.com/api/v3"`
		} `yaml:"coingecko"`
		CoinMarketCap struct {
			BaseURL string `yaml:"base_url" default:"https://pro-api.coinmarketcap.com/v1"`
			APIKey  string `yaml:"api_key"`
		} `yaml:"coinmarketcap"`
		Archive struct {
			// Long-horizon aggregate candle JSON, used for cold-start backfill only.
			URL string `yaml:"url" default:"https://raw.githubusercontent.com/cilphex/full-bitcoin-price-history/master/price-data/aggregate-data.json"`
		} `yaml:"archive"`
	} `yaml:"sources"`

	Refresh struct {
		CronSpec     string        `yaml:"cron_spec" default:"0 */15 * * * *"`
		CycleTimeout time.Duration `yaml:"cycle_timeout" default:"2m"`
		// ResultWindow is how long a successful Update Result keeps being
		// served before an on-demand request triggers a fresh cycle.
		ResultWindow time.Duration `yaml:"result_window" default:"30s"`
	} `yaml:"refresh"`

	Events struct {
		Enabled bool     `yaml:"enabled" default:"false"`
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic" default:"hodlwatch.updates"`
	} `yaml:"events"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file, applying defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("CMC_API_KEY"); v != "" {
		c.Sources.CoinMarketCap.APIKey = v
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Storage.Redis.Host = host
		if ok {
			if p, perr := strconv.Atoi(port); perr == nil {
				c.Storage.Redis.Port = p
			}
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Events.Brokers = strings.Split(v, ",")
		c.Events.Enabled = true
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks the configuration against struct tags plus cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return fmt.Errorf("events.brokers cannot be empty when events.enabled")
	}
	if c.Storage.Backend != "file" && c.Storage.Redis.Host == "" {
		return fmt.Errorf("storage.redis.host is required for backend %q", c.Storage.Backend)
	}
	return nil
}
