package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"MacroSync/internal/domain/models"
)

// Config is the full service configuration.
type Config struct {
	Environment string `yaml:"environment" default:"production" validate:"required"`

	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`

	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`

	ClickHouse struct {
		Host         string        `yaml:"host" default:"localhost" validate:"required"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"macrosync" validate:"required"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		UseHTTP      bool          `yaml:"use_http"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
	} `yaml:"clickhouse"`

	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		RunTopic     string   `yaml:"run_topic" default:"macrosync.runs"`
		LogTopic     string   `yaml:"log_topic" default:"macrosync.logs"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
	} `yaml:"kafka"`

	Cache struct {
		Backend string `yaml:"backend" default:"memory" validate:"oneof=memory redis"`
		Redis   struct {
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Providers map[string]ProviderSpec `yaml:"providers" validate:"required,dive"`

	Sync struct {
		Interval     time.Duration `yaml:"interval" default:"6h"`
		FetchWorkers int           `yaml:"fetch_workers" default:"4" validate:"gt=0"`
		ResolveTTL   time.Duration `yaml:"resolve_ttl" default:"168h"`
		LockTTL      time.Duration `yaml:"lock_ttl" default:"30m"`
		Tables       []TableSpec   `yaml:"tables" validate:"required,min=1,dive"`
	} `yaml:"sync"`
}

// ProviderSpec configures one upstream provider family. Credentials are
// supplied out-of-band: APIKeyEnv names the environment variable to read.
type ProviderSpec struct {
	Kind      string        `yaml:"kind" validate:"required,oneof=fred ofr sdmx ecos"`
	BaseURL   string        `yaml:"base_url" validate:"required"`
	Frequency string        `yaml:"frequency" validate:"required,oneof=daily weekly monthly quarterly"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Timeout   time.Duration `yaml:"timeout" default:"60s"`
}

// Freq returns the provider frequency class.
func (p ProviderSpec) Freq() models.Frequency { return models.Frequency(p.Frequency) }

// APIKey resolves the provider credential from the environment.
func (p ProviderSpec) APIKey() string {
	if p.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(p.APIKeyEnv)
}

// SeriesSpec maps one upstream series onto a destination column. Codes is an
// ordered candidate list; the first code that answers is resolved once and
// cached instead of being re-guessed every fetch.
type SeriesSpec struct {
	Provider string   `yaml:"provider" validate:"required"`
	Codes    []string `yaml:"codes" validate:"required,min=1"`
	Column   string   `yaml:"column" validate:"required"`
	Resample string   `yaml:"resample" validate:"omitempty,oneof=month_last"`
}

// SpliceSpec stitches two fetched columns into one logical column,
// primary taking precedence wherever present.
type SpliceSpec struct {
	Column   string `yaml:"column" validate:"required"`
	Primary  string `yaml:"primary" validate:"required"`
	Fallback string `yaml:"fallback" validate:"required"`
}

// RateSpec derives percentage-change columns from a fetched level column.
type RateSpec struct {
	Source string `yaml:"source" validate:"required"`
	YoY    string `yaml:"yoy"`
	PoP    string `yaml:"pop"`
}

// TableSpec declares one destination table: its canonical header, the series
// feeding it and the derivation rules applied before merging.
type TableSpec struct {
	Name      string       `yaml:"name" validate:"required"`
	Frequency string       `yaml:"frequency" validate:"required,oneof=daily weekly monthly quarterly"`
	FullStart string       `yaml:"full_start" validate:"required"`
	Lookback  int          `yaml:"lookback" default:"4" validate:"gt=0"`
	Columns   []string     `yaml:"columns" validate:"required,min=1"`
	Series    []SeriesSpec `yaml:"series" validate:"required,min=1,dive"`
	Splices   []SpliceSpec `yaml:"splices" validate:"omitempty,dive"`
	Rates     []RateSpec   `yaml:"rates" validate:"omitempty,dive"`
}

// Freq returns the table frequency class.
func (t TableSpec) Freq() models.Frequency { return models.Frequency(t.Frequency) }

// Header returns the canonical header, Date first.
func (t TableSpec) Header() []string {
	h := make([]string, 0, len(t.Columns)+1)
	h = append(h, models.DateColumn)
	h = append(h, t.Columns...)
	return h
}

// Load reads, defaults, and validates a YAML configuration file.
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

	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port := splitHostPort(v)
		c.Cache.Redis.Host = host
		if port != 0 {
			c.Cache.Redis.Port = port
		}
	}
	return c, nil
}

// Validate checks tag rules plus the cross-references tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	for _, t := range c.Sync.Tables {
		produced := make(map[string]bool, len(t.Series))
		for _, s := range t.Series {
			if _, ok := c.Providers[s.Provider]; !ok {
				return fmt.Errorf("table %s: series %s: unknown provider %q", t.Name, s.Column, s.Provider)
			}
			if produced[s.Column] {
				return fmt.Errorf("table %s: duplicate series column %q", t.Name, s.Column)
			}
			produced[s.Column] = true
		}
		for _, sp := range t.Splices {
			if !produced[sp.Primary] || !produced[sp.Fallback] {
				return fmt.Errorf("table %s: splice %s references unfetched column", t.Name, sp.Column)
			}
			produced[sp.Column] = true
		}
		for _, r := range t.Rates {
			if !produced[r.Source] {
				return fmt.Errorf("table %s: rate source %q not fetched", t.Name, r.Source)
			}
			if r.YoY == "" && r.PoP == "" {
				return fmt.Errorf("table %s: rate on %q derives no column", t.Name, r.Source)
			}
			if r.YoY != "" {
				produced[r.YoY] = true
			}
			if r.PoP != "" {
				produced[r.PoP] = true
			}
		}
		for _, col := range t.Columns {
			if col == models.DateColumn {
				return fmt.Errorf("table %s: %q is implicit and not a data column", t.Name, models.DateColumn)
			}
			if !produced[col] {
				return fmt.Errorf("table %s: header column %q has no series or derivation", t.Name, col)
			}
		}
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required when kafka is enabled")
	}
	return nil
}

func splitHostPort(addr string) (string, int) {
	i := strings.LastIndexByte(addr, ':')
	if i < 0 {
		return addr, 0
	}
	var port int
	if _, err := fmt.Sscanf(addr[i+1:], "%d", &port); err != nil {
		return addr, 0
	}
	return addr[:i], port
}
