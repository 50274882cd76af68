package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"city-parking/internal/parking"
)

type Config struct {
	Environment string          `yaml:"environment" validate:"required,oneof=development staging production test"`
	Site        SiteConfig      `yaml:"site"`
	Rates       RatesConfig     `yaml:"rates"`
	HTTP        HTTPConfig      `yaml:"http"`
	Snapshot    SnapshotConfig  `yaml:"snapshot"`
	Logging     LoggingConfig   `yaml:"logging"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
}

type SiteConfig struct {
	Name          string `yaml:"name" validate:"required"`
	Floors        int    `yaml:"floors" validate:"gte=1,lte=200"`
	SlotsPerFloor int    `yaml:"slots_per_floor" validate:"gte=1,lte=10000"`
	FloorSpacing  int    `yaml:"floor_spacing" validate:"gte=0"`
	BaySpacing    int    `yaml:"bay_spacing" validate:"gte=0"`
}

type RatesConfig struct {
	FirstHour      float64 `yaml:"first_hour" validate:"gt=0"`
	AdditionalHour float64 `yaml:"additional_hour" validate:"gt=0"`
	DailyCap       float64 `yaml:"daily_cap" validate:"gt=0"`
}

type HTTPConfig struct {
	Port            string        `yaml:"port" validate:"required,numeric"`
	RateLimit       float64       `yaml:"rate_limit" validate:"gte=0"`
	RateBurst       int           `yaml:"rate_burst" validate:"gte=1"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

type SnapshotConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Path     string        `yaml:"path" validate:"required_if=Enabled true"`
	Interval time.Duration `yaml:"interval" validate:"gte=0"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

type TelemetryConfig struct {
	ServiceName    string        `yaml:"service_name" validate:"required"`
	OTLPEndpoint   string        `yaml:"otlp_endpoint" validate:"omitempty,url"`
	ExportOTLP     bool          `yaml:"export_otlp"`
	ExportInterval time.Duration `yaml:"export_interval" validate:"gte=0"`
}

func Default() *Config {
	return &Config{
		Environment: "development",
		Site: SiteConfig{
			Name:          "Downtown Business District",
			Floors:        3,
			SlotsPerFloor: 12,
			FloorSpacing:  50,
			BaySpacing:    4,
		},
		Rates: RatesConfig{
			FirstHour:      60,
			AdditionalHour: 40,
			DailyCap:       600,
		},
		HTTP: HTTPConfig{
			Port:            "8080",
			RateLimit:       50,
			RateBurst:       100,
			ShutdownTimeout: 10 * time.Second,
		},
		Snapshot: SnapshotConfig{
			Enabled:  true,
			Path:     "web/data/slots.json",
			Interval: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "city-parking",
			OTLPEndpoint:   "http://localhost:4318",
			ExportInterval: 5 * time.Second,
		},
	}
}

// Load layers configuration: defaults, then the YAML file at path (when
// path is not empty), then a .env file in the working directory, then
// the process environment. The result is validated before it is returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.RateCard(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := os.LookupEnv(key); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("ENVIRONMENT", &c.Environment)

	str("CITYPARK_SITE_NAME", &c.Site.Name)
	integer("CITYPARK_FLOORS", &c.Site.Floors)
	integer("CITYPARK_SLOTS_PER_FLOOR", &c.Site.SlotsPerFloor)
	integer("CITYPARK_FLOOR_SPACING", &c.Site.FloorSpacing)
	integer("CITYPARK_BAY_SPACING", &c.Site.BaySpacing)

	float("CITYPARK_RATE_FIRST_HOUR", &c.Rates.FirstHour)
	float("CITYPARK_RATE_ADDITIONAL_HOUR", &c.Rates.AdditionalHour)
	float("CITYPARK_RATE_DAILY_CAP", &c.Rates.DailyCap)

	str("APP_PORT", &c.HTTP.Port)
	float("CITYPARK_RATE_LIMIT", &c.HTTP.RateLimit)
	integer("CITYPARK_RATE_BURST", &c.HTTP.RateBurst)
	duration("CITYPARK_SHUTDOWN_TIMEOUT", &c.HTTP.ShutdownTimeout)

	boolean("CITYPARK_SNAPSHOT_ENABLED", &c.Snapshot.Enabled)
	str("CITYPARK_SNAPSHOT_PATH", &c.Snapshot.Path)
	duration("CITYPARK_SNAPSHOT_INTERVAL", &c.Snapshot.Interval)

	str("CITYPARK_LOG_LEVEL", &c.Logging.Level)
	str("CITYPARK_LOG_FORMAT", &c.Logging.Format)

	str("OTEL_SERVICE_NAME", &c.Telemetry.ServiceName)
	str("OTEL_EXPORTER_OTLP_ENDPOINT", &c.Telemetry.OTLPEndpoint)
	boolean("CITYPARK_OTLP_ENABLED", &c.Telemetry.ExportOTLP)
	duration("CITYPARK_OTLP_INTERVAL", &c.Telemetry.ExportInterval)

	return errors.Join(errs...)
}

func (c *Config) RateCard() (parking.RateCard, error) {
	return parking.NewRateCard(c.Rates.FirstHour, c.Rates.AdditionalHour, c.Rates.DailyCap)
}

func (c *Config) Layout() parking.Layout {
	return parking.Layout{
		Floors:        c.Site.Floors,
		SlotsPerFloor: c.Site.SlotsPerFloor,
		FloorSpacing:  c.Site.FloorSpacing,
		BaySpacing:    c.Site.BaySpacing,
	}
}

func (c *Config) TelemetryOptions() parking.TelemetryOptions {
	return parking.TelemetryOptions{
		ServiceName:    c.Telemetry.ServiceName,
		OTLPEndpoint:   c.Telemetry.OTLPEndpoint,
		ExportOTLP:     c.Telemetry.ExportOTLP,
		ExportInterval: c.Telemetry.ExportInterval,
	}
}
