package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the application configuration
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Risk    RiskConfig    `yaml:"risk"`
	Pattern PatternConfig `yaml:"pattern"`
	Yahoo   YahooConfig   `yaml:"yahoo"`
	Output  OutputConfig  `yaml:"output"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// DataConfig controls what gets fetched
type DataConfig struct {
	Benchmark       string `yaml:"benchmark" validate:"required"`
	HistoryDays     int    `yaml:"history_days" validate:"gte=30"` // calendar days
	VolumeAvgWindow int    `yaml:"volume_avg_window" validate:"gte=1"`
}

// RiskConfig holds position sizing settings
type RiskConfig struct {
	StopLossPct     float64 `yaml:"stop_loss_pct" validate:"gt=0,lt=0.5"`
	MinRR           float64 `yaml:"min_rr" validate:"gte=0"`
	MaxPositionPct  float64 `yaml:"max_position_pct" validate:"gt=0,lte=1"`
	TrailingStopPct float64 `yaml:"trailing_stop_pct" validate:"gt=0,lt=0.5"`
}

// PatternConfig holds pattern detection settings
type PatternConfig struct {
	LookbackDays        int     `yaml:"lookback_days" validate:"gte=1"`
	IslandMinDays       int     `yaml:"island_min_days" validate:"gte=1"`
	IslandMaxDays       int     `yaml:"island_max_days" validate:"gtefield=IslandMinDays"`
	MassiveVolumeWindow int     `yaml:"massive_volume_window" validate:"gte=1"`
	MidpointBodyRatio   float64 `yaml:"midpoint_body_ratio" validate:"gte=0,lte=1"`
}

// YahooConfig holds the data source settings
type YahooConfig struct {
	RateLimit       int           `yaml:"rate_limit" validate:"gte=1"` // requests per minute
	Timeout         time.Duration `yaml:"timeout" validate:"gt=0"`
	BreakerFailures int           `yaml:"breaker_failures" validate:"gte=1"`
	BreakerTimeout  time.Duration `yaml:"breaker_timeout" validate:"gt=0"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Dir    string `yaml:"dir" validate:"required"`
	Format string `yaml:"format" validate:"oneof=markdown table json"`
}

// ServerConfig holds serve mode settings
type ServerConfig struct {
	Port     int           `yaml:"port" validate:"gte=1,lte=65535"`
	CacheTTL time.Duration `yaml:"cache_ttl" validate:"gte=0"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Pretty bool   `yaml:"pretty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Benchmark:       "^GSPC",
			HistoryDays:     400,
			VolumeAvgWindow: 20,
		},
		Risk: RiskConfig{
			StopLossPct:     0.05,
			MinRR:           0.0,
			MaxPositionPct:  0.20,
			TrailingStopPct: 0.05,
		},
		Pattern: PatternConfig{
			LookbackDays:        120,
			IslandMinDays:       2,
			IslandMaxDays:       10,
			MassiveVolumeWindow: 20,
			MidpointBodyRatio:   0.6,
		},
		Yahoo: YahooConfig{
			RateLimit:       30,
			Timeout:         30 * time.Second,
			BreakerFailures: 3,
			BreakerTimeout:  60 * time.Second,
		},
		Output: OutputConfig{
			Dir:    "reports",
			Format: "markdown",
		},
		Server: ServerConfig{
			Port:     8080,
			CacheTTL: 5 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// Override with environment variables if set
func (c *Config) applyEnv() {
	if v := os.Getenv("ETFDASH_BENCHMARK"); v != "" {
		c.Data.Benchmark = v
	}
	if v := os.Getenv("ETFDASH_OUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

var validate = validator.New()

// Validate checks if the configuration is valid. It runs before any
// fetch so a bad percentage never reaches the risk engine.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q (value %v)", ErrInvalidConfig, fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
