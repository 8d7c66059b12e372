package config

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Models     ModelsConfig     `yaml:"models"`
	Features   FeaturesConfig   `yaml:"features"`
	Decision   DecisionConfig   `yaml:"decision"`
	KPI        KPIConfig        `yaml:"kpi"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// PipelineConfig controls the recurring prediction cycle.
type PipelineConfig struct {
	Enabled           bool          `yaml:"enabled"`
	IntervalMinutes   int           `yaml:"interval_minutes"`
	Interval          time.Duration `yaml:"-"` // Ignored by YAML parser
	Concurrency       int           `yaml:"concurrency"`
	RunTimeoutMinutes int           `yaml:"run_timeout_minutes"`
	RunTimeout        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// ModelsConfig points at the serialized classifier artifacts.
type ModelsConfig struct {
	ScreeningPath      string `yaml:"screening_path"`
	PrioritizationPath string `yaml:"prioritization_path"`
	EncodingPath       string `yaml:"encoding_path"`
}

// FeaturesConfig holds the bucketing thresholds used by the feature builder.
type FeaturesConfig struct {
	// Upper bounds (inclusive) of the first three age buckets, in years.
	AgeBucketYears []int `yaml:"age_bucket_years"`
	// Upper bounds (inclusive) of the low and medium usage buckets, in
	// operating hours per year.
	UsageBucketHoursPerYear []float64 `yaml:"usage_bucket_hours_per_year"`
}

// DecisionConfig holds the priority thresholds, cost table and scheduling
// offsets used by the decision engine.
type DecisionConfig struct {
	RiskCritical float64 `yaml:"risk_critical"`
	RiskHigh     float64 `yaml:"risk_high"`
	RiskMedium   float64 `yaml:"risk_medium"`

	CostCritical float64 `yaml:"cost_critical"`
	CostHigh     float64 `yaml:"cost_high"`
	CostMedium   float64 `yaml:"cost_medium"`
	CostLow      float64 `yaml:"cost_low"`

	OffsetDaysCritical int `yaml:"offset_days_critical"`
	OffsetDaysHigh     int `yaml:"offset_days_high"`
	OffsetDaysMedium   int `yaml:"offset_days_medium"`
	OffsetDaysLow      int `yaml:"offset_days_low"`
}

// KPITarget configures one metric's target value and comparison direction.
type KPITarget struct {
	Target         float64 `yaml:"target"`
	HigherIsBetter bool    `yaml:"higher_is_better"`
}

// KPIConfig maps metric names to their targets. Metrics without an entry use
// the built-in defaults from the KPI calculator.
type KPIConfig struct {
	Targets map[string]KPITarget `yaml:"targets"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path and applies defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied. Tests and the
// pipeline use this when no file is supplied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}

	if cfg.Pipeline.IntervalMinutes <= 0 {
		cfg.Pipeline.IntervalMinutes = 1440 // one cycle per day
	}
	cfg.Pipeline.Interval = time.Duration(cfg.Pipeline.IntervalMinutes) * time.Minute
	if cfg.Pipeline.Concurrency <= 0 {
		cfg.Pipeline.Concurrency = runtime.NumCPU()
	}
	if cfg.Pipeline.RunTimeoutMinutes <= 0 {
		cfg.Pipeline.RunTimeoutMinutes = 30
	}
	cfg.Pipeline.RunTimeout = time.Duration(cfg.Pipeline.RunTimeoutMinutes) * time.Minute

	if len(cfg.Features.AgeBucketYears) == 0 {
		cfg.Features.AgeBucketYears = []int{3, 7, 12}
	}
	if len(cfg.Features.UsageBucketHoursPerYear) == 0 {
		cfg.Features.UsageBucketHoursPerYear = []float64{200, 500}
	}

	if cfg.Decision.RiskCritical <= 0 {
		cfg.Decision.RiskCritical = 70
	}
	if cfg.Decision.RiskHigh <= 0 {
		cfg.Decision.RiskHigh = 40
	}
	if cfg.Decision.RiskMedium <= 0 {
		cfg.Decision.RiskMedium = 20
	}
	if cfg.Decision.CostCritical <= 0 {
		cfg.Decision.CostCritical = 500
	}
	if cfg.Decision.CostHigh <= 0 {
		cfg.Decision.CostHigh = 350
	}
	if cfg.Decision.CostMedium <= 0 {
		cfg.Decision.CostMedium = 280
	}
	if cfg.Decision.CostLow <= 0 {
		cfg.Decision.CostLow = 200
	}
	if cfg.Decision.OffsetDaysCritical <= 0 {
		cfg.Decision.OffsetDaysCritical = 1
	}
	if cfg.Decision.OffsetDaysHigh <= 0 {
		cfg.Decision.OffsetDaysHigh = 7
	}
	if cfg.Decision.OffsetDaysMedium <= 0 {
		cfg.Decision.OffsetDaysMedium = 14
	}
	if cfg.Decision.OffsetDaysLow <= 0 {
		cfg.Decision.OffsetDaysLow = 30
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
}

func validate(cfg *Config) error {
	d := cfg.Decision
	if !(d.RiskMedium < d.RiskHigh && d.RiskHigh < d.RiskCritical) {
		return fmt.Errorf("decision risk thresholds must be strictly increasing: medium=%v high=%v critical=%v",
			d.RiskMedium, d.RiskHigh, d.RiskCritical)
	}
	if len(cfg.Features.AgeBucketYears) != 3 {
		return fmt.Errorf("features.age_bucket_years must list exactly 3 upper bounds, got %d", len(cfg.Features.AgeBucketYears))
	}
	for i := 1; i < len(cfg.Features.AgeBucketYears); i++ {
		if cfg.Features.AgeBucketYears[i] <= cfg.Features.AgeBucketYears[i-1] {
			return fmt.Errorf("features.age_bucket_years must be strictly increasing")
		}
	}
	if len(cfg.Features.UsageBucketHoursPerYear) != 2 {
		return fmt.Errorf("features.usage_bucket_hours_per_year must list exactly 2 upper bounds, got %d", len(cfg.Features.UsageBucketHoursPerYear))
	}
	if cfg.Features.UsageBucketHoursPerYear[1] <= cfg.Features.UsageBucketHoursPerYear[0] {
		return fmt.Errorf("features.usage_bucket_hours_per_year must be strictly increasing")
	}
	return nil
}
