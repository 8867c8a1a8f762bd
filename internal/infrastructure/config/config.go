package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`

	Telemetry  TelemetryConfig  `koanf:"telemetry"`
	Ingest     IngestConfig     `koanf:"ingest"`
	Clustering ClusteringConfig `koanf:"clustering"`
	Scoring    ScoringConfig    `koanf:"scoring"`
	Export     ExportConfig     `koanf:"export"`
}

// ServerConfig covers the operational HTTP listener (health, metrics).
type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type RedisConfig struct {
	URL          string        `koanf:"url"`
	Password     string        `koanf:"password"`
	DB           int           `koanf:"db"`
	PoolSize     int           `koanf:"pool_size"`
	MinIdleConns int           `koanf:"min_idle_conns"`
	MaxRetries   int           `koanf:"max_retries"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type TelemetryConfig struct {
	Enabled       bool          `koanf:"enabled"`
	OTLPEndpoint  string        `koanf:"otlp_endpoint"`
	SampleRate    float64       `koanf:"sample_rate"`
	ServiceName   string        `koanf:"service_name"`
	ExportTimeout time.Duration `koanf:"export_timeout"`
	BatchTimeout  time.Duration `koanf:"batch_timeout"`
}

type IngestConfig struct {
	Enabled   bool          `koanf:"enabled"`
	Source    string        `koanf:"source"`
	Interval  time.Duration `koanf:"interval"`
	BatchSize int           `koanf:"batch_size"`
	RateLimit float64       `koanf:"rate_limit"`
	Burst     int           `koanf:"burst"`
}

// ClusteringConfig tunes owner matching. The defaults mirror the domain
// match policy.
type ClusteringConfig struct {
	JoinThreshold float64 `koanf:"join_threshold"`
	CountryBonus  float64 `koanf:"country_bonus"`
}

type ScoringConfig struct {
	CacheEnabled bool          `koanf:"cache_enabled"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
	// SweepWindow is how far back the batch runner scores recently active
	// vessels after a rebuild. Zero disables the sweep.
	SweepWindow time.Duration `koanf:"sweep_window"`
}

type ExportConfig struct {
	OutputDir     string `koanf:"output_dir"`
	DefaultFormat string `koanf:"default_format"`
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load defaults
	defaults := &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			DB:           0,
			PoolSize:     10,
			MinIdleConns: 2,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Telemetry: TelemetryConfig{
			Enabled:       false,
			OTLPEndpoint:  "localhost:4317",
			SampleRate:    0.1,
			ServiceName:   "maritime-risk-engine",
			ExportTimeout: 30 * time.Second,
			BatchTimeout:  5 * time.Second,
		},
		Ingest: IngestConfig{
			Enabled:   false,
			Source:    "spool",
			Interval:  30 * time.Second,
			BatchSize: 100,
			RateLimit: 50,
			Burst:     100,
		},
		Clustering: ClusteringConfig{
			JoinThreshold: 0.85,
			CountryBonus:  0.10,
		},
		Scoring: ScoringConfig{
			CacheEnabled: true,
			CacheTTL:     10 * time.Minute,
			SweepWindow:  7 * 24 * time.Hour,
		},
		Export: ExportConfig{
			OutputDir:     "exports",
			DefaultFormat: "json",
		},
	}

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// Load from config file if exists
	if err := k.Load(file.Provider("configs/config.yaml"), yaml.Parser()); err != nil {
		// Config file is optional, only log if it's not a "file not found" error
	}

	// Override with environment variables
	if err := k.Load(env.Provider("MRE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "MRE_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
