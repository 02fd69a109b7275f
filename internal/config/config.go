// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New() returns a Config populated with defaults.
//   - Load layers a YAML file and SPOTRANK_* environment variables on top.
//   - Validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"math"
	"strings"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "SPOTRANK_"

// ConfigFileEnv names the variable holding an optional YAML config path.
const ConfigFileEnv = EnvPrefix + "CONFIG"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// DatasetPath is a local CSV path or an s3://bucket/key URI.
	DatasetPath string `koanf:"dataset_path"`

	// S3 settings, used only when DatasetPath is an s3:// URI.
	S3Endpoint        string `koanf:"s3_endpoint"`
	S3Region          string `koanf:"s3_region"`
	S3AccessKeyID     string `koanf:"s3_access_key_id"`
	S3SecretAccessKey string `koanf:"s3_secret_access_key"`

	// CORSAllowedOrigins lists allowed origins; "*" allows any.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// Scoring tunables.
	PopularityAlpha       float64 `koanf:"popularity_alpha"`
	DistanceScaleMiles    float64 `koanf:"distance_scale_miles"`
	DistanceCutoffMiles   float64 `koanf:"distance_cutoff_miles"`
	RatingBaseWeight      float64 `koanf:"rating_base_weight"`
	RatingPopularityBonus float64 `koanf:"rating_popularity_bonus"`
	CrowdWeight           float64 `koanf:"crowd_weight"`
	LocationWeight        float64 `koanf:"location_weight"`

	// Tracing.
	ServiceName         string  `koanf:"service_name"`
	TracingEnabled      bool    `koanf:"tracing_enabled"`
	TracingExporter     string  `koanf:"tracing_exporter"`
	TracingEndpoint     string  `koanf:"tracing_endpoint"`
	TracingSamplingRate float64 `koanf:"tracing_sampling_rate"`
	TracingInsecure     bool    `koanf:"tracing_insecure"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":8000",
		DatasetPath:           "./study_spots.csv",
		CORSAllowedOrigins:    []string{"*"},
		PopularityAlpha:       3.0,
		DistanceScaleMiles:    12.0,
		DistanceCutoffMiles:   50.0,
		RatingBaseWeight:      0.45,
		RatingPopularityBonus: 0.15,
		CrowdWeight:           0.30,
		LocationWeight:        0.25,
		ServiceName:           "spotrank",
		TracingExporter:       "otlp-http",
		TracingSamplingRate:   1.0,
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.DatasetPath) == "" {
		return fmt.Errorf("%w: dataset_path must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}

	positive := map[string]float64{
		"popularity_alpha":      c.PopularityAlpha,
		"distance_scale_miles":  c.DistanceScaleMiles,
		"distance_cutoff_miles": c.DistanceCutoffMiles,
	}
	for key, v := range positive {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("%w: %s must be a positive number, got %v", ErrInvalidConfig, key, v)
		}
	}

	weights := map[string]float64{
		"rating_base_weight":      c.RatingBaseWeight,
		"rating_popularity_bonus": c.RatingPopularityBonus,
		"crowd_weight":            c.CrowdWeight,
		"location_weight":         c.LocationWeight,
	}
	var sum float64
	for key, v := range weights {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number, got %v", ErrInvalidConfig, key, v)
		}
		sum += v
	}
	if sum == 0 {
		return fmt.Errorf("%w: scoring weights must not all be zero", ErrInvalidConfig)
	}

	if c.TracingEnabled {
		if c.TracingSamplingRate < 0 || c.TracingSamplingRate > 1 {
			return fmt.Errorf("%w: tracing_sampling_rate must be between 0 and 1, got %v", ErrInvalidConfig, c.TracingSamplingRate)
		}
		switch c.TracingExporter {
		case "otlp-http", "otlp-grpc", "":
		default:
			return fmt.Errorf("%w: unsupported tracing_exporter %q", ErrInvalidConfig, c.TracingExporter)
		}
	}
	return nil
}
