package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the BPM detection service. All
// values are fixed at startup; nothing is reloadable.
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Audio capture configuration
	SampleRate       int `envconfig:"SAMPLE_RATE" default:"22050"`       // Capture sample rate in Hz
	WindowSeconds    int `envconfig:"WINDOW_SECONDS" default:"3"`        // Rolling window duration
	MinWindowSeconds int `envconfig:"MIN_WINDOW_SECONDS" default:"2"`    // Audio required before analysis
	CaptureBlockSize int `envconfig:"CAPTURE_BLOCK_SIZE" default:"1024"` // Frames per capture callback
	CaptureChannels  int `envconfig:"CAPTURE_CHANNELS" default:"1"`      // Input channels requested from the device

	// Analysis configuration
	AnalysisIntervalMs int `envconfig:"ANALYSIS_INTERVAL_MS" default:"500"` // Milliseconds between analysis ticks
	TargetBPM          int `envconfig:"TARGET_BPM" default:"180"`           // Tempo the detector watches for
	ToleranceBPM       int `envconfig:"TOLERANCE_BPM" default:"5"`          // Acceptable deviation from the target

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables, first attempting
// to load a .env file if one exists.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load a .env file (useful for containers and tests).
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("SAMPLE_RATE must be positive, got %d", cfg.SampleRate)
	}
	if cfg.WindowSeconds <= 0 {
		return nil, fmt.Errorf("WINDOW_SECONDS must be positive, got %d", cfg.WindowSeconds)
	}
	if cfg.MinWindowSeconds > cfg.WindowSeconds {
		return nil, fmt.Errorf("MIN_WINDOW_SECONDS (%d) cannot exceed WINDOW_SECONDS (%d)",
			cfg.MinWindowSeconds, cfg.WindowSeconds)
	}
	if cfg.AnalysisIntervalMs <= 0 {
		return nil, fmt.Errorf("ANALYSIS_INTERVAL_MS must be positive, got %d", cfg.AnalysisIntervalMs)
	}

	return &cfg, nil
}

// BufferSize returns the ring buffer capacity in samples.
func (c *Config) BufferSize() int {
	return c.SampleRate * c.WindowSeconds
}

// MinSamples returns the sample count required before analysis runs.
func (c *Config) MinSamples() int {
	return c.SampleRate * c.MinWindowSeconds
}

// AnalysisInterval returns the delay between analysis ticks.
func (c *Config) AnalysisInterval() time.Duration {
	return time.Duration(c.AnalysisIntervalMs) * time.Millisecond
}
