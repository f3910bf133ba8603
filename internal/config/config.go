package config

import (
	"os"
	"strconv"

	"neurosense/domain/eeg"
	"neurosense/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Paths    PathConfig
	Signal   SignalConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// PathConfig holds file system paths
type PathConfig struct {
	ModelsDir       string
	FeatureCacheDir string
}

// SignalConfig holds recording-protocol settings
type SignalConfig struct {
	SamplingRate  float64
	ChannelCount  int
	EpochSamples  int
	WindowStartMs float64
	WindowEndMs   float64
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port: envOr("PORT", "8080"),
		},
		Paths: PathConfig{
			ModelsDir:       envOr("MODELS_DIR", "models"),
			FeatureCacheDir: envOr("FEATURE_CACHE_DIR", "static_data"),
		},
		Signal: SignalConfig{
			SamplingRate:  envFloat("SAMPLING_RATE", 250),
			ChannelCount:  envInt("CHANNEL_COUNT", eeg.DefaultChannelCount),
			EpochSamples:  envInt("EPOCH_SAMPLES", eeg.DefaultNominalSamples),
			WindowStartMs: envFloat("FEATURE_WINDOW_START_MS", eeg.DefaultWindow.StartMs),
			WindowEndMs:   envFloat("FEATURE_WINDOW_END_MS", eeg.DefaultWindow.EndMs),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Signal.SamplingRate <= 0 {
		return errors.ConfigInvalid("SAMPLING_RATE must be positive")
	}
	if c.Signal.ChannelCount <= 0 {
		return errors.ConfigInvalid("CHANNEL_COUNT must be positive")
	}
	if c.Signal.WindowStartMs >= c.Signal.WindowEndMs {
		return errors.ConfigInvalid("feature window start must precede its end")
	}
	return nil
}

// Window returns the configured feature-extraction window.
func (c *Config) Window() eeg.Window {
	return eeg.Window{StartMs: c.Signal.WindowStartMs, EndMs: c.Signal.WindowEndMs}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
