// Package config loads client configuration: defaults, then an optional
// YAML file, then ALGOLAB_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all client configuration.
type Config struct {
	// Remote API.
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Local cache and scripts.
	DataDir string `yaml:"data_dir"`

	// Local execution.
	ExecTimeout time.Duration `yaml:"exec_timeout"`
	EntryFunc   string        `yaml:"entry_func"`
	Workers     int           `yaml:"workers"`

	// Connectivity. Offline forces the offline path.
	Offline      bool          `yaml:"offline"`
	ProbeTimeout time.Duration `yaml:"probe_timeout"`

	// Observability.
	LogLevel     string `yaml:"log_level"`
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELInsecure bool   `yaml:"otel_insecure"`
	ServiceName  string `yaml:"service_name"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:        "http://localhost:8000",
		RequestTimeout: 30 * time.Second,
		DataDir:        defaultDataDir(),
		ExecTimeout:    3000 * time.Millisecond,
		EntryFunc:      "Main",
		Workers:        2,
		ProbeTimeout:   2 * time.Second,
		LogLevel:       "info",
		ServiceName:    "algolab",
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "algolab")
	}
	return ".algolab"
}

// Load builds the configuration. A .env file in the working directory is
// loaded into the environment first if present. path may be empty; a missing
// file at path is not an error.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.BaseURL = envStr("ALGOLAB_BASE_URL", c.BaseURL)
	c.RequestTimeout = envDuration("ALGOLAB_REQUEST_TIMEOUT", c.RequestTimeout)
	c.DataDir = envStr("ALGOLAB_DATA_DIR", c.DataDir)
	c.ExecTimeout = envDuration("ALGOLAB_EXEC_TIMEOUT", c.ExecTimeout)
	c.EntryFunc = envStr("ALGOLAB_ENTRY_FUNC", c.EntryFunc)
	c.Workers = envInt("ALGOLAB_WORKERS", c.Workers)
	c.Offline = envBool("ALGOLAB_OFFLINE", c.Offline)
	c.ProbeTimeout = envDuration("ALGOLAB_PROBE_TIMEOUT", c.ProbeTimeout)
	c.LogLevel = envStr("ALGOLAB_LOG_LEVEL", c.LogLevel)
	c.OTELEndpoint = envStr("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTELEndpoint)
	c.OTELInsecure = envBool("OTEL_EXPORTER_OTLP_INSECURE", c.OTELInsecure)
	c.ServiceName = envStr("OTEL_SERVICE_NAME", c.ServiceName)
}

// Validate checks that required configuration is present.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("config: ALGOLAB_BASE_URL is required")
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: ALGOLAB_BASE_URL %q is not an absolute URL", c.BaseURL)
	}
	if c.DataDir == "" {
		return fmt.Errorf("config: ALGOLAB_DATA_DIR is required")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("config: ALGOLAB_REQUEST_TIMEOUT must be positive")
	}
	if c.ExecTimeout <= 0 {
		return fmt.Errorf("config: ALGOLAB_EXEC_TIMEOUT must be positive")
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("config: ALGOLAB_PROBE_TIMEOUT must be positive")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("config: ALGOLAB_WORKERS must be positive")
	}
	if c.EntryFunc == "" {
		return fmt.Errorf("config: ALGOLAB_ENTRY_FUNC is required")
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
