package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultLookbackDays      = 3
	DefaultWorkers           = 4
	DefaultMaxAttempts       = 3
	DefaultModel             = "gpt-4o-mini"
	DefaultTopK              = 5
	DefaultHTTPAddr          = ":8080"
	DefaultMetricsAddr       = ":9090"
	DefaultValkeyKeyPrefix   = "applytrack:"
	DefaultRequestTimeout    = 30 * time.Second
	DefaultAttemptTimeout    = 60 * time.Second
	DefaultRequestsPerSecond = 2
)

// State backends.
const (
	BackendFile   = "file"
	BackendValkey = "valkey"
)

// Config is the full application configuration.
type Config struct {
	// DataDir holds artifacts, the watermark and the spreadsheet id.
	DataDir string `yaml:"data_dir"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Google struct {
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		TokenFile    string `yaml:"token_file"`
		RedirectURL  string `yaml:"redirect_url"`
	} `yaml:"google"`

	Gmail struct {
		LookbackDays   int           `yaml:"lookback_days"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
	} `yaml:"gmail"`

	OpenAI struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"openai"`

	Classifier struct {
		MaxAttempts       int           `yaml:"max_attempts"`
		AttemptTimeout    time.Duration `yaml:"attempt_timeout"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
		Burst             int           `yaml:"burst"`
	} `yaml:"classifier"`

	Pipeline struct {
		Workers int `yaml:"workers"`
	} `yaml:"pipeline"`

	State struct {
		Backend string `yaml:"backend"`
		Valkey  struct {
			Addr      string `yaml:"addr"`
			Password  string `yaml:"password"`
			DB        int    `yaml:"db"`
			KeyPrefix string `yaml:"key_prefix"`
		} `yaml:"valkey"`
	} `yaml:"state"`

	Retrieval struct {
		TopK int `yaml:"top_k"`
	} `yaml:"retrieval"`

	Server struct {
		Transport      string `yaml:"transport"`
		HTTPAddr       string `yaml:"http_addr"`
		MetricsEnabled bool   `yaml:"metrics_enabled"`
		MetricsAddr    string `yaml:"metrics_addr"`
	} `yaml:"server"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{DataDir: defaultDataDir()}
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Gmail.LookbackDays = DefaultLookbackDays
	cfg.Gmail.RequestTimeout = DefaultRequestTimeout
	cfg.OpenAI.Model = DefaultModel
	cfg.Classifier.MaxAttempts = DefaultMaxAttempts
	cfg.Classifier.AttemptTimeout = DefaultAttemptTimeout
	cfg.Classifier.RequestsPerSecond = DefaultRequestsPerSecond
	cfg.Classifier.Burst = 1
	cfg.Pipeline.Workers = DefaultWorkers
	cfg.State.Backend = BackendFile
	cfg.State.Valkey.KeyPrefix = DefaultValkeyKeyPrefix
	cfg.Retrieval.TopK = DefaultTopK
	cfg.Server.Transport = "stdio"
	cfg.Server.HTTPAddr = DefaultHTTPAddr
	cfg.Server.MetricsEnabled = true
	cfg.Server.MetricsAddr = DefaultMetricsAddr
	return cfg
}

// DefaultPath returns the config file read when none is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "applytrack", "config.yaml")
}

// Load reads path on top of the defaults and applies environment
// overrides. An empty path reads DefaultPath if it exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal([]byte(expandEnvVars(string(b))), cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir must be set")
	}
	if c.Gmail.LookbackDays <= 0 {
		return fmt.Errorf("gmail.lookback_days must be positive, got %d", c.Gmail.LookbackDays)
	}
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline.workers must be positive, got %d", c.Pipeline.Workers)
	}
	if c.Classifier.MaxAttempts <= 0 {
		return fmt.Errorf("classifier.max_attempts must be positive, got %d", c.Classifier.MaxAttempts)
	}
	switch c.State.Backend {
	case BackendFile:
	case BackendValkey:
		if c.State.Valkey.Addr == "" {
			return errors.New("state.valkey.addr is required for the valkey backend")
		}
	default:
		return fmt.Errorf("unknown state backend %q", c.State.Backend)
	}
	switch c.Server.Transport {
	case "stdio", "streamable-http":
	default:
		return fmt.Errorf("unknown transport %q: must be stdio or streamable-http", c.Server.Transport)
	}
	return nil
}

// Lookback returns the default fetch window.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.Gmail.LookbackDays) * 24 * time.Hour
}

// Path joins name onto DataDir.
func (c *Config) Path(name ...string) string {
	return filepath.Join(append([]string{c.DataDir}, name...)...)
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} with the value of VAR. Unset variables are
// left as written.
func expandEnvVars(content string) string {
	return envRef.ReplaceAllStringFunc(content, func(match string) string {
		if value := os.Getenv(match[2 : len(match)-1]); value != "" {
			return value
		}
		return match
	})
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("APPLYTRACK_DATA_DIR", &cfg.DataDir)
	str("APPLYTRACK_LOG_LEVEL", &cfg.Log.Level)
	str("APPLYTRACK_LOG_FORMAT", &cfg.Log.Format)
	str("APPLYTRACK_GOOGLE_CLIENT_ID", &cfg.Google.ClientID)
	str("APPLYTRACK_GOOGLE_CLIENT_SECRET", &cfg.Google.ClientSecret)
	str("APPLYTRACK_GOOGLE_TOKEN_FILE", &cfg.Google.TokenFile)
	str("OPENAI_API_KEY", &cfg.OpenAI.APIKey)
	str("OPENAI_BASE_URL", &cfg.OpenAI.BaseURL)
	str("APPLYTRACK_OPENAI_MODEL", &cfg.OpenAI.Model)
	str("APPLYTRACK_STATE_BACKEND", &cfg.State.Backend)
	str("APPLYTRACK_VALKEY_ADDR", &cfg.State.Valkey.Addr)
	str("APPLYTRACK_VALKEY_PASSWORD", &cfg.State.Valkey.Password)
	str("APPLYTRACK_TRANSPORT", &cfg.Server.Transport)
	str("APPLYTRACK_HTTP_ADDR", &cfg.Server.HTTPAddr)
	str("APPLYTRACK_METRICS_ADDR", &cfg.Server.MetricsAddr)

	for key, dst := range map[string]*int{
		"APPLYTRACK_LOOKBACK_DAYS": &cfg.Gmail.LookbackDays,
		"APPLYTRACK_WORKERS":       &cfg.Pipeline.Workers,
		"APPLYTRACK_MAX_ATTEMPTS":  &cfg.Classifier.MaxAttempts,
	} {
		if err := integer(key, dst); err != nil {
			return err
		}
	}
	return nil
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "applytrack")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "applytrack-data"
	}
	return filepath.Join(home, ".local", "share", "applytrack")
}
