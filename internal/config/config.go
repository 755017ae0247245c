package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr           string   `yaml:"addr"`            // API bind address
	LogDir         string   `yaml:"log_dir"`         // logs directory
	AllowedOrigins []string `yaml:"allowed_origins"` // CORS allowlist, empty = allow all
	PublicAPIKeys  []string `yaml:"public_api_keys"` // read + run routes
	AdminAPIKeys   []string `yaml:"admin_api_keys"`  // dataset uploads

	// Per-IP rate limits, requests per minute (0 disables).
	PublicRatePerMin int `yaml:"public_rate_per_min"`
	AdminRatePerMin  int `yaml:"admin_rate_per_min"`

	Watch WatchConfig `yaml:"watch"`
}

// WatchConfig drives the optional background watcher that re-runs one
// system against one data file and notifies on health transitions.
type WatchConfig struct {
	System   string        `yaml:"system"`    // empty disables the watcher
	DataFile string        `yaml:"data_file"` // path re-loaded each pass
	Interval time.Duration `yaml:"interval"`
	Cooldown time.Duration `yaml:"cooldown"`
	Webhook  string        `yaml:"webhook"` // Slack-compatible webhook URL
}

func Default() Config {
	return Config{
		Addr:             "127.0.0.1:8080",
		LogDir:           "logs",
		PublicRatePerMin: 120,
		AdminRatePerMin:  30,
		Watch: WatchConfig{
			Interval: time.Minute,
			Cooldown: 15 * time.Minute,
		},
	}
}

// Load builds the config: defaults, then the YAML file (path argument or
// DATADIAG_CONFIG; a missing file is fine), then env overrides on top.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("DATADIAG_CONFIG")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// fall through to env
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	fromEnv(&cfg)
	return cfg, nil
}

func fromEnv(cfg *Config) {
	if v := os.Getenv("ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("PUBLIC_API_KEYS"); v != "" {
		cfg.PublicAPIKeys = splitList(v)
	}
	if v := os.Getenv("ADMIN_API_KEYS"); v != "" {
		cfg.AdminAPIKeys = splitList(v)
	}
	if n, ok := envInt("PUBLIC_RATE_PER_MIN"); ok {
		cfg.PublicRatePerMin = n
	}
	if n, ok := envInt("ADMIN_RATE_PER_MIN"); ok {
		cfg.AdminRatePerMin = n
	}

	if v := os.Getenv("WATCH_SYSTEM"); v != "" {
		cfg.Watch.System = v
	}
	if v := os.Getenv("WATCH_DATA_FILE"); v != "" {
		cfg.Watch.DataFile = v
	}
	if v := os.Getenv("WATCH_WEBHOOK"); v != "" {
		cfg.Watch.Webhook = v
	}
	if d, ok := envDuration("WATCH_INTERVAL"); ok {
		cfg.Watch.Interval = d
	}
	if d, ok := envDuration("WATCH_COOLDOWN"); ok {
		cfg.Watch.Cooldown = d
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func envDuration(name string) (time.Duration, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, false
	}
	return d, true
}
