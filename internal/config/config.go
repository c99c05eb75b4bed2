package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"
)

func init() {
	// Auto-load .env file if present (don't override existing env vars)
	loadDotEnv(".env")
}

func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		// Remove surrounding quotes
		if len(val) >= 2 && ((val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'')) {
			val = val[1 : len(val)-1]
		}
		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

const (
	defaultPort        = "4600"
	defaultEnvironment = "development"

	defaultAutoMigrate = true

	defaultDetectWatchEnabled      = false
	defaultDetectWatchPollInterval = 15 * time.Minute
)

// DetectWatchConfig controls the background worker that periodically re-runs
// competitor-data detection and broadcasts availability changes. CronExpr,
// when set, takes precedence over the plain interval.
type DetectWatchConfig struct {
	Enabled      bool
	PollInterval time.Duration
	CronExpr     string
	Timezone     string
}

type Config struct {
	Port        string
	DatabaseURL string
	Environment string
	AdminToken  string
	AutoMigrate bool
	DetectWatch DetectWatchConfig
}

func Load() (Config, error) {
	cfg := Config{
		Port:        firstNonEmpty(strings.TrimSpace(os.Getenv("PORT")), defaultPort),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Environment: resolveEnvironment(),
		AdminToken:  strings.TrimSpace(os.Getenv("SEARCHLIGHT_ADMIN_TOKEN")),
	}

	autoMigrate, err := parseBool("SEARCHLIGHT_AUTO_MIGRATE", defaultAutoMigrate)
	if err != nil {
		return Config{}, err
	}
	cfg.AutoMigrate = autoMigrate

	detectWatchEnabled, err := parseBool("SEARCHLIGHT_DETECT_WATCH_ENABLED", defaultDetectWatchEnabled)
	if err != nil {
		return Config{}, err
	}
	cfg.DetectWatch.Enabled = detectWatchEnabled

	detectWatchInterval, err := parseDuration("SEARCHLIGHT_DETECT_WATCH_INTERVAL", defaultDetectWatchPollInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.DetectWatch.PollInterval = detectWatchInterval
	cfg.DetectWatch.CronExpr = strings.TrimSpace(os.Getenv("SEARCHLIGHT_DETECT_WATCH_SCHEDULE"))
	cfg.DetectWatch.Timezone = strings.TrimSpace(os.Getenv("SEARCHLIGHT_DETECT_WATCH_TZ"))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.DetectWatch.Enabled && c.DetectWatch.PollInterval <= 0 {
		return fmt.Errorf("SEARCHLIGHT_DETECT_WATCH_INTERVAL must be greater than zero")
	}

	if !isNonDevelopment(c.Environment) {
		return nil
	}

	if c.AdminToken == "" {
		return fmt.Errorf("SEARCHLIGHT_ADMIN_TOKEN is required in non-development environments")
	}

	return nil
}

func resolveEnvironment() string {
	return strings.ToLower(firstNonEmpty(
		strings.TrimSpace(os.Getenv("APP_ENV")),
		strings.TrimSpace(os.Getenv("ENVIRONMENT")),
		strings.TrimSpace(os.Getenv("GO_ENV")),
		strings.TrimSpace(os.Getenv("RAILWAY_ENVIRONMENT")),
		defaultEnvironment,
	))
}

func isNonDevelopment(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "dev", "development", "local", "test":
		return false
	default:
		return true
	}
}

func parseBool(name string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return defaultValue, nil
	}

	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s must be a boolean value", name)
	}
}

func parseDuration(name string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return defaultValue, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", name, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than zero", name)
	}

	return parsed, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
