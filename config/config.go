package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	ModeFull     = "full"
	ModeReadOnly = "readonly"

	DataFileName = "dane.json"
	YearFileName = "year.txt"
)

// Config is built once at startup and passed to every component that needs it.
type Config struct {
	EditToken      string
	EditMode       string
	Port           string
	DataDir        string
	StaticDir      string
	DefaultFile    string
	MaxBodyBytes   int64
	LiveUpdates    bool
	RateLimitRPS   float64
	RateLimitBurst int
	TrustProxy     bool
	LogLevel       string
}

// Load reads an optional .env file and then the process environment.
// The returned bool reports whether a .env file was found.
func Load() (Config, bool, error) {
	loaded := godotenv.Load() == nil
	cfg, err := FromEnv(os.Getenv)
	return cfg, loaded, err
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		EditToken:   get("EDIT_TOKEN", get("EDIT_PASSWORD", "changeme")),
		EditMode:    strings.ToLower(get("EDIT_MODE", ModeFull)),
		Port:        get("PORT", "8000"),
		DataDir:     get("DATA_DIR", "."),
		StaticDir:   get("STATIC_DIR", "."),
		DefaultFile: get("DEFAULT_FILE", "default.json"),
		LogLevel:    get("LOG_LEVEL", "info"),
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return Config{}, fmt.Errorf("invalid PORT %q: %w", cfg.Port, err)
	}

	var err error
	if cfg.MaxBodyBytes, err = strconv.ParseInt(get("MAX_BODY_BYTES", "52428800"), 10, 64); err != nil || cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("invalid MAX_BODY_BYTES %q", getenv("MAX_BODY_BYTES"))
	}
	if cfg.LiveUpdates, err = strconv.ParseBool(get("LIVE_UPDATES", "true")); err != nil {
		return Config{}, fmt.Errorf("invalid LIVE_UPDATES: %w", err)
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(get("RATE_LIMIT_RPS", "0"), 64); err != nil || cfg.RateLimitRPS < 0 {
		return Config{}, fmt.Errorf("invalid RATE_LIMIT_RPS %q", getenv("RATE_LIMIT_RPS"))
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(get("RATE_LIMIT_BURST", "10")); err != nil || cfg.RateLimitBurst < 1 {
		return Config{}, fmt.Errorf("invalid RATE_LIMIT_BURST %q", getenv("RATE_LIMIT_BURST"))
	}
	if cfg.TrustProxy, err = strconv.ParseBool(get("TRUSTED_PROXY", "false")); err != nil {
		return Config{}, fmt.Errorf("invalid TRUSTED_PROXY: %w", err)
	}

	return cfg, nil
}

// ReadOnly reports whether mutations are disabled.
func (c Config) ReadOnly() bool {
	return c.EditMode == ModeReadOnly
}

func (c Config) DataFile() string {
	return filepath.Join(c.DataDir, DataFileName)
}

func (c Config) YearFile() string {
	return filepath.Join(c.DataDir, YearFileName)
}

func (c Config) Addr() string {
	return ":" + c.Port
}
