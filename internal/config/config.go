package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Remote API
	APIBaseURL     string
	RequestTimeout time.Duration

	// Auth behavior
	AuthAutoLogin bool // auto sign-in right after registration
	SecretsDir    string

	// Transaction manager
	UndoWindow time.Duration

	// Offline mirror
	MirrorDBPath string
	SyncInterval time.Duration
	SyncMonths   int // how many trailing months the worker refreshes
}

func Load() *Config {
	cfg := &Config{
		APIBaseURL:     getEnv("API_BASE_URL", "http://127.0.0.1:5000"),
		RequestTimeout: getEnvDuration("API_TIMEOUT", 15*time.Second),

		AuthAutoLogin: getEnvBool("AUTH_AUTO_LOGIN", false),
		SecretsDir:    getEnv("SECRETS_DIR", ""),

		UndoWindow: getEnvDuration("UNDO_WINDOW", 15*time.Second),

		MirrorDBPath: getEnv("MIRROR_DB_PATH", "./data/fintrack.db"),
		SyncInterval: getEnvDuration("SYNC_INTERVAL", 5*time.Minute),
		SyncMonths:   getEnvInt("SYNC_MONTHS", 3),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if u, err := url.Parse(c.APIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
	} else if u.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': missing host", c.APIBaseURL))
	}

	if c.RequestTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be at least 1 second", c.RequestTimeout))
	} else if c.RequestTimeout > 2*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be at most 2 minutes", c.RequestTimeout))
	}

	if c.UndoWindow < time.Second {
		errors = append(errors, fmt.Sprintf("invalid undo window %v: must be at least 1 second", c.UndoWindow))
	} else if c.UndoWindow > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid undo window %v: must be at most 5 minutes", c.UndoWindow))
	}

	if c.MirrorDBPath == "" {
		errors = append(errors, "mirror database path cannot be empty")
	} else {
		dir := filepath.Dir(c.MirrorDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create mirror database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.SyncInterval < 10*time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 10 seconds", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if c.SyncMonths < 1 {
		errors = append(errors, fmt.Sprintf("invalid sync months %d: must be at least 1", c.SyncMonths))
	} else if c.SyncMonths > 36 {
		errors = append(errors, fmt.Sprintf("invalid sync months %d: must be at most 36", c.SyncMonths))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
