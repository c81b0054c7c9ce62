package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.APIBaseURL != "http://127.0.0.1:5000" {
		t.Fatalf("default API base URL = %s", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Fatalf("default request timeout = %v", cfg.RequestTimeout)
	}
	if cfg.AuthAutoLogin {
		t.Fatalf("auto login should default to off")
	}
	if cfg.UndoWindow != 15*time.Second {
		t.Fatalf("default undo window = %v", cfg.UndoWindow)
	}
	if cfg.SyncMonths != 3 {
		t.Fatalf("default sync months = %d", cfg.SyncMonths)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://finance.example.com")
	t.Setenv("API_TIMEOUT", "5s")
	t.Setenv("AUTH_AUTO_LOGIN", "true")
	t.Setenv("UNDO_WINDOW", "30s")
	t.Setenv("SYNC_MONTHS", "6")

	cfg := Load()
	if cfg.APIBaseURL != "https://finance.example.com" {
		t.Fatalf("API base URL = %s", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("request timeout = %v", cfg.RequestTimeout)
	}
	if !cfg.AuthAutoLogin {
		t.Fatalf("auto login should be on")
	}
	if cfg.UndoWindow != 30*time.Second {
		t.Fatalf("undo window = %v", cfg.UndoWindow)
	}
	if cfg.SyncMonths != 6 {
		t.Fatalf("sync months = %d", cfg.SyncMonths)
	}
}

func TestLoadIgnoresMalformedEnv(t *testing.T) {
	t.Setenv("API_TIMEOUT", "soon")
	t.Setenv("SYNC_MONTHS", "many")
	t.Setenv("AUTH_AUTO_LOGIN", "sure")

	cfg := Load()
	if cfg.RequestTimeout != 15*time.Second {
		t.Fatalf("malformed timeout should fall back, got %v", cfg.RequestTimeout)
	}
	if cfg.SyncMonths != 3 {
		t.Fatalf("malformed sync months should fall back, got %d", cfg.SyncMonths)
	}
	if cfg.AuthAutoLogin {
		t.Fatalf("malformed bool should fall back to off")
	}
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "bad URL scheme",
			mutate:  func(c *Config) { c.APIBaseURL = "ftp://example.com" },
			wantSub: "scheme",
		},
		{
			name:    "missing host",
			mutate:  func(c *Config) { c.APIBaseURL = "http://" },
			wantSub: "missing host",
		},
		{
			name:    "timeout too small",
			mutate:  func(c *Config) { c.RequestTimeout = 100 * time.Millisecond },
			wantSub: "request timeout",
		},
		{
			name:    "undo window too large",
			mutate:  func(c *Config) { c.UndoWindow = time.Hour },
			wantSub: "undo window",
		},
		{
			name:    "empty mirror path",
			mutate:  func(c *Config) { c.MirrorDBPath = "" },
			wantSub: "mirror database path",
		},
		{
			name:    "sync interval too small",
			mutate:  func(c *Config) { c.SyncInterval = time.Second },
			wantSub: "sync interval",
		},
		{
			name:    "sync months zero",
			mutate:  func(c *Config) { c.SyncMonths = 0 },
			wantSub: "sync months",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Load()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestValidateCollectsMultipleErrors(t *testing.T) {
	cfg := Load()
	cfg.APIBaseURL = "bogus"
	cfg.SyncMonths = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if strings.Count(err.Error(), "\n- ") < 2 {
		t.Fatalf("expected multiple collected errors, got %q", err)
	}
}
