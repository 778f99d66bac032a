package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("LEDGER_CURRENCY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("expected 24h token ttl, got %s", cfg.TokenTTL)
	}
	if cfg.Currency != "INR" {
		t.Errorf("expected INR, got %s", cfg.Currency)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing jwt secret", map[string]string{"JWT_SECRET": ""}},
		{"bad redis db", map[string]string{"JWT_SECRET": "s", "REDIS_DB": "x"}},
		{"bad token ttl", map[string]string{"JWT_SECRET": "s", "TOKEN_TTL": "soon"}},
		{"negative token ttl", map[string]string{"JWT_SECRET": "s", "TOKEN_TTL": "-1h"}},
		{"bad migrations flag", map[string]string{"JWT_SECRET": "s", "MIGRATIONS_ON_START": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"JWT_SECRET", "REDIS_DB", "TOKEN_TTL", "MIGRATIONS_ON_START"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Errorf("[%s] expected an error", tt.name)
			}
		})
	}
}
