package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC000")
	t.Setenv("TWILIO_AUTH_TOKEN", "token")
	t.Setenv("TWILIO_FROM_NUMBER", "+15559990000")
	t.Setenv("PAYMENT_LINK_URL", "https://pay.example.com/deposit")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.CallTTL != 30*time.Minute {
		t.Errorf("CallTTL = %v, want 30m", cfg.CallTTL)
	}
	if cfg.ModelTimeout != 15*time.Second {
		t.Errorf("ModelTimeout = %v, want 15s", cfg.ModelTimeout)
	}
	if cfg.MaxCalls != 100 {
		t.Errorf("MaxCalls = %d, want 100", cfg.MaxCalls)
	}
}

func TestLoadConfigMissingRequired(t *testing.T) {
	vars := []string{
		"GEMINI_API_KEY",
		"TWILIO_ACCOUNT_SID",
		"TWILIO_AUTH_TOKEN",
		"TWILIO_FROM_NUMBER",
		"PAYMENT_LINK_URL",
	}
	for _, missing := range vars {
		t.Run(missing, func(t *testing.T) {
			setRequired(t)
			t.Setenv(missing, "")

			if _, err := LoadConfig(); err == nil || !strings.Contains(err.Error(), missing) {
				t.Errorf("LoadConfig with %s unset = %v, want error naming it", missing, err)
			}
		})
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("CALL_TTL", "5")
	t.Setenv("MODEL_TIMEOUT", "3")
	t.Setenv("SMS_TIMEOUT", "7")
	t.Setenv("ALLOWED_ORIGINS", "https://ops.example.com,https://dash.example.com")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != 9090 || cfg.CallTTL != 5*time.Minute || cfg.ModelTimeout != 3*time.Second || cfg.SMSTimeout != 7*time.Second {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadConfigInvalidNumbers(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "not-a-number")

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig with a bad PORT succeeded")
	}
}
