package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all server configuration
type Config struct {
	Port             int
	RedisURL         string
	RedisPassword    string
	GeminiAPIKey     string
	GeminiModel      string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	PaymentLinkURL   string
	MaxCalls         int
	CallTTL          time.Duration
	ModelTimeout     time.Duration
	SMSTimeout       time.Duration
	KeepAlivePeriod  time.Duration
	AllowedOrigins   []string
}

// LoadConfig loads configuration from environment variables with defaults
func LoadConfig() (*Config, error) {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	config := &Config{
		Port:            8080,
		RedisURL:        "localhost:6379",
		RedisPassword:   "",
		MaxCalls:        100,
		CallTTL:         30 * time.Minute,
		ModelTimeout:    15 * time.Second,
		SMSTimeout:      10 * time.Second,
		KeepAlivePeriod: 30 * time.Second,
		AllowedOrigins:  []string{"*"},
	}

	// Required: GEMINI_API_KEY
	config.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	if config.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	// Required: TWILIO_ACCOUNT_SID
	config.TwilioAccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	if config.TwilioAccountSID == "" {
		return nil, fmt.Errorf("TWILIO_ACCOUNT_SID environment variable is required")
	}

	// Required: TWILIO_AUTH_TOKEN
	config.TwilioAuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	if config.TwilioAuthToken == "" {
		return nil, fmt.Errorf("TWILIO_AUTH_TOKEN environment variable is required")
	}

	// Required: TWILIO_FROM_NUMBER
	config.TwilioFromNumber = os.Getenv("TWILIO_FROM_NUMBER")
	if config.TwilioFromNumber == "" {
		return nil, fmt.Errorf("TWILIO_FROM_NUMBER environment variable is required")
	}

	// Required: PAYMENT_LINK_URL
	config.PaymentLinkURL = os.Getenv("PAYMENT_LINK_URL")
	if config.PaymentLinkURL == "" {
		return nil, fmt.Errorf("PAYMENT_LINK_URL environment variable is required")
	}

	// Optional: GEMINI_MODEL
	config.GeminiModel = os.Getenv("GEMINI_MODEL")

	// Optional: PORT
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		config.Port = p
	}

	// Optional: REDIS_URL
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		config.RedisURL = redisURL
	}

	// Optional: REDIS_PASSWORD
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.RedisPassword = redisPassword
	}

	// Optional: MAX_CALLS
	if maxCalls := os.Getenv("MAX_CALLS"); maxCalls != "" {
		m, err := strconv.Atoi(maxCalls)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_CALLS: %w", err)
		}
		config.MaxCalls = m
	}

	// Optional: CALL_TTL (in minutes)
	if ttl := os.Getenv("CALL_TTL"); ttl != "" {
		t, err := strconv.Atoi(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid CALL_TTL: %w", err)
		}
		config.CallTTL = time.Duration(t) * time.Minute
	}

	// Optional: MODEL_TIMEOUT (in seconds)
	if timeout := os.Getenv("MODEL_TIMEOUT"); timeout != "" {
		t, err := strconv.Atoi(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid MODEL_TIMEOUT: %w", err)
		}
		config.ModelTimeout = time.Duration(t) * time.Second
	}

	// Optional: SMS_TIMEOUT (in seconds)
	if timeout := os.Getenv("SMS_TIMEOUT"); timeout != "" {
		t, err := strconv.Atoi(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid SMS_TIMEOUT: %w", err)
		}
		config.SMSTimeout = time.Duration(t) * time.Second
	}

	// Optional: KEEPALIVE_PERIOD (in seconds)
	if keepalive := os.Getenv("KEEPALIVE_PERIOD"); keepalive != "" {
		k, err := strconv.Atoi(keepalive)
		if err != nil {
			return nil, fmt.Errorf("invalid KEEPALIVE_PERIOD: %w", err)
		}
		config.KeepAlivePeriod = time.Duration(k) * time.Second
	}

	// Optional: ALLOWED_ORIGINS (comma-separated)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = strings.Split(origins, ",")
	}

	return config, nil
}
