package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr    string
	ServiceName string
	Env         string

	PaymentVerificationTimeout time.Duration
	ReservationTimeout         time.Duration
	ReaperInterval             time.Duration
	EventThrottleDefault       time.Duration
	AlertExpiryLeadTime        time.Duration

	// SeedDemoData loads a small café catalog on boot for local runs.
	SeedDemoData bool
}

// Load reads configuration from the environment, with .env as a convenience
// for local runs. Missing keys fall back to the documented defaults.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		ServiceName: getenv("SERVICE_NAME", "ringwing-fulfillment"),
		Env:         getenv("ENV", "dev"),

		PaymentVerificationTimeout: time.Duration(getint("PAYMENT_VERIFICATION_TIMEOUT_MINUTES", 120)) * time.Minute,
		ReservationTimeout:         time.Duration(getint("RESERVATION_TIMEOUT_MINUTES", 30)) * time.Minute,
		ReaperInterval:             time.Duration(getint("REAPER_INTERVAL_SECONDS", 60)) * time.Second,
		EventThrottleDefault:       time.Duration(getint("EVENT_THROTTLE_DEFAULT_MS", 1000)) * time.Millisecond,
		AlertExpiryLeadTime:        time.Duration(getint("ALERT_EXPIRY_LEAD_MINUTES", 5)) * time.Minute,

		SeedDemoData: getenv("SEED_DEMO_DATA", "") == "true",
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
