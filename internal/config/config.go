package config

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

const defaultTournamentTTL = 5 * time.Minute

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	// A helper function to get a required env var. It will fail if the env var is not set.
	getEnv := func(key string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		log.Fatalf("Error: Required environment variable %s is not set.", key)
		return "" // This line is never reached
	}

	cfg := Config{
		DBName: getEnv("DB_NAME"),
		Port:   getEnv("PORT"),
		Turso: TursoConfig{
			PrimaryURL: getEnvOr("TURSO_PRIMARY_URL", ""),
			AuthToken:  getEnvOr("TURSO_AUTH_TOKEN", ""),
		},
		ProjectID: getEnvOr("GCP_PROJECT", ""),
		Slack: SlackConfig{
			Token:     getEnvOr("SLACK_BOT_TOKEN", ""),
			ChannelID: getEnvOr("SLACK_CHANNEL_ID", ""),
		},
		R2: R2Config{
			AccountID:       getEnvOr("R2_ACCOUNT_ID", ""),
			AccessKeyID:     getEnvOr("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnvOr("R2_SECRET_ACCESS_KEY", ""),
			BucketName:      getEnvOr("R2_BUCKET_NAME", ""),
			PublicBaseURL:   getEnvOr("R2_PUBLIC_BASE_URL", ""),
		},
		Payment: PaymentConfig{
			Provider: getEnvOr("PAYMENT_PROVIDER", "stub"),
			Secret:   getEnvOr("PAYMENT_SECRET", "dev-secret"),
		},
		BaseURL:       getEnvOr("BASE_PUBLIC_URL", "http://localhost:"+getEnvOr("PORT", "8080")),
		TournamentTTL: getDurationOr("TOURNAMENT_CACHE_TTL", defaultTournamentTTL),
	}
	return cfg
}

// getEnvOr returns the value of key, or def when it is unset or empty.
func getEnvOr(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}

func getDurationOr(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warn("Ignoring invalid duration", "key", key, "value", raw, "default", def)
		return def
	}
	return d
}
