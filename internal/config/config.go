package config

import (
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

const (
	defaultMaxRounds        = 6
	defaultInactivityWindow = 14 * 24 * time.Hour
	defaultSweepCron        = "0 * * * *"
)

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
		DBName:    getEnv("DB_NAME"),
		Port:      getEnv("PORT"),
		ProjectID: getEnv("GCP_PROJECT"),
		Turso: TursoConfig{
			PrimaryURL: getEnvOrDefault("TURSO_PRIMARY_URL", ""),
			AuthToken:  getEnvOrDefault("TURSO_AUTH_TOKEN", ""),
		},
		Slack: SlackConfig{
			Token:     getEnvOrDefault("SLACK_BOT_TOKEN", ""),
			ChannelID: getEnvOrDefault("SLACK_CHANNEL_ID", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Inngest: InngestConfig{
			AppID:      getEnvOrDefault("INNGEST_APP_ID", ""),
			SigningKey: getEnvOrDefault("INNGEST_SIGNING_KEY", ""),
			EventKey:   getEnvOrDefault("INNGEST_EVENT_KEY", ""),
			Dev:        getEnvOrDefault("INNGEST_DEV", "false") == "true",
			SweepCron:  getEnvOrDefault("INNGEST_SWEEP_CRON", defaultSweepCron),
		},
		Auth: AuthConfig{
			JWTSecret: getEnvOrDefault("AUTH_JWT_SECRET", ""),
		},
		Negotiation: NegotiationConfig{
			MaxRounds:        getEnvAsInt("NEGOTIATION_MAX_ROUNDS", defaultMaxRounds),
			InactivityWindow: getEnvAsDuration("THREAD_INACTIVITY_WINDOW", defaultInactivityWindow),
		},
	}
	return cfg
}

func getEnvOrDefault(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw := getEnvOrDefault(key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn("Invalid integer in environment, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnvOrDefault(key, "")
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Warn("Invalid duration in environment, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return value
}
