// Package config loads service settings from the environment and an optional .env file
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings for all binaries; each uses the parts it needs
type Config struct {
	Log struct {
		Level  string
		Format string
	}

	DBPath   string
	HTTPAddr string

	OpenAI struct {
		APIKey string
		Model  string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	ReasoningCacheTTL time.Duration

	TelegramBotToken string

	MQTT struct {
		Broker   string
		ClientID string
		Username string
		Password string
		Topic    string
	}

	LabReportURL    string
	RescoreSchedule string        // cron spec
	RescoreWindow   time.Duration // how far back the batch job rescores
}

// Load reads .env (if present) and then the environment, applying defaults
func Load() (*Config, error) {
	// a missing .env file is fine
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.DBPath = getEnv("DB_PATH", "")
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	cfg.OpenAI.APIKey = getEnv("OPENAI_API_KEY", "")
	cfg.OpenAI.Model = getEnv("OPENAI_MODEL", "gpt-4o")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, err
	}
	cfg.Redis.DB = db
	if cfg.ReasoningCacheTTL, err = time.ParseDuration(getEnv("REASONING_CACHE_TTL", "24h")); err != nil {
		return nil, err
	}

	cfg.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", "")

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "panchayat-water-server")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "panchayat/+/leak")

	cfg.LabReportURL = getEnv("LAB_REPORT_URL", "")
	cfg.RescoreSchedule = getEnv("RESCORE_SCHEDULE", "0 * * * *")
	if cfg.RescoreWindow, err = time.ParseDuration(getEnv("RESCORE_WINDOW", "168h")); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
