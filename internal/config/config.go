package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Game server
	ServerWSURL   string
	GameID        int
	RecoveryToken string

	// Experiment definition (optional; built-in schema used when empty)
	ExperimentPath string

	// Session recording
	RecordingPath string

	// Outbound message rate limit (messages per second)
	SendRate float64

	// Telemetry
	LogLevel string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerWSURL:   envStr("GAME_SERVER_WS_URL", "ws://localhost:8765/wss"),
		GameID:        envInt("GAME_ID", 0),
		RecoveryToken: envStr("RECOVERY_TOKEN", ""),

		ExperimentPath: envStr("EXPERIMENT_CONFIG_PATH", ""),

		RecordingPath: envStr("RECORDING_DB_PATH", "data/sessions.db"),

		SendRate: envFloat("SEND_RATE_PER_SEC", 5),

		LogLevel: envStr("LOG_LEVEL", "info"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
