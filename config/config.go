package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	ListenAddr string
	BadgerDir  string
	BackendURL string // empty disables result reporting
	TotalLaps  int
	Demo       bool // seed a demo race at startup
}

// Load reads .env if present, then the process environment, falling back to
// defaults for anything unset.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file, using process environment")
	}

	return Config{
		ListenAddr: getEnv("F1SIM_LISTEN", "localhost:8080"),
		BadgerDir:  getEnv("F1SIM_BADGER_DIR", "./binaries/badgerdb"),
		BackendURL: getEnv("F1SIM_BACKEND_URL", ""),
		TotalLaps:  getEnvInt("F1SIM_TOTAL_LAPS", 0),
		Demo:       getEnv("F1SIM_DEMO", "") == "1",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid integer env value")
		return fallback
	}
	return n
}
