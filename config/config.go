package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	APIBaseURL     string
	MLBaseURL      string
	SessionDBPath  string
	RequestTimeout time.Duration
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func Load() *Config {
	timeoutSecs, err := strconv.Atoi(getEnv("COMANDA_TIMEOUT_SECONDS", "10"))
	if err != nil || timeoutSecs <= 0 {
		timeoutSecs = 10
	}
	return &Config{
		APIBaseURL:     getEnv("COMANDA_API_URL", "http://localhost:4000"),
		MLBaseURL:      getEnv("COMANDA_ML_URL", "http://localhost:8000"),
		SessionDBPath:  getEnv("COMANDA_SESSION_DB", "comanda.db"),
		RequestTimeout: time.Duration(timeoutSecs) * time.Second,
	}
}
