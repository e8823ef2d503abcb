package config

import "os"

// Config holds the process-level settings read from the environment.
// REDIS_ADDR is optional: without it the server runs single-instance, with
// no cross-instance event relay.
type Config struct {
	ListenAddr  string
	PostgresDSN string
	RedisAddr   string
}

func Load() *Config {
	return &Config{
		ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
		PostgresDSN: getEnv("POSTGRES_DSN", "host=localhost user=user password=password dbname=skilllinkdb port=5432 sslmode=disable"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
