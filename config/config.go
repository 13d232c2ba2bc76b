package config

import (
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

var loadOnce sync.Once

// Config func to get env value
func Config(key string) string {
	loadOnce.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("no .env file loaded, using process environment")
		}
	})
	return os.Getenv(key)
}

// Default returns the env value or fallback when it is unset.
func Default(key, fallback string) string {
	if value := Config(key); value != "" {
		return value
	}
	return fallback
}

// Int returns the env value parsed as an int, or fallback.
func Int(key string, fallback int) int {
	value, err := strconv.Atoi(Config(key))
	if err != nil {
		return fallback
	}
	return value
}

// Development reports whether the service runs with APP_ENV=development.
func Development() bool {
	return Config("APP_ENV") == "development"
}
