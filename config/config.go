package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	MongoDBURI    string
	DBName        string
	Port          string
	JWTSecret     string
	RedisAddr     string
	RedisPassword string
	AllowedOrigin string
	Env           string

	// Reclamation sweeper knobs. A room is considered inactive when its
	// lastActivity is older than InactiveThreshold; the sweep fires every
	// SweepInterval with SweepTimeout as its run budget.
	InactiveThreshold time.Duration
	SweepInterval     time.Duration
	SweepTimeout      time.Duration

	// Rate limiting for auth and message-send routes.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// LoadConfig loads configuration from environment variables, falling
// back to a .env file and then to defaults.
func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	cfg := &Config{
		MongoDBURI:         getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:             getEnv("DB_NAME", "animal_chat_db"),
		Port:               getEnv("PORT", "8080"),
		JWTSecret:          getEnv("JWT_SECRET", "dev-secret-change-me"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		AllowedOrigin:      getEnv("ALLOWED_ORIGIN", "http://localhost:5173"),
		Env:                getEnv("APP_ENV", "dev"),
		InactiveThreshold:  time.Duration(getEnvInt("INACTIVE_THRESHOLD_MINUTES", 4320)) * time.Minute,
		SweepInterval:      time.Duration(getEnvInt("SWEEP_INTERVAL_HOURS", 24)) * time.Hour,
		SweepTimeout:       time.Duration(getEnvInt("SWEEP_TIMEOUT_MINUTES", 9)) * time.Minute,
		RateLimitPerSecond: getEnvFloat("RATE_LIMIT_PER_SECOND", 5),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 10),
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Invalid value for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("Invalid value for %s, using default %g", key, defaultValue)
	}
	return defaultValue
}
