package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	AuthModeJWT      = "jwt"
	AuthModeFirebase = "firebase"
)

type Config struct {
	Port                    string
	Env                     string
	LogLevel                string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string
	AuthMode                string
	JWTSecret               string
	FirebaseCredentialsPath string
	RequestTimeout          time.Duration
}

// Load reads the configuration from the environment, after loading a .env
// file when one is present.
func Load() (*Config, bool) {
	dotenv := godotenv.Load() == nil

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "socialmedia"),
		AuthMode:                getEnv("AUTH_MODE", AuthModeJWT),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 10*time.Second),
	}, dotenv
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
