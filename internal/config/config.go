package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	JWTSecret        string
	MongoURI         string
	DBName           string
	SkipAuth         bool
	Environment      string
	AppId            string
	LogLevel         string
	CORSOrigins      string // Comma separated origins allowed to call the API
	ReminderEnabled  bool
	ReminderSchedule string // Standard 5-field cron expression for the pending-approval sweep
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		JWTSecret:        getEnv("JWT_SECRET", "secret"),
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		DBName:           getEnv("DB_NAME", "go-approvals"),
		SkipAuth:         getEnv("SKIP_AUTH", "false") == "true",
		Environment:      getEnv("ENVIRONMENT", "development"),
		AppId:            getEnv("APP_ID", "go-approvals"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		CORSOrigins:      getEnv("CORS_ORIGINS", "http://localhost:3000"),
		ReminderEnabled:  getEnv("REMINDER_ENABLED", "true") == "true",
		ReminderSchedule: getEnv("REMINDER_SCHEDULE", "0 8 * * *"),
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
