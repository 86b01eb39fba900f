package config

import "os"

// Config holds all configuration for the service.
type Config struct {
	ServiceName string
	Port        string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	LogLevel    string
}

// Load reads configuration from environment variables with local defaults.
func Load() *Config {
	return &Config{
		ServiceName: getEnv("SERVICE_NAME", "warehouse-orders"),
		Port:        getEnv("PORT", "8000"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBName:      getEnv("DB_NAME", "warehouse_db"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
