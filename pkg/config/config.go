package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port    string
		Env     string
		Timeout time.Duration
		BaseURL string
	}

	// Database configuration
	Database struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
		MaxConns int
		Timeout  time.Duration
	}

	// Redis configuration (response cache and kiosk history snapshots)
	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	// Chatbot widget and client behavior
	Chatbot struct {
		MaxMessageLength int
		MaxRetries       int
		RetryDelay       time.Duration
		RequestTimeout   time.Duration
		HistoryCap       int
		RestoreLimit     int
		HistoryTTL       time.Duration
		QueuePace        time.Duration
		ContextMessages  int
	}

	// Upstream AI assistant service
	AI struct {
		ServiceURL string
		APIKey     string
		Timeout    time.Duration
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
		AllowedOrigins []string
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Response cache settings
	Cache struct {
		Enabled     bool
		TTL         time.Duration
		MaxSize     int
		PurgeWindow time.Duration
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables.
// Uses singleton pattern to ensure only one instance exists
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = &Config{}

		// Server config
		instance.Server.Port = getEnvString("PORT", "5000")
		instance.Server.Env = getEnvString("APP_ENV", "development")
		instance.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)
		instance.Server.BaseURL = getEnvString("BASE_URL", "http://localhost:"+instance.Server.Port)

		// Database config
		instance.Database.Host = getEnvString("DB_HOST", "localhost")
		instance.Database.Port = getEnvString("DB_PORT", "5432")
		instance.Database.User = getEnvString("DB_USER", "postgres")
		instance.Database.Password = getEnvString("DB_PASSWORD", "postgres")
		instance.Database.Name = getEnvString("DB_NAME", "court-website")
		instance.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
		instance.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)
		instance.Database.Timeout = getEnvDuration("DB_TIMEOUT", 5*time.Second)

		// Redis config
		instance.Redis.Addr = getEnvString("REDIS_URL", "")
		instance.Redis.Password = getEnvString("REDIS_PASSWORD", "")
		instance.Redis.DB = getEnvInt("REDIS_DB", 0)

		// Chatbot behavior
		instance.Chatbot.MaxMessageLength = getEnvInt("CHATBOT_MAX_MESSAGE_LENGTH", 2000)
		instance.Chatbot.MaxRetries = getEnvInt("CHATBOT_MAX_RETRIES", 3)
		instance.Chatbot.RetryDelay = getEnvDuration("CHATBOT_RETRY_DELAY", 1*time.Second)
		instance.Chatbot.RequestTimeout = getEnvDuration("CHATBOT_REQUEST_TIMEOUT", 30*time.Second)
		instance.Chatbot.HistoryCap = getEnvInt("CHATBOT_HISTORY_CAP", 50)
		instance.Chatbot.RestoreLimit = getEnvInt("CHATBOT_RESTORE_LIMIT", 10)
		instance.Chatbot.HistoryTTL = getEnvDuration("CHATBOT_HISTORY_TTL", 24*time.Hour)
		instance.Chatbot.QueuePace = getEnvDuration("CHATBOT_QUEUE_PACE", 1*time.Second)
		instance.Chatbot.ContextMessages = getEnvInt("CHATBOT_CONTEXT_MESSAGES", 10)

		// Upstream AI service
		instance.AI.ServiceURL = getEnvString("AI_SERVICE_URL", "")
		instance.AI.APIKey = getEnvString("AI_SERVICE_API_KEY", "")
		instance.AI.Timeout = getEnvDuration("AI_SERVICE_TIMEOUT", 60*time.Second)

		// Security config
		instance.Security.RateLimit = float64(getEnvInt("RATE_LIMIT", 5))
		instance.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)
		instance.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"})

		// Logging config
		instance.Logging.Level = getEnvString("LOG_LEVEL", "info")
		instance.Logging.Format = getEnvString("LOG_FORMAT", "json")

		// Response cache settings
		instance.Cache.Enabled = getEnvBool("CACHE_ENABLED", true)
		instance.Cache.TTL = getEnvDuration("CACHE_TTL", 1*time.Hour)
		instance.Cache.MaxSize = getEnvInt("CACHE_MAX_SIZE", 1000)
		instance.Cache.PurgeWindow = getEnvDuration("CACHE_PURGE_WINDOW", 10*time.Minute)
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
