package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// Config holds all configuration for the Eldercare Service
type Config struct {
	// JWT configuration - HS256 shared secret
	JWTSecret string
	TokenTTL  time.Duration

	// Database configuration
	DatabaseURL string
	InitSchema  bool

	// Real-time fan-out across replicas, empty RabbitMQURL keeps it in-process
	Broker BrokerConfig

	// Conversation transcript store, empty RedisAddr keeps it in memory
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Assistant backends
	GeminiAPIKey      string
	GeminiModel       string
	GeminiBaseURL     string
	GoogleCredentials string
	STTSampleRate     int32
	STTLanguage       string
	AssistantMaxTurns int

	// Server configuration
	Port               string
	CORSAllowedOrigins []string

	// Logging
	LogLevel  string
	LogFormat string

	// Circuit breaker configuration
	CircuitBreakerMaxRequests uint32
	CircuitBreakerInterval    time.Duration
	CircuitBreakerTimeout     time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	dbURL := os.Getenv("DB_CONNECTION_STRING")
	if dbURL == "" {
		panic("DB_CONNECTION_STRING environment variable is required")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		panic("JWT_SECRET environment variable is required")
	}

	return &Config{
		JWTSecret:   jwtSecret,
		TokenTTL:    envDuration("TOKEN_TTL", 30*24*time.Hour),
		DatabaseURL: dbURL,
		InitSchema:  envString("INIT_SCHEMA", "true") == "true",

		Broker: LoadBrokerConfig(),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       envString("GEMINI_MODEL", "gemini-1.5-pro-latest"),
		GeminiBaseURL:     envString("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GoogleCredentials: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		STTSampleRate:     int32(envInt("STT_SAMPLE_RATE", 16000)),
		STTLanguage:       envString("STT_LANGUAGE", "en-US"),
		AssistantMaxTurns: envInt("ASSISTANT_MAX_TURNS", 10),

		Port:               envString("PORT", "8080"),
		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS", "*"),

		LogLevel:  envString("LOG_LEVEL", "info"),
		LogFormat: envString("LOG_FORMAT", "json"),

		CircuitBreakerMaxRequests: uint32(envInt("CIRCUIT_BREAKER_MAX_REQUESTS", 5)),
		CircuitBreakerInterval:    envDuration("CIRCUIT_BREAKER_INTERVAL", 60*time.Second),
		CircuitBreakerTimeout:     envDuration("CIRCUIT_BREAKER_TIMEOUT", 30*time.Second),
	}
}

// BreakerSettings returns circuit breaker settings for a named dependency.
// The breaker opens after more than five consecutive failures.
func (c *Config) BreakerSettings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: c.CircuitBreakerMaxRequests,
		Interval:    c.CircuitBreakerInterval,
		Timeout:     c.CircuitBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	}
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func envList(key, def string) []string {
	var out []string
	for _, part := range strings.Split(envString(key, def), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
