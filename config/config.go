package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	SentimentBackendHugot = "hugot"
	SentimentBackendVADER = "vader"
)

type Config struct {
	Env      string
	Port     string
	LogLevel slog.Level

	ModelDir         string
	SentimentBackend string
	SentimentModel   string
	EmotionModel     string
	ABSAModel        string
	EmotionTopK      int

	RateLimitRequests int
	RateLimitWindow   time.Duration

	ValkeyAddress  string
	ValkeyPassword string
	ValkeyTLS      bool

	KafkaBroker       string
	KafkaResultsTopic string

	AWSEndpoint          string
	AWSRegion            string
	DynamoDBResultsTable string

	CORSAllowedOrigins []string
}

// Load reads the process environment. LoadEnv should run first so that values
// from config/envs/.env.<APP_ENV> are visible here.
func Load() Config {
	return Config{
		Env:      getEnv("APP_ENV", "dev"),
		Port:     getEnv("PORT", "8000"),
		LogLevel: parseLevel(getEnv("LOG_LEVEL", "info")),

		ModelDir:         getEnv("MODEL_DIR", "./models"),
		SentimentBackend: strings.ToLower(getEnv("SENTIMENT_BACKEND", SentimentBackendHugot)),
		SentimentModel:   getEnv("SENTIMENT_MODEL", "distilbert-base-uncased-finetuned-sst-2-english"),
		EmotionModel:     getEnv("EMOTION_MODEL", "joeddav/distilbert-base-uncased-go-emotions-stable"),
		ABSAModel:        getEnv("ABSA_MODEL", "yangheng/deberta-v3-base-absa-v1.1"),
		EmotionTopK:      getEnvInt("EMOTION_TOP_K", 3),

		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 5),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		ValkeyAddress:  getEnv("VALKEY_INIT_ADDRESS", ""),
		ValkeyPassword: getEnv("VALKEY_PASSWORD", ""),
		ValkeyTLS:      getEnv("VALKEY_TLS", "") == "true",

		KafkaBroker:       getEnv("KAFKA_BROKER", ""),
		KafkaResultsTopic: getEnv("KAFKA_RESULTS_TOPIC", "sentiment-results"),

		AWSEndpoint:          getEnv("AWS_ENDPOINT", ""),
		AWSRegion:            getEnv("AWS_REGION", "us-west-2"),
		DynamoDBResultsTable: getEnv("DYNAMODB_RESULTS_TABLE", ""),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		slog.Warn("[Config] Invalid integer, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Int("default", defaultValue))
		return defaultValue
	}
	return n
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		slog.Warn("[Config] Invalid duration, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Duration("default", defaultValue))
		return defaultValue
	}
	return d
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
