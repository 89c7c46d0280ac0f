package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	SslCertPath  string
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string

	GeminiAPIKey string
	EmbedModel   string
	GroqAPIKey   string
	GroqModel    string
	GroqBaseURL  string

	JwtSecret string

	Port           string
	MaxUploadBytes int64
	PreviewTimeout time.Duration
	JobTimeout     time.Duration
	JobRetention   time.Duration
	JobSweepEvery  time.Duration
	IngestWorkers  int

	LogLevel  string
	LogFormat string
}

// LoadConfig loads the environment variables and returns the config.
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		SslCertPath:  getEnv("SSL_CERT_PATH", ""),
		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", "datainsight-uploads"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		EmbedModel:   getEnv("EMBED_MODEL", "text-embedding-004"),
		GroqAPIKey:   getEnv("GROQ_API_KEY", ""),
		GroqModel:    getEnv("GROQ_MODEL", "llama-3.1-8b-instant"),
		GroqBaseURL:  getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),

		JwtSecret: getEnv("JWT_SECRET", ""),

		Port:           getEnv("PORT", "8080"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 50<<20)),
		PreviewTimeout: time.Duration(getEnvInt("PREVIEW_TIMEOUT_SECONDS", 5)) * time.Second,
		JobTimeout:     time.Duration(getEnvInt("JOB_TIMEOUT_SECONDS", 240)) * time.Second,
		JobRetention:   time.Duration(getEnvInt("JOB_RETENTION_MINUTES", 30)) * time.Minute,
		JobSweepEvery:  time.Duration(getEnvInt("JOB_SWEEP_SECONDS", 60)) * time.Second,
		IngestWorkers:  getEnvInt("INGEST_WORKERS", 2),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}
