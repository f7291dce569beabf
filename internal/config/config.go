package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	UploadBackendLocal = "local"
	UploadBackendS3    = "s3"
)

type Config struct {
	Addr        string
	DatabaseURL string

	PublicDir     string
	UploadDir     string
	UploadBackend string
	MaxUploadMB   int

	S3 S3Config

	NatsURL      string
	OtelEndpoint string

	LogLevel  string
	LogFormat string

	RateLimitMax        int
	RateLimitExpiration int
	CORSAllowOrigins    string
}

// S3Config mirrors the variables the avatar presigner in the user-service reads.
type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	PublicURL    string
}

func Load() (Config, error) {
	cfg := Config{
		Addr:        getenv("USER_ADMIN_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		PublicDir:     getenv("PUBLIC_DIR", "./public"),
		UploadDir:     strings.Trim(getenv("UPLOAD_DIR", "uploads"), "/"),
		UploadBackend: strings.ToLower(getenv("UPLOAD_BACKEND", UploadBackendLocal)),
		MaxUploadMB:   getenvInt("MAX_UPLOAD_MB", 8),

		S3: S3Config{
			Endpoint:     os.Getenv("S3_ENDPOINT"),
			Region:       os.Getenv("AWS_REGION"),
			Bucket:       os.Getenv("S3_BUCKET_NAME"),
			AccessKey:    os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey:    os.Getenv("AWS_SECRET_ACCESS_KEY"),
			UsePathStyle: os.Getenv("S3_USE_PATH_STYLE") == "true",
			PublicURL:    strings.TrimRight(os.Getenv("S3_PUBLIC_URL"), "/"),
		},

		NatsURL:      os.Getenv("NATS_URL"),
		OtelEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),

		RateLimitMax:        getenvInt("RATE_LIMIT_MAX", 100),
		RateLimitExpiration: getenvInt("RATE_LIMIT_EXPIRATION", 60),
		CORSAllowOrigins:    getenv("CORS_ALLOW_ORIGINS", "*"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is not set")
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}

	switch cfg.UploadBackend {
	case UploadBackendLocal:
	case UploadBackendS3:
		if cfg.S3.Bucket == "" {
			return Config{}, fmt.Errorf("S3_BUCKET_NAME is required when UPLOAD_BACKEND=s3")
		}
	default:
		return Config{}, fmt.Errorf("unknown UPLOAD_BACKEND %q", cfg.UploadBackend)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getenvInt falls back on anything that is not a positive integer.
func getenvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
