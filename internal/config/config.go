package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Broadcast scopes for attendance notifications.
const (
	ScopeGlobal = "global"
	ScopeRoom   = "room"
)

// S3Config holds settings for an S3-compatible image bucket.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // empty for AWS, set for R2/MinIO
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string // prefix used to build the returned image URL
}

// Config holds the application configuration.
type Config struct {
	ServerPort     int
	AppEnv         string
	LogLevel       string
	AllowedOrigins []string

	DatabaseDriver string // "sqlite" or "mongo"
	DatabasePath   string
	MongoURI       string
	MongoDatabase  string

	JWTSecret     string
	TokenTTL      time.Duration
	GuestTokenTTL time.Duration

	BroadcastScope string
	LockPastEvents bool
	GuestSweepSpec string

	UploadBackend  string // "imgbb", "s3" or empty to disable uploads
	ImgBBAPIKey    string
	MaxUploadBytes int64
	S3             S3Config
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "5000"))
	if err != nil {
		return nil, err
	}
	tokenTTL, err := time.ParseDuration(getEnv("TOKEN_TTL", "72h"))
	if err != nil {
		return nil, err
	}
	guestTTL, err := time.ParseDuration(getEnv("GUEST_TOKEN_TTL", "6h"))
	if err != nil {
		return nil, err
	}
	maxUpload, err := strconv.ParseInt(getEnv("MAX_UPLOAD_BYTES", "10485760"), 10, 64)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:     port,
		AppEnv:         getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),

		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite"),
		DatabasePath:   getEnv("DATABASE_PATH", "./eventhub.db"),
		MongoURI:       getEnv("MONGO_URL", "mongodb://localhost:27017"),
		MongoDatabase:  getEnv("MONGO_DATABASE", "eventhub"),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		TokenTTL:      tokenTTL,
		GuestTokenTTL: guestTTL,

		BroadcastScope: getEnv("BROADCAST_SCOPE", ScopeGlobal),
		LockPastEvents: getEnvBool("LOCK_PAST_EVENTS", false),
		GuestSweepSpec: getEnv("GUEST_SWEEP_SCHEDULE", "@every 1h"),

		UploadBackend:  getEnv("UPLOAD_BACKEND", "imgbb"),
		ImgBBAPIKey:    os.Getenv("IMGBB_API_KEY"),
		MaxUploadBytes: maxUpload,
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "auto"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			PublicURL:       os.Getenv("S3_PUBLIC_URL"),
		},
	}
	return cfg, cfg.Validate()
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	switch c.DatabaseDriver {
	case "sqlite", "mongo":
	default:
		return errors.New("DATABASE_DRIVER must be sqlite or mongo")
	}
	switch c.BroadcastScope {
	case ScopeGlobal, ScopeRoom:
	default:
		return errors.New("BROADCAST_SCOPE must be global or room")
	}
	return nil
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
