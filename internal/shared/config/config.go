package config

import (
	"log"
	"os"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port             string
	Env              string
	CORSAllowOrigin  []string
	LogLevel         string
	RecordStore      string
	DatabaseURL      string
	MongoURI         string
	MongoDatabase    string
	ObjectStoreType  string
	LocalStoreDir    string
	PublicBaseURL    string
	AWSRegion        string
	S3Bucket         string
	S3Prefix         string
	SSEKMSKeyID      string
	JWTSecret        string
	JWTTTL           time.Duration
	JWTIssuer        string
	CompletionPolicy string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string

	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

// Load reads configuration from .env files, an optional YAML file named by
// CONFIG_FILE, and environment variables, in increasing order of precedence.
func Load() Config {
	loadEnvFiles(".env", "cmd/.env")

	file, err := readFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Printf("config: %v", err)
	}

	cfg := fromSources(file)
	if cfg.Env == "production" && cfg.RecordStore == "postgres" && cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	return cfg
}

func fromSources(file fileConfig) Config {
	env := normalizeEnv(getEnv("ENV", orDefault(file.Env, "dev")))
	dbURL := getEnv("DATABASE_URL", file.Database.URL)

	return Config{
		Port:             getEnv("PORT", orDefault(file.Port, "8080")),
		Env:              env,
		CORSAllowOrigin:  splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", orDefault(strings.Join(file.CORSAllowOrigins, ","), "http://localhost:5173"))),
		LogLevel:         getEnv("LOG_LEVEL", orDefault(file.LogLevel, "info")),
		RecordStore:      normalizeRecordStore(getEnv("RECORD_STORE", file.RecordStore), dbURL),
		DatabaseURL:      dbURL,
		MongoURI:         getEnv("MONGO_URI", file.Mongo.URI),
		MongoDatabase:    getEnv("MONGO_DATABASE", orDefault(file.Mongo.Database, "clearance")),
		ObjectStoreType:  normalizeStoreType(getEnv("OBJECT_STORE", orDefault(file.ObjectStore.Type, "local"))),
		LocalStoreDir:    getEnv("LOCAL_STORE_DIR", orDefault(file.ObjectStore.LocalDir, "./data")),
		PublicBaseURL:    strings.TrimRight(getEnv("PUBLIC_BASE_URL", file.PublicBaseURL), "/"),
		AWSRegion:        getEnv("AWS_REGION", file.ObjectStore.Region),
		S3Bucket:         getEnv("S3_BUCKET", file.ObjectStore.Bucket),
		S3Prefix:         getEnv("S3_PREFIX", file.ObjectStore.Prefix),
		SSEKMSKeyID:      getEnv("SSE_KMS_KEY_ID", file.ObjectStore.KMSKeyID),
		JWTSecret:        getEnv("JWT_SECRET", file.JWT.Secret),
		JWTTTL:           parseDuration(getEnv("JWT_TTL", orDefault(file.JWT.TTL, "24h")), 24*time.Hour),
		JWTIssuer:        getEnv("JWT_ISSUER", orDefault(file.JWT.Issuer, "clearance-backend")),
		CompletionPolicy: getEnv("CLEARANCE_COMPLETION_POLICY", orDefault(file.CompletionPolicy, "all_previously_false")),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", file.Google.ClientID),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", file.Google.ClientSecret),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", file.Google.RedirectURL),
		UIRedirectURL:      getEnv("UI_REDIRECT_URL", file.Google.UIRedirectURL),

		BootstrapAdminEmail:    getEnv("BOOTSTRAP_ADMIN_EMAIL", ""),
		BootstrapAdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func orDefault(val, def string) string {
	if strings.TrimSpace(val) != "" {
		return val
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseDuration(raw string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "test":
		return "test"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

// normalizeRecordStore picks postgres when only DATABASE_URL is given.
func normalizeRecordStore(raw, dbURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	case "mongo", "mongodb":
		return "mongo"
	case "memory":
		return "memory"
	}
	if strings.TrimSpace(dbURL) != "" {
		return "postgres"
	}
	return "memory"
}
