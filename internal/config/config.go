package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string
	Environment string
	LogLevel    string

	SessionSecret string
	SessionTTL    time.Duration
	CookieSecure  bool

	RedisAddr string
	RedisDB   int
	RedisPass string

	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string

	StorageDriver string
	StorageBucket string
	SignedURLTTL  time.Duration
	ListLimit     int

	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	MinioEndpoint string
	MinioUseSSL   bool

	ProfileDriver string
	ProfileTable  string
	MySQLDSN      string
	PostgresDSN   string

	CSVDelimiter    rune
	CSVRaggedRows   string
	CSVMaxBytes     int64
	CSVAllowedHosts []string

	HTTPTimeout    time.Duration
	UploadMaxBytes int64
	RateLimitRPS   float64
	SwaggerHost    string
}

// Load builds Config from a .env file, if present, and the environment with sensible defaults.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		SessionSecret: getEnv("SESSION_SECRET", "change-me"),
		SessionTTL:    getEnvDuration("SESSION_TTL", 168*time.Hour),
		CookieSecure:  getEnvBool("COOKIE_SECURE", false),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:   getEnvInt("REDIS_DB", 0),
		RedisPass: os.Getenv("REDIS_PASSWORD"),

		SupabaseURL:        strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
		SupabaseAnonKey:    os.Getenv("SUPABASE_ANON_KEY"),
		SupabaseServiceKey: os.Getenv("SUPABASE_SERVICE_KEY"),

		StorageDriver: getEnv("STORAGE_DRIVER", "supabase"),
		StorageBucket: getEnv("STORAGE_BUCKET", "upload-csv"),
		SignedURLTTL:  getEnvDuration("SIGNED_URL_TTL", 10*time.Minute),
		ListLimit:     getEnvInt("LIST_LIMIT", 100),

		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),

		MinioEndpoint: os.Getenv("MINIO_ENDPOINT"),
		MinioUseSSL:   getEnvBool("MINIO_USE_SSL", true),

		ProfileDriver: getEnv("PROFILE_DRIVER", "supabase"),
		ProfileTable:  getEnv("PROFILE_TABLE", "User"),
		MySQLDSN:      os.Getenv("MYSQL_DSN"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),

		CSVDelimiter:  getEnvRune("CSV_DELIMITER", ';'),
		CSVRaggedRows: getEnv("CSV_RAGGED_ROWS", "keep"),
		CSVMaxBytes:   int64(getEnvInt("CSV_MAX_BYTES", 10<<20)),

		HTTPTimeout:    getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		UploadMaxBytes: int64(getEnvInt("UPLOAD_MAX_BYTES", 10<<20)),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
		SwaggerHost:    os.Getenv("SWAGGER_HOST"),
	}

	cfg.CSVAllowedHosts = getEnvList("CSV_ALLOWED_HOSTS", cfg.storageHosts())
	return cfg
}

// storageHosts derives the hosts signed URLs can point at for the configured driver.
func (c *Config) storageHosts() []string {
	var endpoint string
	switch c.StorageDriver {
	case "s3":
		if c.S3Endpoint == "" {
			return []string{".amazonaws.com"}
		}
		endpoint = c.S3Endpoint
	case "minio":
		endpoint = c.MinioEndpoint
	default:
		endpoint = c.SupabaseURL
	}
	if endpoint == "" {
		return nil
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Hostname() == "" {
		return nil
	}
	return []string{u.Hostname()}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvRune(key string, def rune) rune {
	if v := os.Getenv(key); v != "" {
		r := []rune(v)
		if len(r) == 1 {
			return r[0]
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
