package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"storefront/internal/docstore"
	"storefront/internal/media"
	"storefront/pkg/database"
	"storefront/pkg/logger"
)

const envPrefix = "STOREFRONT_"

type AuthConfig struct {
	AdminUser         string
	AdminPasswordHash string
	JWTSecret         string
	JWTIssuer         string
	JWTDuration       time.Duration
}

type AppConfig struct {
	HTTPAddr  string
	TCPAddr   string
	UDPAddr   string
	GRPCAddr  string
	RedisAddr string
	// EventsChannel is the Redis pub/sub channel; empty disables publishing.
	EventsChannel string

	Store docstore.Config
	Media media.Config
	Auth  AuthConfig
	Log   logger.Config
}

// LoadEnvFiles reads .env.local then .env into the process environment.
// Variables already set win. Missing files are fine.
func LoadEnvFiles() error {
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func LoadAppConfig() AppConfig {
	redisAddr := getenv("REDIS_ADDR", "")
	db := database.DefaultConfig()

	return AppConfig{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		TCPAddr:       getenv("TCP_ADDR", ":7070"),
		UDPAddr:       getenv("UDP_ADDR", ":9091"),
		GRPCAddr:      getenv("GRPC_ADDR", ":9090"),
		RedisAddr:     redisAddr,
		EventsChannel: getenv("EVENTS_CHANNEL", "storefront:catalog-events"),
		Store: docstore.Config{
			Driver:        getenv("STORE_DRIVER", db.Driver),
			Database:      db,
			RedisAddr:     redisAddr,
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("REDIS_DB", 0),
			RedisPrefix:   getenv("REDIS_PREFIX", "storefront"),
		},
		Media: media.Config{
			CloudName:    getenv("MEDIA_CLOUD_NAME", ""),
			UploadPreset: getenv("MEDIA_UPLOAD_PRESET", ""),
			APIBase:      getenv("MEDIA_API_BASE", media.DefaultAPIBase),
			Timeout:      getenvDuration("MEDIA_TIMEOUT", 15*time.Second),
		},
		Auth: LoadAuthConfig(),
		Log: logger.Config{
			Level:       getenv("LOG_LEVEL", "info"),
			Development: getenvBool("LOG_DEV", false),
		},
	}
}

func LoadAuthConfig() AuthConfig {
	return AuthConfig{
		AdminUser:         getenv("ADMIN_USER", "admin"),
		AdminPasswordHash: getenv("ADMIN_PASSWORD_HASH", ""),
		// dev default (change for production)
		JWTSecret:   getenv("JWT_SECRET", "dev-secret-change-me"),
		JWTIssuer:   getenv("JWT_ISSUER", "storefront"),
		JWTDuration: time.Duration(getenvInt("JWT_TTL_HOURS", 24)) * time.Hour,
	}
}

// MediaEnabled reports whether enough media settings are present to talk to
// the image host.
func (c AppConfig) MediaEnabled() bool {
	return c.Media.CloudName != "" && c.Media.UploadPreset != ""
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(envPrefix + key)); v != "" {
		return v
	}
	return def
}

// getenvInt falls back to def when the value does not parse.
func getenvInt(key string, def int) int {
	n, err := strconv.Atoi(getenv(key, ""))
	if err != nil {
		return def
	}
	return n
}

func getenvBool(key string, def bool) bool {
	b, err := strconv.ParseBool(getenv(key, ""))
	if err != nil {
		return def
	}
	return b
}

func getenvDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(getenv(key, ""))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
