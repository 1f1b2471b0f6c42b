package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Feeds      FeedConfig
	Poller     PollerConfig
	Appearance AppearanceConfig
	Session    SessionConfig
	JWT        JWTConfig
	CORS       CORSConfig
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type LogConfig struct {
	Level  string
	Format string
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	SnapshotTTL time.Duration
}

// Catalog source kinds
const (
	CatalogSourceHTTP     = "http"
	CatalogSourceDatabase = "database"
	CatalogSourceFile     = "file"
)

type FeedConfig struct {
	CatalogURL          string
	AvailabilityURL     string
	RoomsURL            string
	Timeout             time.Duration
	RetryCount          int
	CatalogSource       string
	CatalogFile         string
	FallbackCatalogFile string
}

type PollerConfig struct {
	LiveInterval    time.Duration
	CatalogInterval time.Duration // 0 fetches the catalog once at start
}

type AppearanceConfig struct {
	File         string
	DefaultColor string
	DefaultImage string
}

type SessionConfig struct {
	TTL time.Duration
}

type JWTConfig struct {
	AccessSecret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

func LoadConfig() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("DB_ENABLED", false),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "rawat_inap"),
		},
		Redis: RedisConfig{
			Addr:        getEnv("REDIS_ADDR", ""),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvAsInt("REDIS_DB", 0),
			SnapshotTTL: getEnvAsDuration("SNAPSHOT_TTL", 24*time.Hour),
		},
		Feeds: FeedConfig{
			CatalogURL:          getEnv("FEED_CATALOG_URL", "http://localhost:3000/api/services?category=rawat-inap"),
			AvailabilityURL:     getEnv("FEED_AVAILABILITY_URL", "http://localhost:3000/api/bed-availability"),
			RoomsURL:            getEnv("FEED_ROOMS_URL", "http://localhost:3000/api/rooms"),
			Timeout:             getEnvAsDuration("FEED_TIMEOUT", 10*time.Second),
			RetryCount:          getEnvAsInt("FEED_RETRY_COUNT", 2),
			CatalogSource:       strings.ToLower(getEnv("CATALOG_SOURCE", CatalogSourceHTTP)),
			CatalogFile:         getEnv("CATALOG_FILE", ""),
			FallbackCatalogFile: getEnv("FALLBACK_CATALOG_FILE", ""),
		},
		Poller: PollerConfig{
			LiveInterval:    getEnvAsDuration("LIVE_POLL_INTERVAL", 60*time.Second),
			CatalogInterval: getEnvAsDuration("CATALOG_POLL_INTERVAL", 0),
		},
		Appearance: AppearanceConfig{
			File:         getEnv("APPEARANCE_FILE", ""),
			DefaultColor: getEnv("DEFAULT_BUILDING_COLOR", "bg-emerald-600"),
			DefaultImage: getEnv("DEFAULT_BUILDING_IMAGE", "/images/rawat-inap/default.jpg"),
		},
		Session: SessionConfig{
			TTL: getEnvAsDuration("SESSION_TTL", 30*time.Minute),
		},
		JWT: JWTConfig{
			AccessSecret: getEnv("JWT_ACCESS_SECRET", "your-access-secret-key"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		},
	}

	return config
}

// Validate reports configuration that cannot work at all.
func (c *Config) Validate() error {
	switch c.Feeds.CatalogSource {
	case CatalogSourceHTTP:
		if c.Feeds.CatalogURL == "" {
			return fmt.Errorf("FEED_CATALOG_URL is required when CATALOG_SOURCE=%s", CatalogSourceHTTP)
		}
	case CatalogSourceDatabase:
		if !c.Database.Enabled {
			return fmt.Errorf("DB_ENABLED must be true when CATALOG_SOURCE=%s", CatalogSourceDatabase)
		}
	case CatalogSourceFile:
		if c.Feeds.CatalogFile == "" {
			return fmt.Errorf("CATALOG_FILE is required when CATALOG_SOURCE=%s", CatalogSourceFile)
		}
	default:
		return fmt.Errorf("unknown CATALOG_SOURCE %q", c.Feeds.CatalogSource)
	}
	if c.Feeds.AvailabilityURL == "" || c.Feeds.RoomsURL == "" {
		return fmt.Errorf("FEED_AVAILABILITY_URL and FEED_ROOMS_URL are required")
	}
	if c.Poller.LiveInterval <= 0 {
		return fmt.Errorf("LIVE_POLL_INTERVAL must be positive")
	}
	return nil
}

// MySQLDSN returns the go-sql-driver DSN for the catalog database.
func (c *DatabaseConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		fmt.Printf("Warning: Invalid duration format '%s' for %s, using default\n", value, key)
		return defaultValue
	}
	return duration
}

func parseOrigins(s string) []string {
	origins := []string{}
	for _, origin := range strings.Split(s, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
