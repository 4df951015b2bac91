package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Database backends selectable with SHOPIFY_DB_TYPE
const (
	DBTypeMongo    = "MONGODB"
	DBTypePostgres = "POSTGRESQL"
	DBTypeMySQL    = "MYSQL"
	DBTypeRedis    = "REDIS"
)

const defaultAPIVersion = "2024-10"

// Config holds the process configuration read from the environment
type Config struct {
	Port     string
	AppURL   string
	LogLevel string

	APIKey        string
	APISecret     string
	APIVersion    string
	APIScopes     string
	WebhookSecret string

	DBType      string
	MongoURL    string
	MongoDBName string
	PostgresURL string
	MySQL       MySQLConfig
	RedisURL    string
}

// MySQLConfig holds the MySQL connection settings
type MySQLConfig struct {
	Host     string
	User     string
	Password string
	Database string
}

// Load reads a .env file when present and builds the configuration
func Load(logger zerolog.Logger) *Config {
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg(".env file not found, using process environment")
	}

	apiSecret := os.Getenv("SHOPIFY_API_SECRET")

	return &Config{
		Port:     getEnv("PORT", "3000"),
		AppURL:   strings.TrimRight(os.Getenv("APP_URL"), "/"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		APIKey:        os.Getenv("SHOPIFY_API_KEY"),
		APISecret:     apiSecret,
		APIVersion:    getEnv("SHOPIFY_API_VERSION", defaultAPIVersion),
		APIScopes:     os.Getenv("SHOPIFY_API_SCOPES"),
		WebhookSecret: getEnv("SHOPIFY_WEBHOOK_SECRET", apiSecret),

		DBType:      strings.ToUpper(getEnv("SHOPIFY_DB_TYPE", DBTypeMongo)),
		MongoURL:    getEnv("SHOPIFY_MONGO_URL", "mongodb://localhost:27017"),
		MongoDBName: getEnv("SHOPIFY_MONGO_DB_NAME", "shopify"),
		PostgresURL: os.Getenv("SHOPIFY_POSTGRESQL_URL"),
		MySQL: MySQLConfig{
			Host:     getEnv("SHOPIFY_MYSQL_HOST", "localhost:3306"),
			User:     os.Getenv("SHOPIFY_MYSQL_USER"),
			Password: os.Getenv("SHOPIFY_MYSQL_PASSWORD"),
			Database: os.Getenv("SHOPIFY_MYSQL_DATABASE"),
		},
		RedisURL: getEnv("SHOPIFY_REDIS_URL", "redis://localhost:6379/0"),
	}
}

// Validate checks the settings every route depends on
func (c *Config) Validate() error {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, "SHOPIFY_API_KEY")
	}
	if c.APISecret == "" {
		missing = append(missing, "SHOPIFY_API_SECRET")
	}
	if c.APIScopes == "" {
		missing = append(missing, "SHOPIFY_API_SCOPES")
	}
	switch c.DBType {
	case DBTypeMongo, DBTypeRedis:
	case DBTypePostgres:
		if c.PostgresURL == "" {
			missing = append(missing, "SHOPIFY_POSTGRESQL_URL")
		}
	case DBTypeMySQL:
		if c.MySQL.User == "" || c.MySQL.Database == "" {
			missing = append(missing, "SHOPIFY_MYSQL_USER/SHOPIFY_MYSQL_DATABASE")
		}
	default:
		return fmt.Errorf("unsupported SHOPIFY_DB_TYPE %q", c.DBType)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Level parses LOG_LEVEL, falling back to info
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
