package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DataStoreSupabase = "supabase"
	DataStorePostgres = "postgres"
)

type Config struct {
	Port               string
	AppEnv             string
	DataStore          string
	SupabaseURL        string
	SupabaseAnonKey    string
	DBUrl              string
	JWTSecret          string
	ClientCookieSecret string
	RedisURL           string
	LogLevel           string
	LogFile            string
	AllowOrigins       string
	EnableDocs         bool
	ProvisionMaxWait   time.Duration
	ClientIdleTTL      time.Duration
	AccessTokenTTL     time.Duration
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		AppEnv:             normalizeEnv(getEnv("APP_ENV", "production")),
		DataStore:          strings.ToLower(strings.TrimSpace(getEnv("DATA_STORE", DataStoreSupabase))),
		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		DBUrl:              getEnv("DB_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		ClientCookieSecret: getEnv("CLIENT_COOKIE_SECRET", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFile:            getEnv("LOG_FILE", ""),
		AllowOrigins:       getEnv("ALLOW_ORIGINS", "*"),
		EnableDocs:         getEnvBool("ENABLE_API_DOCS", false),
		ProvisionMaxWait:   getEnvDuration("PROVISION_MAX_WAIT", 5*time.Second),
		ClientIdleTTL:      getEnvDuration("CLIENT_IDLE_TTL", 30*time.Minute),
		AccessTokenTTL:     getEnvDuration("ACCESS_TOKEN_TTL", time.Hour),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected data store has its credentials.
func (c *Config) Validate() error {
	if c.ClientCookieSecret == "" {
		return fmt.Errorf("CLIENT_COOKIE_SECRET is required")
	}
	switch c.DataStore {
	case DataStoreSupabase:
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_ANON_KEY are required for DATA_STORE=%s", c.DataStore)
		}
	case DataStorePostgres:
		if c.DBUrl == "" {
			return fmt.Errorf("DB_URL is required for DATA_STORE=%s", c.DataStore)
		}
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required for DATA_STORE=%s", c.DataStore)
		}
	default:
		return fmt.Errorf("unknown DATA_STORE %q", c.DataStore)
	}
	if c.ProvisionMaxWait <= 0 || c.ClientIdleTTL <= 0 || c.AccessTokenTTL <= 0 {
		return fmt.Errorf("PROVISION_MAX_WAIT, CLIENT_IDLE_TTL and ACCESS_TOKEN_TTL must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		log.Printf("Invalid duration for %s: %q, using %s", key, value, fallback)
		return fallback
	}
	return d
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) DocsEnabled() bool {
	return c != nil && c.EnableDocs && c.AppEnv == "development"
}

// SecureCookies reports whether cookies should be marked Secure.
func (c *Config) SecureCookies() bool {
	return c != nil && c.AppEnv != "development" && c.AppEnv != "test"
}
