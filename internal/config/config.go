package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// RedisConfig holds the connection settings of the token revocation store.
// An empty URL selects the in-process store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RabbitMQConfig holds the outbound mail queue settings.
// An empty URL makes the mailer log messages instead of publishing them.
type RabbitMQConfig struct {
	URL   string
	Queue string
}

// AuthConfig controls token signing, lifetimes and auth cookies.
type AuthConfig struct {
	JWTSecret          string
	Issuer             string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	ActivationTokenTTL time.Duration
	ResetTokenTTL      time.Duration
	CookieSecure       bool
	CookieDomain       string
}

// SurveyConfig holds survey lifecycle defaults.
type SurveyConfig struct {
	// DefaultOpenDays is the window applied when an instance is opened without an explicit closure date.
	DefaultOpenDays int
	ReportURLExpiry time.Duration
	PublicBaseURL   string
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string
	Format string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost     string
	Port        string
	FrontendURL string
	RolesFile   string
	Database    DatabaseConfig
	MinIO       MinIOConfig
	Redis       RedisConfig
	RabbitMQ    RabbitMQConfig
	Auth        AuthConfig
	Survey      SurveyConfig
	Log         LogConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	appHost := getEnv("APP_HOST", "localhost:8080")
	return &AppConfig{
		AppHost:     appHost,
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://127.0.0.1:5173"),
		RolesFile:   getEnv("ROLES_FILE", ""),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Redis: RedisConfig{
			URL:          getEnv("REDIS_URL", ""),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		RabbitMQ: RabbitMQConfig{
			URL:   getEnv("RABBITMQ_URL", ""),
			Queue: getEnv("MAIL_QUEUE", "surveyapi.mail"),
		},
		Auth: AuthConfig{
			// JWT_SECRET must be set outside development.
			JWTSecret:          getEnv("JWT_SECRET", "dev-secret-change-me"),
			Issuer:             getEnv("JWT_ISSUER", "surveyapi"),
			AccessTokenTTL:     getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTokenTTL:    getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
			ActivationTokenTTL: getEnvDuration("ACTIVATION_TOKEN_TTL", 72*time.Hour),
			ResetTokenTTL:      getEnvDuration("RESET_TOKEN_TTL", time.Hour),
			CookieSecure:       getEnvBool("COOKIE_SECURE", false),
			CookieDomain:       getEnv("COOKIE_DOMAIN", ""),
		},
		Survey: SurveyConfig{
			DefaultOpenDays: getEnvInt("INSTANCE_DEFAULT_OPEN_DAYS", 30),
			ReportURLExpiry: getEnvDuration("REPORT_URL_EXPIRY", 15*time.Minute),
			PublicBaseURL:   getEnv("PUBLIC_BASE_URL", "http://"+appHost),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// RoleDefinition describes one role entry of the roles file.
type RoleDefinition struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// RoleDefinitions models the structure of the YAML roles file.
type RoleDefinitions struct {
	Roles []RoleDefinition `yaml:"roles"`
}

// DefaultRoles are seeded when no roles file is configured.
var DefaultRoles = []RoleDefinition{
	{Name: "admin", Description: "Platform administrator"},
	{Name: "client", Description: "Creates and publishes surveys"},
	{Name: "voter", Description: "Answers published surveys"},
}

// LoadRoles reads role definitions from path. An empty path returns DefaultRoles.
func LoadRoles(path string) ([]RoleDefinition, error) {
	if path == "" {
		return DefaultRoles, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roles file: %w", err)
	}
	var defs RoleDefinitions
	if err := yaml.Unmarshal(content, &defs); err != nil {
		return nil, fmt.Errorf("parse roles file: %w", err)
	}
	for i, r := range defs.Roles {
		if r.Name == "" {
			return nil, fmt.Errorf("roles file: entry %d has no name", i)
		}
		if len(r.Name) > 20 {
			return nil, fmt.Errorf("roles file: role %q exceeds 20 characters", r.Name)
		}
	}
	if len(defs.Roles) == 0 {
		return DefaultRoles, nil
	}
	return defs.Roles, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
