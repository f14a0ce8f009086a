package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port    string `yaml:"port" env:"SERVER_PORT"`
		Mode    string `yaml:"mode" env:"SERVER_MODE"`
		BaseURL string `yaml:"base_url" env:"SERVER_BASE_URL"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`

		Retry struct {
			MaxAttempts int           `yaml:"max_attempts" env:"DB_RETRY_MAX_ATTEMPTS"`
			Interval    time.Duration `yaml:"interval" env:"DB_RETRY_INTERVAL"`
		} `yaml:"retry"`
	} `yaml:"database"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
		CookieSecure          bool   `yaml:"cookie_secure" env:"JWT_COOKIE_SECURE"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Storage struct {
		Driver    string `yaml:"driver" env:"STORAGE_DRIVER"`
		LocalPath string `yaml:"local_path" env:"UPLOAD_DIR"`

		MinIO struct {
			Endpoint   string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
			AccessKey  string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
			SecretKey  string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
			BucketName string `yaml:"bucket_name" env:"MINIO_BUCKET"`
			UseSSL     bool   `yaml:"use_ssl" env:"MINIO_USE_SSL"`
		} `yaml:"minio"`
	} `yaml:"storage"`

	Uploads struct {
		MaxDocumentSize int64 `yaml:"max_document_size" env:"MAX_FILE_SIZE"`
		MaxAvatarSize   int64 `yaml:"max_avatar_size" env:"MAX_AVATAR_SIZE"`
		AvatarDimension int   `yaml:"avatar_dimension" env:"AVATAR_DIMENSION"`
	} `yaml:"uploads"`

	Templates struct {
		Dir string `yaml:"dir" env:"TEMPLATES_DIR"`
	} `yaml:"templates"`

	Redis struct {
		Addr          string        `yaml:"addr" env:"REDIS_ADDR"`
		Password      string        `yaml:"password" env:"REDIS_PASSWORD"`
		DB            int           `yaml:"db" env:"REDIS_DB"`
		LoginAttempts int           `yaml:"login_attempts" env:"LOGIN_RATE_LIMIT"`
		LoginWindow   time.Duration `yaml:"login_window" env:"LOGIN_RATE_WINDOW"`
	} `yaml:"redis"`

	Kafka struct {
		Brokers string `yaml:"brokers" env:"KAFKA_BROKERS"`
		Topic   string `yaml:"topic" env:"KAFKA_TOPIC"`
	} `yaml:"kafka"`

	SMTP struct {
		Host      string `yaml:"host" env:"SMTP_HOST"`
		Port      int    `yaml:"port" env:"SMTP_PORT"`
		Username  string `yaml:"username" env:"SMTP_USERNAME"`
		Password  string `yaml:"password" env:"SMTP_PASSWORD"`
		FromName  string `yaml:"from_name" env:"SMTP_FROM_NAME"`
		FromEmail string `yaml:"from_email" env:"SMTP_FROM_EMAIL"`
		UseTLS    bool   `yaml:"use_tls" env:"SMTP_USE_TLS"`
	} `yaml:"smtp"`

	Seed struct {
		CoordinatorEmail    string `yaml:"coordinator_email" env:"SEED_COORDINATOR_EMAIL"`
		CoordinatorPassword string `yaml:"coordinator_password" env:"SEED_COORDINATOR_PASSWORD"`
		DirectorEmail       string `yaml:"director_email" env:"SEED_DIRECTOR_EMAIL"`
		DirectorPassword    string `yaml:"director_password" env:"SEED_DIRECTOR_PASSWORD"`
	} `yaml:"seed"`
}

// LoadConfig loads configuration from a file, an optional .env file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// A missing .env is the normal case outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "3000"
	config.Server.Mode = "development"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "ojt_tracker"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 2
	config.Database.MaxOpenConns = 10
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"
	config.Database.Retry.MaxAttempts = 0
	config.Database.Retry.Interval = 5 * time.Second

	config.JWT.AccessTokenExpiration = "24h"
	config.JWT.Issuer = "ojt-tracker"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Storage.Driver = "local"
	config.Storage.LocalPath = "uploads"

	config.Uploads.MaxDocumentSize = 5 << 20
	config.Uploads.MaxAvatarSize = 10 << 20
	config.Uploads.AvatarDimension = 256

	config.Templates.Dir = "templates"

	config.Redis.LoginAttempts = 10
	config.Redis.LoginWindow = time.Minute

	config.Kafka.Topic = "ojt.workflow"

	config.SMTP.Port = 587
	config.SMTP.FromName = "OJT Tracker"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	switch strings.ToLower(config.Storage.Driver) {
	case "local":
		if config.Storage.LocalPath == "" {
			return fmt.Errorf("storage local_path is required for the local driver")
		}
	case "minio":
		if config.Storage.MinIO.Endpoint == "" || config.Storage.MinIO.BucketName == "" {
			return fmt.Errorf("minio endpoint and bucket_name are required for the minio driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", config.Storage.Driver)
	}

	if config.Uploads.MaxDocumentSize <= 0 || config.Uploads.MaxAvatarSize <= 0 {
		return fmt.Errorf("upload size limits must be positive")
	}

	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Mode, "production")
}

// PublicBaseURL returns the externally reachable base URL of the server
func (c *Config) PublicBaseURL() string {
	if c.Server.BaseURL != "" {
		return strings.TrimRight(c.Server.BaseURL, "/")
	}
	return "http://localhost:" + c.Server.Port
}

// KafkaBrokers splits the comma separated broker list
func (c *Config) KafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.Kafka.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}
