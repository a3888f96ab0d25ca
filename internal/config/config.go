package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	StorageDriverLocal = "local"
	StorageDriverOSS   = "oss"
)

// DefaultConfigPath is used when CONFIG_PATH is not set.
const DefaultConfigPath = "configs/config.yaml"

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port               string   `yaml:"port" env:"PORT"`
		Mode               string   `yaml:"mode" env:"SERVER_MODE"`
		RequestTimeout     string   `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
		ReadTimeout        string   `yaml:"read_timeout" env:"READ_TIMEOUT"`
		WriteTimeout       string   `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
		ShutdownTimeout    string   `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
		MaxUploadSize      int64    `yaml:"max_upload_size" env:"MAX_UPLOAD_SIZE"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	} `yaml:"server"`

	Database struct {
		URL             string `yaml:"url" env:"DATABASE_URL"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrateOnStart  bool   `yaml:"migrate_on_start" env:"DB_MIGRATE_ON_START"`
		SeedOnStart     bool   `yaml:"seed_on_start" env:"DB_SEED_ON_START"`
		LogQueries      bool   `yaml:"log_queries" env:"DB_LOG_QUERIES"`
	} `yaml:"database"`

	Storage struct {
		Driver        string `yaml:"driver" env:"STORAGE_DRIVER"`
		Bucket        string `yaml:"bucket" env:"STORAGE_BUCKET"`
		LocalPath     string `yaml:"local_path" env:"STORAGE_LOCAL_PATH"`
		PublicBaseURL string `yaml:"public_base_url" env:"STORAGE_PUBLIC_BASE_URL"`

		OSS struct {
			Endpoint      string `yaml:"endpoint" env:"ALI_OSS_ENDPOINT"`
			AccessKey     string `yaml:"access_key" env:"ALI_OSS_ACCESS_KEY"`
			SecretKey     string `yaml:"secret_key" env:"ALI_OSS_SECRET_KEY"`
			SecurityToken string `yaml:"security_token" env:"ALI_OSS_SECURITY_TOKEN"`
		} `yaml:"oss"`
	} `yaml:"storage"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// Load resolves the config path from CONFIG_PATH and loads it. A .env file in the
// working directory, if present, is applied to the process environment first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return LoadConfig(GetEnv("CONFIG_PATH", DefaultConfigPath))
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	// The file is optional; env alone is enough in container deployments.
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := processStructFields(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "3014"
	config.Server.Mode = "development"
	config.Server.RequestTimeout = "15s"
	config.Server.ReadTimeout = "10s"
	config.Server.WriteTimeout = "20s"
	config.Server.ShutdownTimeout = "10s"
	config.Server.MaxUploadSize = 5 << 20
	config.Server.CORSAllowedOrigins = []string{"*"}

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "roster"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 2
	config.Database.MaxOpenConns = 10
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrateOnStart = true

	config.Storage.Driver = StorageDriverLocal
	config.Storage.Bucket = "student-images"
	config.Storage.LocalPath = "uploads"

	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if strings.TrimSpace(config.Server.Port) == "" {
		return fmt.Errorf("server port is required")
	}

	durations := map[string]string{
		"server.request_timeout":     config.Server.RequestTimeout,
		"server.read_timeout":        config.Server.ReadTimeout,
		"server.write_timeout":       config.Server.WriteTimeout,
		"server.shutdown_timeout":    config.Server.ShutdownTimeout,
		"database.conn_max_lifetime": config.Database.ConnMaxLifetime,
	}
	for key, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", key, err)
		}
	}

	if config.Server.MaxUploadSize <= 0 {
		return fmt.Errorf("server.max_upload_size must be positive")
	}

	if config.Database.URL == "" && config.Database.Host == "" {
		return fmt.Errorf("database url or host is required")
	}

	switch config.Storage.Driver {
	case StorageDriverLocal:
		if config.Storage.LocalPath == "" {
			return fmt.Errorf("storage.local_path is required for the local driver")
		}
	case StorageDriverOSS:
		oss := config.Storage.OSS
		if oss.Endpoint == "" || oss.AccessKey == "" || oss.SecretKey == "" || config.Storage.Bucket == "" {
			return fmt.Errorf("oss driver requires endpoint, access key, secret key and bucket")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", config.Storage.Driver)
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string. DATABASE_URL wins
// over the discrete fields when set.
func (c *Config) GetPostgresConnectionString() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}

	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		url.QueryEscape(c.Database.User),
		url.QueryEscape(c.Database.Password),
		net.JoinHostPort(c.Database.Host, c.Database.Port),
		c.Database.DBName,
		sslMode,
	)
}

// Duration parses one of the validated duration fields.
func Duration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
