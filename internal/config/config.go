package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"littlebird/internal/domain"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Redis    RedisConfig    `yaml:"redis"`
	API      APIConfig      `yaml:"api"`
	Sync     SyncConfig     `yaml:"sync"`
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	LogLevel string         `yaml:"log_level"`
}

// RabbitMQConfig is optional; an empty URL disables change events.
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

const (
	KeyInHeader = "header"
	KeyInQuery  = "query"
)

type APIConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Key          string        `yaml:"key"`
	KeyLocation  string        `yaml:"key_location"`
	Jurisdiction string        `yaml:"jurisdiction"`
	PageSize     int           `yaml:"page_size"`
	MaxPages     int           `yaml:"max_pages"`
	Timeout      time.Duration `yaml:"timeout"`
	Retry        RetryConfig   `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

const (
	LockNone     = "none"
	LockPostgres = "postgres"
	LockRedis    = "redis"
)

type SyncConfig struct {
	// Interval of zero disables the background scheduler.
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
	Lock     string        `yaml:"lock"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

type HTTPConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

type AuthConfig struct {
	// JWTSecret verifies HS256 access tokens issued by the auth provider.
	JWTSecret string `yaml:"jwt_secret"`
}

// LogConfig enables rotating file output in addition to stdout.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports the first missing credential or connection setting.
func (c *Config) Validate() error {
	if c.API.Key == "" {
		return &domain.ConfigurationError{Field: "api.key", Reason: "required"}
	}
	if c.API.BaseURL == "" {
		return &domain.ConfigurationError{Field: "api.base_url", Reason: "required"}
	}
	if c.API.KeyLocation != KeyInHeader && c.API.KeyLocation != KeyInQuery {
		return &domain.ConfigurationError{Field: "api.key_location", Reason: "must be header or query"}
	}
	if c.Database.Host == "" {
		return &domain.ConfigurationError{Field: "database.host", Reason: "required"}
	}
	if c.Auth.JWTSecret == "" {
		return &domain.ConfigurationError{Field: "auth.jwt_secret", Reason: "required"}
	}
	switch c.Sync.Lock {
	case LockNone, LockPostgres:
	case LockRedis:
		if c.Redis.URL == "" {
			return &domain.ConfigurationError{Field: "redis.url", Reason: "required when sync.lock is redis"}
		}
	default:
		return &domain.ConfigurationError{Field: "sync.lock", Reason: "must be none, postgres or redis"}
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 5 * time.Minute
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "littlebird"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "legislation.changes"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "legislation_changes"
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://v3.openstates.org"
	}
	if c.API.KeyLocation == "" {
		c.API.KeyLocation = KeyInHeader
	}
	if c.API.PageSize == 0 {
		c.API.PageSize = 20
	}
	if c.API.MaxPages == 0 {
		c.API.MaxPages = 5
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 30 * time.Second
	}
	if c.API.Retry.MaxAttempts == 0 {
		c.API.Retry.MaxAttempts = 3
	}
	if c.API.Retry.InitialBackoff == 0 {
		c.API.Retry.InitialBackoff = 1 * time.Second
	}
	if c.API.Retry.MaxBackoff == 0 {
		c.API.Retry.MaxBackoff = 30 * time.Second
	}
	if c.Sync.Timeout == 0 {
		c.Sync.Timeout = 5 * time.Minute
	}
	if c.Sync.Lock == "" {
		c.Sync.Lock = LockNone
	}
	if c.Sync.LockTTL == 0 {
		c.Sync.LockTTL = 10 * time.Minute
	}
	if c.HTTP.Host == "" {
		c.HTTP.Host = "0.0.0.0"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if len(c.HTTP.AllowedOrigins) == 0 {
		c.HTTP.AllowedOrigins = []string{"*"}
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 100
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 28
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
