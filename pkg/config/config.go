package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Mail     MailConfig     `yaml:"mail"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port        string `yaml:"port"`
	CORSOrigins string `yaml:"cors_origins"`
	Version     string `yaml:"version"`
	Debug       bool   `yaml:"debug"`
}

// Load reads a .env file when present, then the YAML file named by
// CONFIG_FILE as the base layer, then environment variables on top.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.Server = loadServerConfig(cfg.Server)
	cfg.Database = loadDatabaseConfig(cfg.Database)
	cfg.Redis = loadRedisConfig(cfg.Redis)
	cfg.Mail = loadMailConfig(cfg.Mail)
	cfg.Storage = loadStorageConfig(cfg.Storage)
	cfg.Auth = loadAuthConfig(cfg.Auth)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the container cannot wire.
func (c *Config) Validate() error {
	switch c.Mail.Transport {
	case "smtp", "ses", "console":
	default:
		return fmt.Errorf("config: unknown MAIL_TRANSPORT %q (use smtp, ses or console)", c.Mail.Transport)
	}
	switch c.Storage.TemplateStorage {
	case "local", "s3":
	default:
		return fmt.Errorf("config: unknown TEMPLATE_STORAGE %q (use local or s3)", c.Storage.TemplateStorage)
	}
	if c.Storage.TemplateStorage == "s3" && c.Storage.TemplateBucket == "" {
		return fmt.Errorf("config: TEMPLATE_BUCKET is required when TEMPLATE_STORAGE=s3")
	}
	if c.Mail.MaxAttempts < 0 {
		return fmt.Errorf("config: MAIL_MAX_ATTEMPTS must not be negative")
	}
	return nil
}

func loadServerConfig(base ServerConfig) ServerConfig {
	return ServerConfig{
		Port:        getEnv("PORT", orString(base.Port, "3001")),
		CORSOrigins: getEnv("CORS_ORIGINS", orString(base.CORSOrigins, "*")),
		Version:     getEnv("APP_VERSION", orString(base.Version, "1.0.0")),
		Debug:       getEnvBool("DEBUG", base.Debug),
	}
}

// ---------------------------------------------------------------------------
// env helpers
// ---------------------------------------------------------------------------

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := getEnv(key, ""); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	switch strings.ToLower(getEnv(key, "")) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return fallback
	}
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := getEnv(key, ""); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func orString(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func orInt(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}

func orDuration(v, fallback time.Duration) time.Duration {
	if v != 0 {
		return v
	}
	return fallback
}
