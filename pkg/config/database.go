package config

import (
	"fmt"
	"time"
)

// DatabaseConfig configures the Postgres connection backing the delivery
// log, template overrides and the profile store.
type DatabaseConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func loadDatabaseConfig(base DatabaseConfig) DatabaseConfig {
	return DatabaseConfig{
		Enabled:         getEnvBool("DB_ENABLED", base.Enabled),
		Host:            getEnv("DB_HOST", orString(base.Host, "localhost")),
		Port:            getEnvInt("DB_PORT", orInt(base.Port, 5432)),
		User:            getEnv("DB_USER", orString(base.User, "postgres")),
		Password:        getEnv("DB_PASSWORD", base.Password),
		Name:            getEnv("DB_NAME", orString(base.Name, "postgres")),
		SSLMode:         getEnv("DB_SSLMODE", orString(base.SSLMode, "disable")),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", orInt(base.MaxOpenConns, 10)),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", orInt(base.MaxIdleConns, 5)),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", orDuration(base.ConnMaxLifetime, 30*time.Minute)),
	}
}
