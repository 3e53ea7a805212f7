package config

import (
	"fmt"
	"time"
)

// RedisConfig configures the optional template-override cache.
type RedisConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	Password         string        `yaml:"password"`
	DB               int           `yaml:"db"`
	TemplateCacheTTL time.Duration `yaml:"template_cache_ttl"`
}

// Address returns host:port.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func loadRedisConfig(base RedisConfig) RedisConfig {
	return RedisConfig{
		Enabled:          getEnvBool("REDIS_ENABLED", base.Enabled),
		Host:             getEnv("REDIS_HOST", orString(base.Host, "localhost")),
		Port:             getEnvInt("REDIS_PORT", orInt(base.Port, 6379)),
		Password:         getEnv("REDIS_PASSWORD", base.Password),
		DB:               getEnvInt("REDIS_DB", base.DB),
		TemplateCacheTTL: getEnvDuration("TEMPLATE_CACHE_TTL", base.TemplateCacheTTL),
	}
}
