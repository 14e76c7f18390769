// Package config defines the configuration envelope recognized by the bot
// core and loads it via viper (env vars, then an optional file).
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var dbNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Config is the full recognized configuration envelope (spec §6).
type Config struct {
	Token string `mapstructure:"token" validate:"required,min=50"`

	DBUser    string `mapstructure:"db_user" validate:"required"`
	DBHost    string `mapstructure:"db_host" validate:"required"`
	DBPort    int    `mapstructure:"db_port" validate:"required,min=1,max=65535"`
	DBName    string `mapstructure:"db_name" validate:"required,max=64"`
	DBPassword string `mapstructure:"db_password"`

	DBPoolSize               int `mapstructure:"db_pool_size" validate:"min=1,max=50"`
	DBTimeoutSeconds         int `mapstructure:"db_timeout" validate:"min=5,max=30"`
	DBCircuitBreakerThreshold int `mapstructure:"db_circuit_breaker_threshold" validate:"min=3,max=20"`

	MaxMemoryMB   int `mapstructure:"max_memory_mb"`
	MaxCPUPercent int `mapstructure:"max_cpu_percent"`

	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute" validate:"min=10,max=1000"`

	TranslationFile string `mapstructure:"translation_file"`

	Debug      bool `mapstructure:"debug"`
	Production bool `mapstructure:"production"`
}

// Defaults applies the spec-mandated defaults before validation.
func Defaults() Config {
	return Config{
		DBPoolSize:                25,
		DBTimeoutSeconds:          15,
		DBCircuitBreakerThreshold: 5,
		RateLimitPerMinute:        100,
	}
}

// Load reads the envelope from environment variables (prefixed GMM_) and an
// optional config file, applying defaults first, then validates it.
// A failed validation is a fatal-config error per spec §7: the caller is
// expected to exit the process.
func Load(configFile string) (Config, error) {
	cfg := Defaults()

	v := viper.New()
	v.SetEnvPrefix("GMM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// AutomaticEnv only reaches keys viper already knows; bind the keys that
	// have no default so Unmarshal sees their GMM_* variables too.
	for _, key := range []string{
		"token", "db_user", "db_host", "db_port", "db_name", "db_password",
		"max_memory_mb", "max_cpu_percent", "translation_file", "debug", "production",
	} {
		_ = v.BindEnv(key)
	}

	v.SetDefault("db_pool_size", cfg.DBPoolSize)
	v.SetDefault("db_timeout", cfg.DBTimeoutSeconds)
	v.SetDefault("db_circuit_breaker_threshold", cfg.DBCircuitBreakerThreshold)
	v.SetDefault("rate_limit_per_minute", cfg.RateLimitPerMinute)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(*os.PathError); !ok {
				return cfg, fmt.Errorf("config: reading %s: %w", configFile, err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate enforces the envelope's per-field constraints (spec §6) and the
// extra db_name charset rule the validator tag set can't express.
func Validate(cfg Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("config: validation: %w", err)
	}
	if !dbNamePattern.MatchString(cfg.DBName) {
		return fmt.Errorf("config: validation: db_name must match [A-Za-z0-9_]+")
	}
	return nil
}
