package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers accepted in STORAGE_DRIVER.
const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

type Config struct {
	AppPort               int           `mapstructure:"APP_PORT"`
	StorageDriver         string        `mapstructure:"STORAGE_DRIVER"`
	DatabasePath          string        `mapstructure:"DATABASE_PATH"`
	RedisAddr             string        `mapstructure:"REDIS_ADDR"`
	RedisKeyPrefix        string        `mapstructure:"REDIS_KEY_PREFIX"`
	GroqAPIURL            string        `mapstructure:"GROQ_API_URL"`
	GroqAPIKey            string        `mapstructure:"GROQ_API_KEY"`
	DefaultModel          string        `mapstructure:"DEFAULT_MODEL"`
	DefaultResponseLength string        `mapstructure:"DEFAULT_RESPONSE_LENGTH"`
	PageAgentURL          string        `mapstructure:"PAGE_AGENT_URL"`
	PageAgentRetries      int           `mapstructure:"PAGE_AGENT_RETRIES"`
	PageAgentRetryDelay   time.Duration `mapstructure:"PAGE_AGENT_RETRY_DELAY"`
	RequestTimeout        time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel              string        `mapstructure:"LOG_LEVEL"`

	// ConfigFile is the .env file that was read, empty when none was found.
	ConfigFile string `mapstructure:"-"`
}

var defaults = map[string]any{
	"APP_PORT":                3000,
	"STORAGE_DRIVER":          StorageSQLite,
	"DATABASE_PATH":           "./data/pagechat.db",
	"REDIS_ADDR":              "localhost:6379",
	"REDIS_KEY_PREFIX":        "pagechat:",
	"GROQ_API_URL":            "https://api.groq.com/openai/v1",
	"GROQ_API_KEY":            "",
	"DEFAULT_MODEL":           "openai/gpt-oss-120b",
	"DEFAULT_RESPONSE_LENGTH": "medium",
	"PAGE_AGENT_URL":          "",
	"PAGE_AGENT_RETRIES":      1,
	"PAGE_AGENT_RETRY_DELAY":  100 * time.Millisecond,
	"REQUEST_TIMEOUT":         60 * time.Second,
	"LOG_LEVEL":               "INFO",
}

// LoadConfig reads .env from the working directory (if present) and the
// environment. Environment variables win over the file.
func LoadConfig() (*Config, error) {
	return load(".", "./backend")
}

func load(paths ...string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName(".env")
	v.SetConfigType("env")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case StorageSQLite, StorageRedis, StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.PageAgentRetries < 0 {
		return fmt.Errorf("PAGE_AGENT_RETRIES must not be negative, got %d", c.PageAgentRetries)
	}
	return nil
}
