package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Quotes   Quotes   `mapstructure:"quotes"`
	Trading  Trading  `mapstructure:"trading"`
	Logger   Logger   `mapstructure:"logger"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the ledger store.
// Driver is "postgres" or "memory"; the memory store is for development
// and tests only.
type Database struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// Quotes holds the configuration for the quote provider. With an empty
// Token the simulated provider is used instead of the HTTP client.
type Quotes struct {
	BaseURL        string  `mapstructure:"base_url"`
	Token          string  `mapstructure:"token"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Trading holds the business defaults.
type Trading struct {
	StartingCash float64 `mapstructure:"starting_cash"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from an optional config file and from
// environment variables. A missing config file is not an error; every key
// has a default.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.driver", "postgres")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.user", "trader")
	viper.SetDefault("database.password", "trading123")
	viper.SetDefault("database.name", "trading_db")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("quotes.base_url", "https://cloud.iexapis.com/stable")
	viper.SetDefault("quotes.token", "")
	viper.SetDefault("quotes.rate_limit", 10) // requests per second
	viper.SetDefault("quotes.rate_limit_burst", 5)
	viper.SetDefault("trading.starting_cash", 10000.00)
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")

	if err = viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	return
}
