package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Logger   Logger   `mapstructure:"logger"`
	Quote    Quote    `mapstructure:"quote"`
	Redis    Redis    `mapstructure:"redis"`
	Session  Session  `mapstructure:"session"`
	Trading  Trading  `mapstructure:"trading"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Quote holds the configuration for the market-data quote source.
type Quote struct {
	ApiKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Redis holds the configuration for the optional quote cache.
// An empty Addr disables caching.
type Redis struct {
	Addr string `mapstructure:"addr"`
}

// Session holds the configuration for the cookie session store.
type Session struct {
	Secret string `mapstructure:"secret"`
}

// Trading holds the configuration for the simulated trading rules.
type Trading struct {
	StartingCash float64 `mapstructure:"starting_cash"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.dsn", "papertrade.db")
	viper.SetDefault("quote.base_url", "https://www.alphavantage.co")
	viper.SetDefault("quote.rate_limit", 5)       // requests per second
	viper.SetDefault("quote.rate_limit_burst", 2) // burst size
	viper.SetDefault("trading.starting_cash", 10000)

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	// The quote source is unusable without a key; refuse to start.
	if config.Quote.ApiKey == "" {
		err = fmt.Errorf("quote.api_key is not set (use QUOTE_API_KEY or configs/config.yml)")
		return
	}
	if config.Session.Secret == "" {
		err = fmt.Errorf("session.secret is not set")
		return
	}

	return
}
