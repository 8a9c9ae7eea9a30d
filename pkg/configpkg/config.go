// Package configpkg provides parsing functionality for environment variables.
package configpkg

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
//
// The values are read by viper from a config file or environment variables.
type Config struct {
	ServerAddress    string        `mapstructure:"SERVER_ADDRESS"`
	ReadTimeout      time.Duration `mapstructure:"READ_TIMEOUT"`
	WriteTimeout     time.Duration `mapstructure:"WRITE_TIMEOUT"`
	ShutdownTimeout  time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	Environment      string        `mapstructure:"GO_ENV"`
	RabbitMQURL      string        `mapstructure:"RABBITMQ_URL"`
	RabbitMQExchange string        `mapstructure:"RABBITMQ_EXCHANGE"`
}

var defaults = map[string]any{
	"SERVER_ADDRESS":    "0.0.0.0:8080",
	"READ_TIMEOUT":      "10s",
	"WRITE_TIMEOUT":     "10s",
	"SHUTDOWN_TIMEOUT":  "5s",
	"GO_ENV":            "production",
	"RABBITMQ_URL":      "",
	"RABBITMQ_EXCHANGE": "ledger_events",
}

// Load reads configuration from app.env in path, then from environment variables.
//
// A missing app.env is not an error; defaults and the environment still apply.
func Load(path string) (Config, error) {
	var c Config

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, nil
}
