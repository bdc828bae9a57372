package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Device DeviceConfig
	Listen string    `env:"TUYA_LISTEN" env-description:"serve /status on this address instead of polling once"`
	Log    LogConfig
}

type LogConfig struct {
	Level  string `env:"TUYA_LOG_LEVEL" env-default:"warn" env-description:"debug, info, warn or error"`
	Format string `env:"TUYA_LOG_FORMAT" env-default:"text" env-description:"text or json, written to stderr"`
}

// Load reads the configuration from the process environment.
// Required device fields are not enforced here, see DeviceConfig.Missing.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return &cfg, nil
}

// Description renders the list of recognised environment variables.
func Description() (string, error) {
	header := "Environment variables:"
	return cleanenv.GetDescription(&Config{}, &header)
}

// HardDeadline is the wall-clock budget of a whole poll: one second less than
// the socket timeout, but never below two seconds.
func (c *Config) HardDeadline() time.Duration {
	return time.Duration(max(2, c.Device.Timeout-1)) * time.Second
}
