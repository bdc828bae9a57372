package config

import "time"

const (
	EnvDeviceID = "TUYA_DEVICE_ID"
	EnvLocalKey = "TUYA_LOCAL_KEY"
	EnvHost     = "TUYA_HOST"
)

type DeviceConfig struct {
	ID         string  `env:"TUYA_DEVICE_ID" env-description:"device id (required)"`
	LocalKey   string  `env:"TUYA_LOCAL_KEY" env-description:"device local key (required, secret)"`
	Host       string  `env:"TUYA_HOST" env-description:"device IP address or hostname (required)"`
	Version    float64 `env:"TUYA_VERSION" env-default:"3.5" env-description:"local protocol version"`
	Timeout    int     `env:"TUYA_TIMEOUT" env-default:"5" env-description:"socket timeout in seconds"`
	Port       int     `env:"TUYA_PORT" env-default:"6668" env-description:"device TCP port"`
	RetryLimit int     `env:"TUYA_RETRY_LIMIT" env-default:"1" env-description:"retries on transient network errors"`
}

// Missing returns the names of required variables that are empty, in a
// stable order. Whitespace counts as a value.
func (d DeviceConfig) Missing() []string {
	var names []string
	if d.ID == "" {
		names = append(names, EnvDeviceID)
	}
	if d.LocalKey == "" {
		names = append(names, EnvLocalKey)
	}
	if d.Host == "" {
		names = append(names, EnvHost)
	}
	return names
}

func (d DeviceConfig) SocketTimeout() time.Duration {
	return time.Duration(d.Timeout) * time.Second
}

// Redacted returns a copy that is safe to log.
func (d DeviceConfig) Redacted() DeviceConfig {
	if d.LocalKey != "" {
		d.LocalKey = "*redacted*"
	}
	return d
}
