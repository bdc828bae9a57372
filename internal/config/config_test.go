package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setDevice(t *testing.T, id, key, host string) {
	t.Setenv(EnvDeviceID, id)
	t.Setenv(EnvLocalKey, key)
	t.Setenv(EnvHost, host)
}

func TestLoadDefaults(t *testing.T) {
	setDevice(t, "bf0123", "0123456789abcdef", "192.168.1.50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "bf0123", cfg.Device.ID)
	assert.Equal(t, 3.5, cfg.Device.Version)
	assert.Equal(t, 5, cfg.Device.Timeout)
	assert.Equal(t, 6668, cfg.Device.Port)
	assert.Equal(t, 1, cfg.Device.RetryLimit)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Empty(t, cfg.Device.Missing())
}

func TestLoadOverrides(t *testing.T) {
	setDevice(t, "bf0123", "0123456789abcdef", "plug.lan")
	t.Setenv("TUYA_VERSION", "3.3")
	t.Setenv("TUYA_TIMEOUT", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3.3, cfg.Device.Version)
	assert.Equal(t, 8*time.Second, cfg.Device.SocketTimeout())
	assert.Equal(t, 7*time.Second, cfg.HardDeadline())
}

func TestLoadInvalidVersion(t *testing.T) {
	setDevice(t, "bf0123", "0123456789abcdef", "plug.lan")
	t.Setenv("TUYA_VERSION", "three")

	_, err := Load()
	require.Error(t, err)
}

func TestMissing(t *testing.T) {
	cases := []struct {
		name          string
		id, key, host string
		expected      []string
	}{
		{"all", "", "", "", []string{EnvDeviceID, EnvLocalKey, EnvHost}},
		{"id only", "", "k", "h", []string{EnvDeviceID}},
		{"key and host", "d", "", "", []string{EnvLocalKey, EnvHost}},
		{"whitespace is a value", " ", "k", "\t", nil},
		{"none", "d", "k", "h", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := DeviceConfig{ID: tc.id, LocalKey: tc.key, Host: tc.host}
			assert.Equal(t, tc.expected, d.Missing())
		})
	}
}

func TestHardDeadlineFloor(t *testing.T) {
	for timeout, expected := range map[int]time.Duration{
		0:  2 * time.Second,
		1:  2 * time.Second,
		3:  2 * time.Second,
		5:  4 * time.Second,
		10: 9 * time.Second,
	} {
		cfg := Config{Device: DeviceConfig{Timeout: timeout}}
		assert.Equal(t, expected, cfg.HardDeadline(), "timeout=%d", timeout)
	}
}

func TestRedacted(t *testing.T) {
	d := DeviceConfig{ID: "bf0123", LocalKey: "secret"}
	assert.Equal(t, "*redacted*", d.Redacted().LocalKey)
	assert.Equal(t, "secret", d.LocalKey)
}
