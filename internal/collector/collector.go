package collector

import (
	"context"

	"github.com/speedwagon-io/tuya-local-poll/internal/config"
)

// Device is the local protocol client of one plug. Status returns the decoded
// reply document; a nil map means the device answered with nothing.
type Device interface {
	Status(ctx context.Context) (map[string]any, error)
	Close() error
}

// Pinger is implemented by devices that can check reachability without a
// status round trip.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Factory opens a client for the configured device.
type Factory func(cfg config.DeviceConfig) (Device, error)
