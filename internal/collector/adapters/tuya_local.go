package adapters

import (
	"log/slog"

	"github.com/speedwagon-io/tuya-local-poll/internal/collector"
	"github.com/speedwagon-io/tuya-local-poll/internal/config"
	"github.com/speedwagon-io/tuya-local-poll/internal/tuya"
)

// NewTuyaLocal returns a factory for clients speaking the LAN protocol
// directly to the plug.
func NewTuyaLocal(log *slog.Logger) collector.Factory {
	return func(cfg config.DeviceConfig) (collector.Device, error) {
		dev, err := tuya.New(log, tuya.Config{
			DeviceID:   cfg.ID,
			Address:    cfg.Host,
			LocalKey:   cfg.LocalKey,
			Version:    cfg.Version,
			Port:       cfg.Port,
			Timeout:    cfg.SocketTimeout(),
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			return nil, err
		}

		log.Debug("device client ready", slog.Any("target", dev.Info()))
		return dev, nil
	}
}
