package collector

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/speedwagon-io/tuya-local-poll/internal/config"
	"github.com/speedwagon-io/tuya-local-poll/internal/lib/logger/sl"
	"github.com/speedwagon-io/tuya-local-poll/internal/model"
)

const msgNoClient = "device client not available"

var ErrNoPing = errors.New("device client cannot ping")

type Runner struct {
	log      *slog.Logger
	device   config.DeviceConfig
	deadline time.Duration
	factory  Factory
}

func NewRunner(log *slog.Logger, cfg *config.Config, factory Factory) *Runner {
	return &Runner{
		log:      log,
		device:   cfg.Device,
		deadline: cfg.HardDeadline(),
		factory:  factory,
	}
}

// Run performs one guarded poll. It never returns a partial result: either
// the full reading, or a failure of exactly one kind.
func (r *Runner) Run(ctx context.Context) model.Result {
	log := r.log.With(slog.String("run_id", uuid.NewString()))

	if missing := r.device.Missing(); len(missing) > 0 {
		log.Error("missing configuration", slog.Any("variables", missing))
		return model.MissingConfiguration(missing)
	}

	if r.factory == nil {
		log.Error(msgNoClient)
		return model.Failure(model.KindMissingDependency, msgNoClient)
	}

	log.Debug("polling device",
		slog.Any("device", r.device.Redacted()),
		slog.Duration("deadline", r.deadline),
	)

	start := time.Now()
	res := Guard(ctx, r.deadline, func(ctx context.Context) model.Result {
		return r.poll(ctx, log)
	})

	attrs := []any{
		slog.Bool("online", res.Online),
		slog.String("kind", res.Kind.String()),
		slog.Int64("latency_ms", time.Since(start).Milliseconds()),
	}
	if res.Online {
		log.Info("poll finished", attrs...)
	} else {
		log.Warn("poll failed", append(attrs, slog.String("error", res.Error))...)
	}

	return res
}

func (r *Runner) poll(ctx context.Context, log *slog.Logger) model.Result {
	dev, err := r.factory(r.device)
	if err != nil {
		return model.Failure(model.KindFetch, err.Error())
	}
	defer func() {
		if err := dev.Close(); err != nil {
			log.Error("failed to close device client", sl.Err(err))
		}
	}()

	payload, err := dev.Status(ctx)
	if err != nil {
		return model.Failure(model.KindFetch, err.Error())
	}

	return Interpret(payload)
}

// Ready checks that the device is configured and accepts connections.
func (r *Runner) Ready(ctx context.Context) error {
	if missing := r.device.Missing(); len(missing) > 0 {
		return errors.New(model.MissingConfiguration(missing).Error)
	}
	if r.factory == nil {
		return errors.New(msgNoClient)
	}

	dev, err := r.factory(r.device)
	if err != nil {
		return err
	}
	defer dev.Close()

	p, ok := dev.(Pinger)
	if !ok {
		return ErrNoPing
	}

	ctx, cancel := context.WithTimeout(ctx, r.deadline)
	defer cancel()
	return p.Ping(ctx)
}
