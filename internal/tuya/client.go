package tuya

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"strconv"
	"time"

	"github.com/speedwagon-io/tuya-local-poll/internal/lib/logger/sl"
)

const (
	DefaultPort = 6668

	versionHeaderLen = 15
	keyLen           = 16

	// From this version on, firmware expects a negotiated session key.
	sessionVersion = 3.4
)

var (
	ErrInvalidKey         = errors.New("tuya: local key must be 16 bytes")
	ErrUnsupportedVersion = errors.New("tuya: unsupported protocol version")
	ErrNoReply            = errors.New("tuya: no status reply")
)

type Config struct {
	DeviceID   string
	Address    string
	LocalKey   string
	Version    float64
	Port       int
	Timeout    time.Duration
	RetryLimit int
}

// Info describes the connection target, safe to log.
type Info struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	DeviceID string `json:"device_id"`
	Version  string `json:"version"`
}

// Device is a client for one plug. Each call opens and closes its own TCP
// connection.
type Device struct {
	log     *slog.Logger
	cfg     Config
	key     []byte
	version string
	backoff backoff
}

func New(log *slog.Logger, cfg Config) (*Device, error) {
	if len(cfg.LocalKey) != keyLen {
		return nil, ErrInvalidKey
	}
	if cfg.Version < 3.1 || cfg.Version > 3.5 {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedVersion, cfg.Version)
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.RetryLimit < 0 {
		cfg.RetryLimit = 0
	}

	log = log.With(slog.String("device_id", cfg.DeviceID))
	if cfg.Version >= sessionVersion {
		log.Warn("session key negotiation not supported, device may not answer",
			slog.Float64("version", cfg.Version),
		)
	}

	return &Device{
		log:     log,
		cfg:     cfg,
		key:     []byte(cfg.LocalKey),
		version: strconv.FormatFloat(cfg.Version, 'f', 1, 64),
		backoff: newBackoff(),
	}, nil
}

func (d *Device) Info() Info {
	return Info{
		Host:     d.cfg.Address,
		Port:     d.cfg.Port,
		DeviceID: d.cfg.DeviceID,
		Version:  d.version,
	}
}

func (d *Device) Close() error {
	return nil
}

// Ping checks that the device accepts TCP connections.
func (d *Device) Ping(ctx context.Context) error {
	conn, err := d.dial(ctx)
	if err != nil {
		return err
	}
	return conn.Close()
}

// Status queries the data points. A nil map with a nil error means the
// device answered with an empty payload. Transient network failures are
// retried up to RetryLimit times.
func (d *Device) Status(ctx context.Context) (map[string]any, error) {
	var lastErr error

	for attempt := 0; attempt <= d.cfg.RetryLimit; attempt++ {
		if attempt > 0 {
			if err := d.backoff.wait(ctx, attempt); err != nil {
				return nil, lastErr
			}
		}

		payload, err := d.query(ctx)
		if err == nil {
			return payload, nil
		}

		lastErr = err
		if !isTransient(err) || ctx.Err() != nil {
			break
		}

		d.log.Warn("status attempt failed",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", d.cfg.RetryLimit+1),
			sl.Err(err),
		)
	}

	return nil, lastErr
}

func (d *Device) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(d.cfg.Address, strconv.Itoa(d.cfg.Port))
	dialer := net.Dialer{Timeout: d.cfg.Timeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to %s: %w", addr, err)
	}
	return conn, nil
}

func (d *Device) query(ctx context.Context) (map[string]any, error) {
	conn, err := d.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	// Unblock reads and writes as soon as the caller gives up.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := conn.SetDeadline(d.deadline(ctx)); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	req, err := d.buildQuery()
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(req.Encode()); err != nil {
		return nil, fmt.Errorf("send failed: %w", err)
	}

	// Devices may interleave heartbeats; skip until the status reply.
	for i := 0; i < 4; i++ {
		frame, err := ReadFrame(conn)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("receive aborted: %w", ctx.Err())
			}
			return nil, fmt.Errorf("receive failed: %w", err)
		}

		if frame.Cmd != CmdDPQuery && frame.Cmd != CmdStatus {
			d.log.Debug("skipping frame", slog.Int("cmd", int(frame.Cmd)))
			continue
		}

		return d.decodePayload(frame.Payload)
	}

	return nil, ErrNoReply
}

func (d *Device) deadline(ctx context.Context) time.Time {
	var deadline time.Time
	if d.cfg.Timeout > 0 {
		deadline = time.Now().Add(d.cfg.Timeout)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok && (deadline.IsZero() || ctxDeadline.Before(deadline)) {
		deadline = ctxDeadline
	}
	return deadline
}

type queryPayload struct {
	GwID  string   `json:"gwId"`
	DevID string   `json:"devId"`
	UID   string   `json:"uid"`
	T     string   `json:"t"`
	DPS   struct{} `json:"dps"`
}

func (d *Device) buildQuery() (Frame, error) {
	body, err := json.Marshal(queryPayload{
		GwID:  d.cfg.DeviceID,
		DevID: d.cfg.DeviceID,
		UID:   d.cfg.DeviceID,
		T:     strconv.FormatInt(time.Now().Unix(), 10),
	})
	if err != nil {
		return Frame{}, fmt.Errorf("failed to marshal query: %w", err)
	}

	switch {
	case d.cfg.Version >= sessionVersion:
		enc, err := encryptECB(d.key, body)
		if err != nil {
			return Frame{}, err
		}
		body = append(d.versionHeader(), enc...)
	case d.cfg.Version >= 3.3:
		body, err = encryptECB(d.key, body)
		if err != nil {
			return Frame{}, err
		}
	}

	return Frame{
		Seq:     rand.Uint32N(65535) + 1,
		Cmd:     CmdDPQuery,
		Payload: body,
	}, nil
}

func (d *Device) versionHeader() []byte {
	h := make([]byte, versionHeaderLen)
	copy(h, d.version)
	return h
}

// decodePayload strips the return code and version header, decrypts when
// needed and decodes the JSON document. Numbers are kept as json.Number so
// the raw data points can be echoed back unchanged.
func (d *Device) decodePayload(p []byte) (map[string]any, error) {
	if len(p) >= 4 && p[0] == 0 && p[1] == 0 && p[2] == 0 {
		p = p[4:]
	}
	p = stripVersionHeader(p)

	if len(bytes.TrimSpace(p)) == 0 {
		return nil, nil
	}

	if d.cfg.Version >= 3.3 && !json.Valid(p) {
		plain, err := decryptECB(d.key, p)
		if err != nil {
			return nil, fmt.Errorf("cannot decrypt response: %w", err)
		}
		p = stripVersionHeader(plain)
	}

	dec := json.NewDecoder(bytes.NewReader(p))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("cannot parse response: %w", err)
	}
	return payload, nil
}

func stripVersionHeader(p []byte) []byte {
	if len(p) >= versionHeaderLen && p[0] == '3' && p[1] == '.' {
		return p[versionHeaderLen:]
	}
	return p
}

func isTransient(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
