package collector

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/speedwagon-io/tuya-local-poll/internal/model"
)

const (
	msgNoResponse   = "No response"
	msgUnknownError = "Unknown error"
)

// Interpret turns a reply document into a Result.
func Interpret(payload map[string]any) model.Result {
	if payload == nil {
		return model.Failure(model.KindFetch, msgNoResponse)
	}

	if v, ok := payload["Error"]; ok {
		return model.Failure(model.KindFetch, errorMessage(v))
	}

	raw, ok := payload["dps"]
	if !ok {
		return model.Failure(model.KindFetch, msgUnknownError)
	}

	dps, err := CanonicalDPS(raw)
	if err != nil {
		return model.Failure(model.KindUnexpected, err.Error())
	}

	readings, err := Normalize(dps)
	if err != nil {
		return model.Failure(model.KindUnexpected, err.Error())
	}

	return model.Success(readings, dps)
}

func errorMessage(v any) string {
	switch val := v.(type) {
	case nil:
		return msgUnknownError
	case string:
		if val == "" {
			return msgUnknownError
		}
		return val
	default:
		return fmt.Sprint(val)
	}
}

// CanonicalDPS returns a copy of the data points keyed by their decimal
// index. Decoded JSON objects already carry string keys.
func CanonicalDPS(raw any) (map[string]any, error) {
	switch dps := raw.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		out := make(map[string]any, len(dps))
		for k, v := range dps {
			out[k] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected dps type %T", raw)
	}
}

// Normalize derives the electrical readings from canonical data points.
// Missing or falsy values count as zero (or off for the switch).
func Normalize(dps map[string]any) (model.Readings, error) {
	voltage, err := toFloat(dps[model.DPVoltage])
	if err != nil {
		return model.Readings{}, fmt.Errorf("dps %s: %w", model.DPVoltage, err)
	}
	if voltage > model.VoltageRawThreshold {
		voltage /= model.VoltageDivisor
	}

	power, err := toFloat(dps[model.DPPower])
	if err != nil {
		return model.Readings{}, fmt.Errorf("dps %s: %w", model.DPPower, err)
	}

	current, err := toFloat(dps[model.DPCurrent])
	if err != nil {
		return model.Readings{}, fmt.Errorf("dps %s: %w", model.DPCurrent, err)
	}

	return model.Readings{
		Voltage: round(voltage, 1),
		Power:   round(power/model.PowerDivisor, 1),
		Current: round(current/model.CurrentDivisor, 3),
		Switch:  toBool(dps[model.DPSwitch]),
	}, nil
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

var errNotNumeric = errors.New("value is not numeric")

func toFloat(v any) (float64, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", errNotNumeric, string(val))
		}
		return f, nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", errNotNumeric, val)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %T", errNotNumeric, v)
	}
}

func toBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case int:
		return val != 0
	case json.Number:
		f, err := val.Float64()
		return err == nil && f != 0
	case string:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return val == "on"
		}
		return b
	default:
		return false
	}
}
