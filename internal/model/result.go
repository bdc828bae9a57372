package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Kind classifies how a poll ended.
type Kind int

const (
	KindOK Kind = iota
	KindMissingDependency
	KindMissingConfiguration
	KindFetch
	KindTimeout
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindMissingDependency:
		return "missing_dependency"
	case KindMissingConfiguration:
		return "missing_configuration"
	case KindFetch:
		return "fetch"
	case KindTimeout:
		return "timeout"
	case KindUnexpected:
		return "unexpected"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

const TimeoutMessage = "Timeout"

// Result is the outcome of one poll. Only Online results carry readings.
type Result struct {
	Kind    Kind
	Online  bool
	Error   string
	Voltage float64
	Power   float64
	Current float64
	Switch  bool
	DPS     map[string]any
}

func Success(r Readings, dps map[string]any) Result {
	if dps == nil {
		dps = map[string]any{}
	}
	return Result{
		Kind:    KindOK,
		Online:  true,
		Voltage: r.Voltage,
		Power:   r.Power,
		Current: r.Current,
		Switch:  r.Switch,
		DPS:     dps,
	}
}

func Failure(kind Kind, msg string) Result {
	return Result{Kind: kind, Error: msg}
}

func Timeout() Result {
	return Failure(KindTimeout, TimeoutMessage)
}

func MissingConfiguration(names []string) Result {
	return Failure(KindMissingConfiguration,
		fmt.Sprintf("Missing configuration: %s required", strings.Join(names, ", ")))
}

func (r Result) ExitCode() int {
	if r.Online {
		return 0
	}
	return 1
}

// Readings are the derived values of the interpreted data points.
type Readings struct {
	Voltage float64
	Power   float64
	Current float64
	Switch  bool
}

type successDoc struct {
	Online  bool           `json:"online"`
	Voltage float64        `json:"voltage"`
	Power   float64        `json:"power"`
	Current float64        `json:"current"`
	Switch  bool           `json:"switch"`
	DPS     map[string]any `json:"dps"`
	Error   *string        `json:"error"`
}

type failureDoc struct {
	Online bool           `json:"online"`
	Error  string         `json:"error"`
	DPS    map[string]any `json:"dps"`
}

// MarshalJSON renders the two wire shapes: the success document with a null
// error, or the failure document with an empty dps object.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Online {
		dps := r.DPS
		if dps == nil {
			dps = map[string]any{}
		}
		return marshalDoc(successDoc{
			Online:  true,
			Voltage: r.Voltage,
			Power:   r.Power,
			Current: r.Current,
			Switch:  r.Switch,
			DPS:     dps,
		})
	}

	return marshalDoc(failureDoc{
		Online: false,
		Error:  r.Error,
		DPS:    map[string]any{},
	})
}

// marshalDoc encodes without HTML escaping. An outer encoder only compacts
// marshaller output, so escapes added here could not be undone there.
func marshalDoc(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
