package emitter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/speedwagon-io/tuya-local-poll/internal/model"
)

// Encode renders a result as a single JSON line terminated by '\n'.
// HTML escaping is off so error messages come out the way the device sent them.
func Encode(res model.Result) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(res); err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return buf.Bytes(), nil
}

// Emitter writes results to an output stream, one line per result.
type Emitter struct {
	w io.Writer
}

func New(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

func (e *Emitter) Emit(res model.Result) error {
	data, err := Encode(res)
	if err != nil {
		return err
	}

	if _, err := e.w.Write(data); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
