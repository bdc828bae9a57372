package emitter

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedwagon-io/tuya-local-poll/internal/model"
)

func TestEmitSuccessLine(t *testing.T) {
	var buf bytes.Buffer
	res := model.Success(
		model.Readings{Voltage: 220, Power: 150, Current: 5, Switch: true},
		map[string]any{"20": "2200", "19": "1500", "18": "5000", "1": true},
	)

	require.NoError(t, New(&buf).Emit(res))

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.JSONEq(t, `{
		"online": true,
		"voltage": 220,
		"power": 150,
		"current": 5,
		"switch": true,
		"dps": {"1": true, "18": "5000", "19": "1500", "20": "2200"},
		"error": null
	}`, out)
}

func TestEmitTimeoutLine(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, New(&buf).Emit(model.Timeout()))

	assert.Equal(t, "{\"online\":false,\"error\":\"Timeout\",\"dps\":{}}\n", buf.String())
}

func TestEncodeKeepsMarkup(t *testing.T) {
	data, err := Encode(model.Failure(model.KindFetch, "<html> & co"))
	require.NoError(t, err)

	assert.Equal(t, "{\"online\":false,\"error\":\"<html> & co\",\"dps\":{}}\n", string(data))

	data, err = Encode(model.Success(model.Readings{}, map[string]any{"101": "a&b"}))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"101":"a&b"`)
}

func TestEncodeIsStable(t *testing.T) {
	res := model.Success(model.Readings{Voltage: 230.1}, map[string]any{"20": 2301, "1": false, "19": 0, "18": 3})

	first, err := Encode(res)
	require.NoError(t, err)
	second, err := Encode(res)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestEmitWriteError(t *testing.T) {
	err := New(brokenWriter{}).Emit(model.Timeout())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed pipe")
}
