package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedwagon-io/tuya-local-poll/internal/lib/logger/sl"
	"github.com/speedwagon-io/tuya-local-poll/internal/model"
)

type fakePoller struct {
	res      model.Result
	readyErr error
}

func (p *fakePoller) Run(context.Context) model.Result { return p.res }
func (p *fakePoller) Ready(context.Context) error      { return p.readyErr }

func get(t *testing.T, h http.Handler, path string) (*http.Response, string) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	resp := rec.Result()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestStatusOnline(t *testing.T) {
	p := &fakePoller{res: model.Success(
		model.Readings{Voltage: 220, Power: 150, Current: 5, Switch: true},
		map[string]any{"1": true},
	)}

	resp, body := get(t, New(sl.Discard(), "", p).Handler(), "/status")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"online":true,"voltage":220,"power":150,"current":5,"switch":true,"dps":{"1":true},"error":null}`, body)
}

func TestStatusOffline(t *testing.T) {
	p := &fakePoller{res: model.Timeout()}

	resp, body := get(t, New(sl.Discard(), "", p).Handler(), "/status")

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.JSONEq(t, `{"online":false,"error":"Timeout","dps":{}}`, body)
}

func TestReady(t *testing.T) {
	h := New(sl.Discard(), "", &fakePoller{}).Handler()
	resp, body := get(t, h, "/ready")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var ready ReadyResponse
	require.NoError(t, json.Unmarshal([]byte(body), &ready))
	assert.Equal(t, StatusHealthy, ready.Status)

	h = New(sl.Discard(), "", &fakePoller{readyErr: errors.New("connection refused")}).Handler()
	resp, body = get(t, h, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	require.NoError(t, json.Unmarshal([]byte(body), &ready))
	assert.Equal(t, StatusUnhealthy, ready.Status)
	assert.Equal(t, "connection refused", ready.Message)
}

func TestLive(t *testing.T) {
	resp, body := get(t, New(sl.Discard(), "", &fakePoller{}).Handler(), "/live")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", body)
}

func TestUnknownRoute(t *testing.T) {
	resp, _ := get(t, New(sl.Discard(), "", &fakePoller{}).Handler(), "/metrics")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
