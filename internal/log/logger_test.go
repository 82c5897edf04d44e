package log

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentApp, Output: &buf})

	l.WithComponent(ComponentSession).Info("hello", FieldOperation, OpLogin)
	l.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "component=session")
	assert.Contains(t, out, "operation=login")
	assert.NotContains(t, out, "hidden")
}

func TestFieldsToSliceSkipsComponent(t *testing.T) {
	s := NewFields().
		WithComponent("x").
		WithOperation(OpCreate).
		WithError(errors.New("boom")).
		WithError(nil).
		ToSlice()
	assert.Len(t, s, 4)
	assert.NotContains(t, s, FieldComponent)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestTransportLogsRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Output: &buf})
	client := &http.Client{Transport: NewTransport(nil, l)}

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/missing", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-1")
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "component=api")
	assert.Contains(t, out, "status_code=404")
	assert.Contains(t, out, "request_id=req-1")
	assert.Contains(t, out, "path=/missing")
}

func TestTransportLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTransport(roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}), New(Config{Level: slog.LevelDebug, Output: &buf}))

	req := httptest.NewRequest(http.MethodPost, "http://api.invalid/expenses", nil)
	_, err := tr.RoundTrip(req)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "API request failed")
	assert.Contains(t, buf.String(), "connection refused")
}
