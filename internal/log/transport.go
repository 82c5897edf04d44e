package log

import (
	"log/slog"
	"net/http"
	"time"
)

// Transport logs every outbound request with its status and duration.
type Transport struct {
	Base   http.RoundTripper
	Logger *Logger
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(base http.RoundTripper, logger *Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = Discard()
	}
	return &Transport{Base: base, Logger: logger.WithComponent(ComponentAPI)}
}

func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.Base.RoundTrip(r)
	elapsed := time.Since(start).Milliseconds()

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path).
		WithRequestID(r.Header.Get("X-Request-ID"))

	if err != nil {
		t.Logger.WarnContext(r.Context(), "API request failed", fields.WithError(err).ToSlice()...)
		return nil, err
	}

	level := slog.LevelDebug
	switch {
	case resp.StatusCode >= 500:
		level = slog.LevelError
	case resp.StatusCode >= 400:
		level = slog.LevelWarn
	}
	fields.WithHTTPResponse(resp.StatusCode, elapsed, resp.StatusCode < 400)
	t.Logger.LogContext(r.Context(), level, "API request completed", fields.ToSlice()...)
	return resp, nil
}
