package logger

import (
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// RoundTripper logs every outbound KMA request to the developer log. The
// service key is redacted from the logged URL.
type RoundTripper struct {
	Logger *zap.SugaredLogger
	Proxy  http.RoundTripper
}

func NewRoundTripper(logger *zap.SugaredLogger) *RoundTripper {
	return &RoundTripper{
		Logger: logger,
		Proxy:  http.DefaultTransport,
	}
}

func (l *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := l.Proxy.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		l.Logger.Errorw("HTTP request failed",
			"method", req.Method,
			"url", RedactURL(req.URL),
			"duration", duration,
			"error", err,
		)
		return nil, err
	}

	l.Logger.Debugw("HTTP request completed",
		"method", req.Method,
		"url", RedactURL(req.URL),
		"status_code", resp.StatusCode,
		"duration", duration,
	)
	return resp, nil
}

// RedactURL returns u as a string with the serviceKey value masked.
func RedactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	q := u.Query()
	if q.Get("serviceKey") == "" {
		return u.String()
	}
	q.Set("serviceKey", "REDACTED")
	redacted := *u
	redacted.RawQuery = q.Encode()
	return redacted.String()
}
