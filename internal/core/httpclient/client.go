package httpclient

import (
	"net/http"
	"time"

	"checkout-engine/internal/core/logger"
	"checkout-engine/internal/core/proxy"

	"go.uber.org/zap"
)

// LoggingRoundTripper logs outbound requests without query strings, headers or bodies.
// Gateway calls carry card data and bearer keys, so only method, host and path are recorded.
type LoggingRoundTripper struct {
	// Proxied is the underlying RoundTripper to execute the request.
	Proxied http.RoundTripper
}

// RoundTrip executes the request and logs details.
func (lrt *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	log := logger.Named("httpclient").With(
		zap.String("method", req.Method),
		zap.String("host", req.URL.Host),
		zap.String("path", req.URL.Path),
	)

	log.Debug("HTTP Request Started")

	resp, err := lrt.Proxied.RoundTrip(req)

	duration := time.Since(start)

	if err != nil {
		log.Error("HTTP Request Failed", zap.Duration("duration", duration), zap.Error(err))
		return nil, err
	}

	log.Debug("HTTP Request Completed",
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	)

	return resp, nil
}

// NewClient returns an http.Client with logging middleware and the optional egress proxy.
func NewClient(timeout time.Duration, egress proxy.Settings) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = egress.ProxyFunc()

	if egress.HasProxy() {
		logger.Named("httpclient").Info("Outbound requests routed through proxy",
			zap.String("proxy", egress.HostPort()),
		)
	}

	return &http.Client{
		Transport: &LoggingRoundTripper{
			Proxied: transport,
		},
		Timeout: timeout,
	}
}
