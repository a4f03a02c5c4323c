package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal    metric.Int64Counter
	HTTPDurationSeconds  metric.Float64Histogram
	LoginAttemptsTotal   metric.Int64Counter
	TokenRefreshesTotal  metric.Int64Counter
	TokenRevocationsTotal metric.Int64Counter

	registry *prometheus.Registry
}

// New sets up an OTel meter backed by the Prometheus exporter and creates the
// application instruments. The returned AppMetrics is passed through the
// container rather than held in a package global.
func New() (*AppMetrics, error) {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("auth-starter")

	m := &AppMetrics{registry: registry}

	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests completed"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total: %w", err)
	}

	m.HTTPDurationSeconds, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds: %w", err)
	}

	m.LoginAttemptsTotal, err = meter.Int64Counter(
		"login_attempts_total",
		metric.WithDescription("Total number of login attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create login_attempts_total: %w", err)
	}

	m.TokenRefreshesTotal, err = meter.Int64Counter(
		"token_refreshes_total",
		metric.WithDescription("Total number of refresh token rotations"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token_refreshes_total: %w", err)
	}

	m.TokenRevocationsTotal, err = meter.Int64Counter(
		"token_revocations_total",
		metric.WithDescription("Total number of logout-all token revocations"),
		metric.WithUnit("{revocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token_revocations_total: %w", err)
	}

	return m, nil
}

// Handler exposes the Prometheus scrape endpoint for the metrics listener.
func (m *AppMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latencies. The route pattern is
// resolved after the handler runs so parameterized paths stay low-cardinality.
func (m *AppMetrics) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			attrs := metric.WithAttributes(
				attribute.String("method", r.Method),
				attribute.String("route", route),
				attribute.Int("status", ww.Status()),
			)
			m.HTTPRequestsTotal.Add(r.Context(), 1, attrs)
			m.HTTPDurationSeconds.Record(r.Context(), time.Since(start).Seconds(), attrs)
		})
	}
}
