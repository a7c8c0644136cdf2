package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprometheus "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// MetricsProviders bundles the metrics pipeline: the meter the
// application records on and the HTTP handler that exposes the
// Prometheus scrape endpoint.
type MetricsProviders struct {
	Meter          metric.Meter
	PrometheusHTTP http.Handler

	provider *sdkmetric.MeterProvider
}

// InitializeMetrics sets up an OpenTelemetry meter provider backed by a
// Prometheus exporter and installs it as the global provider.
func InitializeMetrics(serviceName, version string, logger *slog.Logger) (*MetricsProviders, error) {
	exporter, err := otelprometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build otel resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	logger.Info("metrics pipeline initialized",
		slog.String("exporter", "prometheus"),
		slog.String("service", serviceName),
	)

	return &MetricsProviders{
		Meter:          provider.Meter(serviceName),
		PrometheusHTTP: promhttp.Handler(),
		provider:       provider,
	}, nil
}

// Shutdown flushes and stops the meter provider.
func (p *MetricsProviders) Shutdown(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}
