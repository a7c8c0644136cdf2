package license

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the OpenTelemetry counters recorded per engine decision.
type Metrics struct {
	verifications metric.Int64Counter
	seatChanges   metric.Int64Counter
}

// NewMetrics creates the engine's decision counters on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	verifications, err := meter.Int64Counter("license_verifications_total",
		metric.WithDescription("License verification decisions by outcome and reason"),
	)
	if err != nil {
		return nil, err
	}

	seatChanges, err := meter.Int64Counter("license_seat_changes_total",
		metric.WithDescription("Transfer and reset decisions by outcome and reason"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		verifications: verifications,
		seatChanges:   seatChanges,
	}, nil
}

func (m *Metrics) recordVerify(ctx context.Context, valid bool, reason Reason) {
	attrs := []attribute.KeyValue{attribute.Bool("valid", valid)}
	if reason != "" {
		attrs = append(attrs, attribute.String("reason", string(reason)))
	}
	m.verifications.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) recordTransfer(ctx context.Context, op string, success bool, reason Reason) {
	attrs := []attribute.KeyValue{
		attribute.String("operation", op),
		attribute.Bool("success", success),
	}
	if reason != "" {
		attrs = append(attrs, attribute.String("reason", string(reason)))
	}
	m.seatChanges.Add(ctx, 1, metric.WithAttributes(attrs...))
}
