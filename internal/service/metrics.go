package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/prperemyshlev/auth-core/internal/service"

// flowMetrics counts flow outcomes by flow name and result code
type flowMetrics struct {
	outcomes      metric.Int64Counter
	notifications metric.Int64Counter
}

func newFlowMetrics(meter metric.Meter) *flowMetrics {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(meterName)
	}

	outcomes, err := meter.Int64Counter("auth_flow_outcomes_total",
		metric.WithDescription("Authentication flow outcomes by flow and result code"),
	)
	if err != nil {
		outcomes, _ = noop.NewMeterProvider().Meter(meterName).Int64Counter("auth_flow_outcomes_total")
	}

	notifications, err := meter.Int64Counter("auth_notifications_total",
		metric.WithDescription("Notification dispatch attempts by kind and result"),
	)
	if err != nil {
		notifications, _ = noop.NewMeterProvider().Meter(meterName).Int64Counter("auth_notifications_total")
	}

	return &flowMetrics{outcomes: outcomes, notifications: notifications}
}

func (m *flowMetrics) record(ctx context.Context, flow string, err error) {
	result := "ok"
	if err != nil {
		result = string(CodeOf(err))
	}
	m.outcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("flow", flow),
		attribute.String("result", result),
	))
}

func (m *flowMetrics) notification(ctx context.Context, kind string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.notifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("result", result),
	))
}
