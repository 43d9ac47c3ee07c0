package webhooks

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "formrelay/backend/internal/webhooks"

var tracer = otel.Tracer(instrumentationName)

type instruments struct {
	deliveries metric.Int64Counter
	duration   metric.Float64Histogram
}

func newInstruments() instruments {
	meter := otel.Meter(instrumentationName)

	deliveries, err := meter.Int64Counter("webhook.deliveries",
		metric.WithDescription("Webhook delivery attempts by outcome"))
	if err != nil {
		deliveries = noop.Int64Counter{}
	}

	duration, err := meter.Float64Histogram("webhook.delivery.duration",
		metric.WithDescription("Wall-clock duration of webhook delivery attempts"),
		metric.WithUnit("ms"))
	if err != nil {
		duration = noop.Float64Histogram{}
	}

	return instruments{deliveries: deliveries, duration: duration}
}

func (i instruments) record(ctx context.Context, event string, result Result) {
	status := "failed"
	if result.Success {
		status = "success"
	}
	attrs := metric.WithAttributes(
		attribute.String("event", event),
		attribute.String("status", status),
	)
	i.deliveries.Add(ctx, 1, attrs)
	i.duration.Record(ctx, float64(result.Duration)/float64(time.Millisecond), attrs)
}
