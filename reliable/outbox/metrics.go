package outbox

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type dispatcherMetrics struct {
	delivered    metric.Int64Counter
	failed       metric.Int64Counter
	deadLettered metric.Int64Counter
	tickLatency  metric.Float64Histogram
	queueDepth   metric.Int64Gauge
}

func newDispatcherMetrics(provider metric.MeterProvider) (dispatcherMetrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}

	meter := provider.Meter("reliable.outbox.dispatcher")

	var (
		metrics dispatcherMetrics
		err     error
	)

	metrics.delivered, err = meter.Int64Counter(
		"outbox.messages.delivered",
		metric.WithDescription("Number of outbox messages accepted by the sink"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return dispatcherMetrics{}, fmt.Errorf("create outbox.messages.delivered counter: %w", err)
	}

	metrics.failed, err = meter.Int64Counter(
		"outbox.messages.failed",
		metric.WithDescription("Number of failed delivery attempts"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return dispatcherMetrics{}, fmt.Errorf("create outbox.messages.failed counter: %w", err)
	}

	metrics.deadLettered, err = meter.Int64Counter(
		"outbox.messages.dead_lettered",
		metric.WithDescription("Number of messages moved to the dead-letter table"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return dispatcherMetrics{}, fmt.Errorf("create outbox.messages.dead_lettered counter: %w", err)
	}

	metrics.tickLatency, err = meter.Float64Histogram(
		"outbox.dispatch.latency",
		metric.WithDescription("Time taken per dispatch cycle"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return dispatcherMetrics{}, fmt.Errorf("create outbox.dispatch.latency histogram: %w", err)
	}

	metrics.queueDepth, err = meter.Int64Gauge(
		"outbox.queue.depth",
		metric.WithDescription("Number of outbox messages awaiting delivery"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return dispatcherMetrics{}, fmt.Errorf("create outbox.queue.depth gauge: %w", err)
	}

	return metrics, nil
}
