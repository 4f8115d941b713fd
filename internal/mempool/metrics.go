package mempool

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/gabapcia/poolhistory/internal/mempool"

const (
	abandonReasonKey = attribute.Key("reason")

	abandonReasonNotFound      = "not_found"
	abandonReasonLookupFailure = "lookup_failure"
)

// metrics groups the instruments recorded by the pipeline.
type metrics struct {
	captured  metric.Int64Counter
	resolved  metric.Int64Counter
	missed    metric.Int64Counter
	failed    metric.Int64Counter
	retried   metric.Int64Counter
	abandoned metric.Int64Counter
	retrySize metric.Int64Gauge
}

func newMetrics(provider metric.MeterProvider) (*metrics, error) {
	meter := provider.Meter(instrumentationName)

	captured, errCaptured := meter.Int64Counter("mempool.hashes.captured",
		metric.WithDescription("Pending transaction hashes pushed into the relay queue"),
	)
	resolved, errResolved := meter.Int64Counter("mempool.transactions.resolved",
		metric.WithDescription("Hashes resolved into full transactions"),
	)
	missed, errMissed := meter.Int64Counter("mempool.lookups.missed",
		metric.WithDescription("Lookups answered with transaction not found"),
	)
	failed, errFailed := meter.Int64Counter("mempool.lookups.failed",
		metric.WithDescription("Lookups that failed with a transport error"),
	)
	retried, errRetried := meter.Int64Counter("mempool.lookups.retried",
		metric.WithDescription("Lookups retried in place after a transport error"),
	)
	abandoned, errAbandoned := meter.Int64Counter("mempool.hashes.abandoned",
		metric.WithDescription("Hashes dropped from the retry set after exhausting their retries"),
	)
	retrySize, errRetrySize := meter.Int64Gauge("mempool.retry_set.size",
		metric.WithDescription("Hashes waiting in the retry set after a resolution pass"),
	)

	if err := errors.Join(errCaptured, errResolved, errMissed, errFailed, errRetried, errAbandoned, errRetrySize); err != nil {
		return nil, err
	}

	return &metrics{
		captured:  captured,
		resolved:  resolved,
		missed:    missed,
		failed:    failed,
		retried:   retried,
		abandoned: abandoned,
		retrySize: retrySize,
	}, nil
}

func (m *metrics) hashCaptured(ctx context.Context) {
	m.captured.Add(ctx, 1)
}

func (m *metrics) transactionResolved(ctx context.Context) {
	m.resolved.Add(ctx, 1)
}

func (m *metrics) lookupMissed(ctx context.Context) {
	m.missed.Add(ctx, 1)
}

func (m *metrics) lookupFailed(ctx context.Context) {
	m.failed.Add(ctx, 1)
}

func (m *metrics) lookupRetried(ctx context.Context) {
	m.retried.Add(ctx, 1)
}

func (m *metrics) hashAbandoned(ctx context.Context, reason string) {
	m.abandoned.Add(ctx, 1, metric.WithAttributes(abandonReasonKey.String(reason)))
}

func (m *metrics) retrySetSize(ctx context.Context, size int) {
	m.retrySize.Record(ctx, int64(size))
}
