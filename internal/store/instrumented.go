package store

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	metricsOnce     sync.Once
	storeOperations metric.Int64Counter
	storeDuration   metric.Float64Histogram
)

func initMetrics() {
	metricsOnce.Do(func() {
		meter := otel.Meter("github.com/ziouzitsou/etim-mcp-server/internal/store")

		var err error
		storeOperations, err = meter.Int64Counter(
			"store.operations",
			metric.WithDescription("Total store operations"),
		)
		if err != nil {
			otel.Handle(err)
		}

		storeDuration, err = meter.Float64Histogram(
			"store.operation.duration",
			metric.WithDescription("Store operation duration"),
			metric.WithUnit("s"),
		)
		if err != nil {
			otel.Handle(err)
		}
	})
}

// Instrumented wraps a Store with metrics instrumentation.
type Instrumented struct {
	wrapped   Store
	storeType string
}

// NewInstrumented creates an instrumented store wrapper.
func NewInstrumented(s Store, storeType string) *Instrumented {
	initMetrics()
	return &Instrumented{
		wrapped:   s,
		storeType: storeType,
	}
}

// Get retrieves a payload from the store.
func (i *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()

	payload, found, err := i.wrapped.Get(ctx, key)

	duration := time.Since(start)
	i.recordDuration(ctx, "get", duration)

	status := "miss"
	if err != nil {
		status = "error"
	} else if found {
		status = "hit"
	}
	i.recordOperation(ctx, "get", status)
	i.setSpanAttributes(ctx, "get", status, duration)

	return payload, found, err
}

// Set stores a payload in the store.
func (i *Instrumented) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	start := time.Now()

	err := i.wrapped.Set(ctx, key, payload, ttl)

	duration := time.Since(start)
	i.recordDuration(ctx, "set", duration)

	status := "success"
	if err != nil {
		status = "error"
	}
	i.recordOperation(ctx, "set", status)
	i.setSpanAttributes(ctx, "set", status, duration)

	return err
}

// Delete removes a payload from the store.
func (i *Instrumented) Delete(ctx context.Context, key string) error {
	start := time.Now()

	err := i.wrapped.Delete(ctx, key)

	duration := time.Since(start)
	i.recordDuration(ctx, "delete", duration)

	status := "success"
	if err != nil {
		status = "error"
	}
	i.recordOperation(ctx, "delete", status)
	i.setSpanAttributes(ctx, "delete", status, duration)

	return err
}

// Ping reports whether the store is reachable.
func (i *Instrumented) Ping(ctx context.Context) bool {
	ok := i.wrapped.Ping(ctx)

	status := "success"
	if !ok {
		status = "error"
	}
	i.recordOperation(ctx, "ping", status)

	return ok
}

// Close releases any resources held by the store.
func (i *Instrumented) Close() error {
	return i.wrapped.Close()
}

func (i *Instrumented) recordOperation(ctx context.Context, operation, status string) {
	if storeOperations == nil {
		return
	}
	storeOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("store.type", i.storeType),
			attribute.String("store.operation", operation),
			attribute.String("store.status", status),
		),
	)
}

func (i *Instrumented) recordDuration(ctx context.Context, operation string, duration time.Duration) {
	if storeDuration == nil {
		return
	}
	storeDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("store.type", i.storeType),
			attribute.String("store.operation", operation),
		),
	)
}

func (i *Instrumented) setSpanAttributes(ctx context.Context, operation, status string, duration time.Duration) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("store.type", i.storeType),
		attribute.String("store."+operation+".status", status),
		attribute.Float64("store."+operation+".duration", duration.Seconds()),
	)
}
