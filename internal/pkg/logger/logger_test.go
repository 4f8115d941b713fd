package logger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// resetLogger resets the global logger state for testing
func resetLogger() {
	baseLogger = nil
	initBaseLoggerOnce = sync.Once{}
}

// observe replaces the global logger with one recording every entry at or above level.
func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	resetLogger()
	t.Cleanup(resetLogger)

	core, logs := observer.New(level)
	baseLogger = zap.New(core).Sugar()
	return logs
}

func TestInit(t *testing.T) {
	t.Run("successful initialization with valid level", func(t *testing.T) {
		resetLogger()
		err := Init("info")
		require.NoError(t, err)
		assert.NotNil(t, baseLogger)
	})

	t.Run("error with invalid level", func(t *testing.T) {
		resetLogger()
		err := Init("invalid")
		assert.Error(t, err)
		assert.Nil(t, baseLogger)
	})

	t.Run("init only once", func(t *testing.T) {
		resetLogger()

		require.NoError(t, Init("debug"))
		firstLogger := baseLogger

		require.NoError(t, Init("error"))
		assert.Equal(t, firstLogger, baseLogger, "Init() should only initialize once")
	})
}

func TestLevels(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)
	ctx := t.Context()

	Debug(ctx, "debug message", "key", 1)
	Info(ctx, "info message", "key", 2)
	Warn(ctx, "warn message", "key", 3)
	Error(ctx, "error message", "key", 4)

	entries := logs.All()
	require.Len(t, entries, 4)

	expected := []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, entry := range entries {
		assert.Equal(t, expected[i], entry.Level)
		assert.EqualValues(t, i+1, entry.ContextMap()["key"])
	}
}

func TestDerive(t *testing.T) {
	t.Run("fields are carried by the context", func(t *testing.T) {
		logs := observe(t, zapcore.InfoLevel)

		ctx := Derive(t.Context(), "pipeline.stage", "capture")
		Info(ctx, "hello")

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "capture", logs.All()[0].ContextMap()["pipeline.stage"])
	})

	t.Run("derivations accumulate", func(t *testing.T) {
		logs := observe(t, zapcore.InfoLevel)

		ctx := Derive(t.Context(), "a", "1")
		ctx = Derive(ctx, "b", "2")
		Info(ctx, "hello")

		fields := logs.All()[0].ContextMap()
		assert.Equal(t, "1", fields["a"])
		assert.Equal(t, "2", fields["b"])
	})

	t.Run("trace identifiers are attached for sampled spans", func(t *testing.T) {
		logs := observe(t, zapcore.InfoLevel)

		tp := sdktrace.NewTracerProvider()
		defer tp.Shutdown(t.Context())

		ctx, span := tp.Tracer("test").Start(t.Context(), "span")
		defer span.End()

		Info(ctx, "traced")

		fields := logs.All()[0].ContextMap()
		assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
		assert.Equal(t, span.SpanContext().SpanID().String(), fields["span_id"])
	})

	t.Run("works without Init", func(t *testing.T) {
		resetLogger()

		assert.NotPanics(t, func() {
			ctx := Derive(t.Context(), "k", "v")
			Info(ctx, "nobody listens")
		})
	})
}

func TestSync(t *testing.T) {
	t.Run("sync without init is a no-op", func(t *testing.T) {
		resetLogger()
		assert.NoError(t, Sync())
	})

	t.Run("sync after init does not panic", func(t *testing.T) {
		resetLogger()
		require.NoError(t, Init("info"))

		assert.NotPanics(t, func() {
			_ = Sync()
		})
	})
}
