package api

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// OtelHandler decorates slog records with the active trace and span IDs so
// log lines can be correlated with traces.
type OtelHandler struct {
	slog.Handler
}

func (h *OtelHandler) Handle(ctx context.Context, record slog.Record) error {
	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		record.AddAttrs(
			slog.String("trace_id", span.TraceID().String()),
			slog.String("span_id", span.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, record)
}

func (h *OtelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &OtelHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *OtelHandler) WithGroup(name string) slog.Handler {
	return &OtelHandler{Handler: h.Handler.WithGroup(name)}
}

// SetupGlobalLogger installs a JSON slog handler tagged with the service
// name as the process-wide default.
func SetupGlobalLogger(serviceName string) {
	base := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(&OtelHandler{Handler: base}).With("service", serviceName)
	slog.SetDefault(logger)
}
