// Package tracing installs an OpenTelemetry tracer provider whose spans are
// written to the application logger.
package tracing

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/vsinha/wms/pkg/infrastructure/logging"
)

// ZapExporter writes finished spans as debug log entries
type ZapExporter struct {
	logger *zap.Logger
}

// Verify interface compliance
var _ sdktrace.SpanExporter = (*ZapExporter)(nil)

// NewZapExporter creates an exporter logging to logger
func NewZapExporter(logger *zap.Logger) *ZapExporter {
	return &ZapExporter{logger: logging.OrNop(logger).Named("trace")}
}

// ExportSpans implements sdktrace.SpanExporter
func (e *ZapExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		fields := []zap.Field{
			zap.String("trace_id", span.SpanContext().TraceID().String()),
			zap.String("span_id", span.SpanContext().SpanID().String()),
			zap.Duration("duration", span.EndTime().Sub(span.StartTime())),
			zap.String("status", span.Status().Code.String()),
		}
		for _, attr := range span.Attributes() {
			fields = append(fields, zap.String(string(attr.Key), attr.Value.Emit()))
		}
		if desc := span.Status().Description; desc != "" {
			fields = append(fields, zap.String("status_description", desc))
		}
		e.logger.Debug(span.Name(), fields...)
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter
// Sync errors on terminals are ignored.
func (e *ZapExporter) Shutdown(context.Context) error {
	_ = e.logger.Sync()
	return nil
}

// NewProvider creates a tracer provider exporting synchronously to logger
func NewProvider(logger *zap.Logger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(sdktrace.WithSyncer(NewZapExporter(logger)))
}
