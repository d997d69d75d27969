package tracing

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/ecovision-go/service/lgr"
)

const serviceName = "ecovision"

// ShutdownFunc flushes pending spans.
type ShutdownFunc func(ctx context.Context) error

// Init installs the global tracer provider for the given exporter.
// "off" (or empty) leaves the no-op provider in place.
func Init(exporter string, w io.Writer) (ShutdownFunc, error) {
	var exp sdktrace.SpanExporter

	switch exporter {
	case "", "off":
		return func(context.Context) error { return nil }, nil

	case "stdout":
		stdoutExp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, xerrors.Errorf("error creating stdout exporter: %w", err)
		}
		exp = stdoutExp

	default:
		return nil, xerrors.Errorf("unknown tracing exporter %q", exporter)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
	)
	otel.SetTracerProvider(tp)

	lgr.Logger.Info("tracing enabled", slog.String("exporter", exporter))
	return tp.Shutdown, nil
}
