// obs настраивает трассировку OpenTelemetry.
package obs

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/pribylovaa/go-diary-auth/internal/config"
)

// OTel держит провайдер трейсов, чтобы корректно его остановить.
type OTel struct {
	TracerProvider *sdktrace.TracerProvider
}

// SetupOTel ставит глобальный пропагатор W3C (traceparent + baggage) всегда,
// а экспорт через OTLP/gRPC — только при cfg.Enable.
func SetupOTel(ctx context.Context, cfg config.TracingConfig) (*OTel, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	if !cfg.Enable {
		return &OTel{}, nil
	}

	ratio, err := cfg.Ratio()
	if err != nil {
		return nil, fmt.Errorf("obs.SetupOTel: %w", err)
	}

	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("obs.SetupOTel: exporter: %w", err)
	}

	sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp, sdktrace.WithMaxExportBatchSize(512), sdktrace.WithBatchTimeout(2*time.Second)),
		sdktrace.WithSampler(sampler),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
		)),
	)
	otel.SetTracerProvider(tp)

	return &OTel{TracerProvider: tp}, nil
}

// Shutdown сбрасывает накопленные спаны.
func (o *OTel) Shutdown(ctx context.Context) error {
	if o.TracerProvider != nil {
		return o.TracerProvider.Shutdown(ctx)
	}

	return nil
}
