package config

import (
	"context"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/raceviz/race-view-service-go/log"
	"github.com/raceviz/race-view-service-go/version"
)

type Telemetry struct {
	meterProvider *metric.MeterProvider
	traceProvider *sdktrace.TracerProvider
}

func (t *Telemetry) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if t.meterProvider != nil {
		if err := t.meterProvider.Shutdown(ctx); err != nil {
			log.Warn("could not shutdown meter provider", log.ErrorField(err))
		}
	}
	if t.traceProvider != nil {
		if err := t.traceProvider.Shutdown(ctx); err != nil {
			log.Warn("could not shutdown trace provider", log.ErrorField(err))
		}
	}
}

// SetupTelemetry initializes otel providers.
// With an empty TelemetryEndpoint the stdout exporters are used.
func SetupTelemetry(ctx context.Context) (*Telemetry, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName("race-view-service"),
			semconv.ServiceVersion(version.Version),
		))
	if err != nil {
		return nil, err
	}

	var (
		metricExp metric.Exporter
		traceExp  sdktrace.SpanExporter
	)
	if TelemetryEndpoint == "" {
		if metricExp, err = stdoutmetric.New(
			stdoutmetric.WithWriter(os.Stderr)); err != nil {
			return nil, err
		}
		if traceExp, err = stdouttrace.New(
			stdouttrace.WithWriter(os.Stderr)); err != nil {
			return nil, err
		}
	} else {
		if metricExp, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(TelemetryEndpoint),
			otlpmetricgrpc.WithInsecure()); err != nil {
			return nil, err
		}
		if traceExp, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(TelemetryEndpoint),
			otlptracegrpc.WithInsecure()); err != nil {
			return nil, err
		}
	}

	ret := &Telemetry{
		meterProvider: metric.NewMeterProvider(
			metric.WithResource(res),
			metric.WithReader(metric.NewPeriodicReader(metricExp,
				metric.WithInterval(15*time.Second)))),
		traceProvider: sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithBatcher(traceExp)),
	}
	otel.SetMeterProvider(ret.meterProvider)
	otel.SetTracerProvider(ret.traceProvider)
	return ret, nil
}
