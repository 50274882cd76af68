package parking

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultServiceName  = "city-parking"
	serviceVersion      = "1.0.0"
	defaultOTLPEndpoint = "http://localhost:4318"
)

type TelemetryOptions struct {
	ServiceName  string
	OTLPEndpoint string
	// ExportOTLP turns on the OTLP trace, metric and log exporters. The
	// Prometheus scrape endpoint is always available.
	ExportOTLP     bool
	ExportInterval time.Duration
}

type TelemetryProvider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	loggerProvider *sdklog.LoggerProvider
	registry       *prometheus.Registry
	tracer         trace.Tracer
	meter          metric.Meter
	serviceName    string
}

func NewTelemetryProvider(ctx context.Context, opts TelemetryOptions) (*TelemetryProvider, error) {
	serviceName := opts.ServiceName
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	endpoint := strings.TrimRight(opts.OTLPEndpoint, "/")
	if endpoint == "" {
		endpoint = defaultOTLPEndpoint
	}
	interval := opts.ExportInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	promExporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, err
	}

	traceOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}
	metricOpts := []sdkmetric.Option{
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
	}
	logOpts := []sdklog.LoggerProviderOption{
		sdklog.WithResource(res),
	}

	if opts.ExportOTLP {
		traceExporter, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(endpoint+"/v1/traces"),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return nil, err
		}
		traceOpts = append(traceOpts, sdktrace.WithBatcher(traceExporter))

		metricExporter, err := otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpointURL(endpoint+"/v1/metrics"),
			otlpmetrichttp.WithInsecure(),
		)
		if err != nil {
			return nil, err
		}
		metricOpts = append(metricOpts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(interval)),
		))

		logExporter, err := otlploghttp.New(ctx,
			otlploghttp.WithEndpointURL(endpoint+"/v1/logs"),
			otlploghttp.WithInsecure(),
		)
		if err != nil {
			return nil, err
		}
		logOpts = append(logOpts, sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)))
	}

	tracerProvider := sdktrace.NewTracerProvider(traceOpts...)
	meterProvider := sdkmetric.NewMeterProvider(metricOpts...)
	loggerProvider := sdklog.NewLoggerProvider(logOpts...)

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	global.SetLoggerProvider(loggerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TelemetryProvider{
		tracerProvider: tracerProvider,
		meterProvider:  meterProvider,
		loggerProvider: loggerProvider,
		registry:       registry,
		tracer:         tracerProvider.Tracer(serviceName),
		meter:          meterProvider.Meter(serviceName),
		serviceName:    serviceName,
	}, nil
}

// NewTestTelemetryProvider wires in-process providers around the given
// metric reader without touching the otel globals.
func NewTestTelemetryProvider(reader sdkmetric.Reader) *TelemetryProvider {
	tracerProvider := sdktrace.NewTracerProvider()
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return &TelemetryProvider{
		tracerProvider: tracerProvider,
		meterProvider:  meterProvider,
		registry:       prometheus.NewRegistry(),
		tracer:         tracerProvider.Tracer(defaultServiceName),
		meter:          meterProvider.Meter(defaultServiceName),
		serviceName:    defaultServiceName,
	}
}

func (tp *TelemetryProvider) Tracer() trace.Tracer {
	return tp.tracer
}

func (tp *TelemetryProvider) TracerProvider() trace.TracerProvider {
	return tp.tracerProvider
}

func (tp *TelemetryProvider) Meter() metric.Meter {
	return tp.meter
}

func (tp *TelemetryProvider) ServiceName() string {
	return tp.serviceName
}

// MetricsHandler serves the Prometheus view of the service metrics.
func (tp *TelemetryProvider) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(tp.registry, promhttp.HandlerOpts{Registry: tp.registry})
}

func (tp *TelemetryProvider) Shutdown(ctx context.Context) error {
	var errs []error
	if err := tp.tracerProvider.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := tp.meterProvider.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if tp.loggerProvider != nil {
		if err := tp.loggerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
