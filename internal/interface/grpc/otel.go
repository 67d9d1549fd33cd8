package grpcservice

import (
	"context"
	"runtime/metrics"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	metricExport "go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	traceExport "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

const serviceName = "raffled"

// Runtime gauges exported alongside the traces.
var runtimeMetrics = []string{
	"/sched/goroutines:goroutines",
	"/gc/heap/live:bytes",
	"/memory/classes/total:bytes",
	"/sync/mutex/wait/total:seconds",
}

func initOtelSDK(ctx context.Context, otelCollectorUrl string) (func(context.Context) error, error) {
	otelCollectorUrl = strings.TrimSuffix(otelCollectorUrl, "/")
	endpoint := strings.TrimPrefix(otelCollectorUrl, "http://")

	traceExp, err := traceExport.New(
		ctx,
		traceExport.WithEndpoint(endpoint),
		traceExport.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	tp := trace.NewTracerProvider(
		trace.WithBatcher(traceExp),
		trace.WithResource(res),
	)

	metricExp, err := metricExport.New(
		ctx,
		metricExport.WithEndpoint(endpoint),
		metricExport.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(
		metricExp,
		sdkmetric.WithInterval(5*time.Second),
	)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	if err := collectRuntimeMetrics(otel.Meter("raffle.runtime")); err != nil {
		log.WithError(err).Warn("failed to register runtime metrics")
	}

	shutdown := func(ctx context.Context) error {
		err1 := tp.Shutdown(ctx)
		err2 := mp.Shutdown(ctx)
		if err1 != nil {
			return err1
		}
		return err2
	}

	log.Info("otel sdk initialized")

	return shutdown, nil
}

func collectRuntimeMetrics(m metric.Meter) error {
	gauges := make(map[string]metric.Float64ObservableGauge)
	observables := make([]metric.Observable, 0, len(runtimeMetrics))
	for _, name := range runtimeMetrics {
		g, err := m.Float64ObservableGauge(
			runtimeMetricName(name),
			metric.WithDescription("runtime metric for "+name),
		)
		if err != nil {
			return err
		}
		gauges[name] = g
		observables = append(observables, g)
	}

	samples := make([]metrics.Sample, 0, len(runtimeMetrics))
	for _, name := range runtimeMetrics {
		samples = append(samples, metrics.Sample{Name: name})
	}

	_, err := m.RegisterCallback(
		func(_ context.Context, obs metric.Observer) error {
			metrics.Read(samples)
			for _, sample := range samples {
				var val float64
				switch sample.Value.Kind() {
				case metrics.KindUint64:
					val = float64(sample.Value.Uint64())
				case metrics.KindFloat64:
					val = sample.Value.Float64()
				default:
					continue
				}
				obs.ObserveFloat64(gauges[sample.Name], val)
			}
			return nil
		},
		observables...,
	)
	return err
}

// runtimeMetricName converts "/gc/heap/live:bytes" to "raffle_gc_heap_live_bytes".
func runtimeMetricName(name string) string {
	clean := strings.NewReplacer("/", "_", ":", "_", "-", "_").Replace(name)
	return "raffle" + clean
}
