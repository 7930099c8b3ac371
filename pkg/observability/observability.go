package observability

import (
	"context"
	"time"

	"github.com/fbmoulin/2avaracivel-cariacica-website/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// SetupTracing initializes OpenTelemetry tracing with a stdout exporter
// (replace with OTLP in prod)
func SetupTracing(serviceName string, log *logger.Logger) func() {
	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		log.LogError(err, "failed to initialize stdouttrace exporter")
		return func() {}
	}
	res, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	provider := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return func() { _ = provider.Shutdown(context.Background()) }
}

// SetupMetrics initializes the Prometheus metrics exporter. The returned
// provider is registered globally; the /metrics endpoint is served by
// MetricsHandler on the main router.
func SetupMetrics(log *logger.Logger) *sdkmetric.MeterProvider {
	exp, err := prometheus.New()
	if err != nil {
		log.LogError(err, "failed to initialize prometheus exporter")
		return nil
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp))
	otel.SetMeterProvider(mp)
	return mp
}

// MetricsHandler returns the Prometheus scrape handler wrapped for Gin
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// ChatMetrics holds the instruments recorded on every chat exchange
type ChatMetrics struct {
	Requests metric.Int64Counter
	Errors   metric.Int64Counter
	Latency  metric.Float64Histogram
	CacheHit metric.Int64Counter
}

// NewChatMetrics creates the chat instruments on the global meter
func NewChatMetrics() (*ChatMetrics, error) {
	meter := otel.Meter("chatbot")

	requests, err := meter.Int64Counter("chatbot_requests_total",
		metric.WithDescription("Total chat messages handled"))
	if err != nil {
		return nil, err
	}
	errors, err := meter.Int64Counter("chatbot_errors_total",
		metric.WithDescription("Chat messages that ended in an error"))
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("chatbot_response_seconds",
		metric.WithDescription("Chat response latency"))
	if err != nil {
		return nil, err
	}
	cacheHit, err := meter.Int64Counter("chatbot_cache_hits_total",
		metric.WithDescription("Responses served from the cache"))
	if err != nil {
		return nil, err
	}

	return &ChatMetrics{
		Requests: requests,
		Errors:   errors,
		Latency:  latency,
		CacheHit: cacheHit,
	}, nil
}

// Middleware records per-request metrics for the chat endpoints
func (m *ChatMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		attrs := metric.WithAttributes(
			attribute.String("endpoint", c.FullPath()),
			attribute.Int("status", c.Writer.Status()),
		)
		ctx := c.Request.Context()
		m.Requests.Add(ctx, 1, attrs)
		m.Latency.Record(ctx, time.Since(start).Seconds(), attrs)
		if c.Writer.Status() >= 400 {
			m.Errors.Add(ctx, 1, attrs)
		}
	}
}
