// Package middleware instruments the status API.
package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// HTTPMiddleware traces every request and records its duration and status.
func HTTPMiddleware(tracer trace.Tracer, meter metric.Meter, prefix string) gin.HandlerFunc {
	requestDuration, _ := meter.Float64Histogram(
		prefix+"_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)

	requestsTotal, _ := meter.Int64Counter(
		prefix+"_requests_total",
		metric.WithDescription("Total HTTP requests"),
	)

	return func(c *gin.Context) {
		start := time.Now()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethod(c.Request.Method),
				semconv.HTTPRoute(route),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		attrs := metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("route", route),
			attribute.Int("status", status),
		)
		if requestDuration != nil {
			requestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
		}
		if requestsTotal != nil {
			requestsTotal.Add(ctx, 1, attrs)
		}

		span.SetAttributes(semconv.HTTPStatusCode(status))
		if status >= 500 {
			span.RecordError(fmt.Errorf("HTTP %d", status))
		}
	}
}
