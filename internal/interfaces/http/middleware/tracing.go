package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ecomdash/backend/internal/infrastructure/telemetry"
)

var (
	attrRequestID = attribute.Key("request_id")
	attrRegions   = attribute.Key("dashboard.regions")
)

// TracingConfig holds configuration for the tracing middleware
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing starts a server span per request. Spans are named after the route
// pattern, e.g. "GET /api/v1/dashboard/views/:slug". Disabled tracing
// passes requests through untouched.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// SpanDecorator tags the request span with the request ID, the requested view
// and region filter, and records the errors handlers attached to the context.
// It must run after Tracing and RequestID.
func SpanDecorator() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		if id := GetRequestID(c); id != "" {
			span.SetAttributes(attrRequestID.String(id))
		}
		if slug := c.Param("slug"); slug != "" {
			span.SetAttributes(telemetry.SpanView.String(slug))
		}
		if regions, ok := c.GetQueryArray("region"); ok {
			span.SetAttributes(attrRegions.StringSlice(regions))
		}

		c.Next()

		for _, e := range c.Errors {
			span.RecordError(e.Err)
		}
	}
}
