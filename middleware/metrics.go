package middleware

import (
	"context"
	"strings"
	"time"

	awspkg "raffle-bff/pkg/aws"
	"raffle-bff/reconcile"

	"github.com/gin-gonic/gin"
)

// RequestMetrics is the part of the CloudWatch client the middleware uses.
type RequestMetrics interface {
	IsEnabled() bool
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
	RecordLatency(ctx context.Context, metricName string, duration time.Duration, dimensions map[string]string) error
}

// MetricsMiddleware records request counts, latency and error classes per
// shop area and caller kind. Nothing is recorded when metrics are disabled.
func MetricsMiddleware(metrics RequestMetrics, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil || !metrics.IsEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)
		statusCode := c.Writer.Status()
		dimensions := requestDimensions(c, serviceName)

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			_ = metrics.RecordCount(ctx, awspkg.MetricHTTPRequests, dimensions)
			_ = metrics.RecordLatency(ctx, awspkg.MetricHTTPLatency, duration, dimensions)
			if statusCode >= 400 {
				_ = metrics.RecordCount(ctx, awspkg.MetricHTTPErrors, dimensions)
				if statusCode >= 500 {
					_ = metrics.RecordCount(ctx, awspkg.MetricHTTP5xx, dimensions)
				} else {
					_ = metrics.RecordCount(ctx, awspkg.MetricHTTP4xx, dimensions)
				}
			}
		}()
	}
}

func requestDimensions(c *gin.Context, serviceName string) map[string]string {
	return map[string]string{
		"Service": serviceName,
		"Method":  c.Request.Method,
		"Area":    routeArea(c.FullPath()),
		"Caller":  callerKind(c),
		"Status":  statusCodeToRange(c.Writer.Status()),
	}
}

// routeArea names the part of the shop a route belongs to: the first segment
// under /bff (gifts, cart, orders, admin, auth, preferences), or health.
func routeArea(fullPath string) string {
	if fullPath == "" {
		return "unmatched"
	}
	rest := strings.TrimPrefix(strings.TrimPrefix(fullPath, "/bff"), "/")
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return "root"
	}
	return rest
}

// callerKind is admin, shopper or anonymous. It reads the owner RequireAuth
// left on the context, so it is only accurate after the handlers ran.
func callerKind(c *gin.Context) string {
	v, ok := c.Get(OwnerContextKey)
	if !ok {
		return "anonymous"
	}
	owner, ok := v.(reconcile.Owner)
	switch {
	case !ok || owner.Identity.IsZero():
		return "anonymous"
	case owner.Identity.IsAdmin():
		return "admin"
	default:
		return "shopper"
	}
}

func statusCodeToRange(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
