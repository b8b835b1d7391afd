package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// RequestLabels returns the matched route template and the method of c for
// metric labels. Templates keep label cardinality bounded by the route table.
// fiber reuses request buffers, so both values are copied before they
// outlive the request.
func RequestLabels(c *fiber.Ctx) (route, method string) {
	return utils.CopyString(c.Route().Path), utils.CopyString(c.Method())
}

// RequestLogger logs every request once it completes and records its metrics.
// Register it ahead of the error handling middleware so the logged status is
// the one that was rendered.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			}
		}

		route, method := RequestLabels(c)
		metrics.RecordRequest(route, method, status, latency)

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.OriginalURL()),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("ip", c.IP()),
		}
		if traceID := TraceIDFromContext(c.UserContext()); traceID != "" {
			fields = append(fields, zap.String("trace_id", traceID))
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= fiber.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
		return err
	}
}
