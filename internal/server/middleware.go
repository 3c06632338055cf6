package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ncobase/weibo-agent/ctxutil"
	"github.com/ncobase/weibo-agent/logging/logger"
)

const traceHeader = "X-Trace-ID"

// traceMiddleware reuses the caller's trace id or assigns one, and puts it
// on the request context so jobs submitted by the request carry it.
func traceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if id := c.GetHeader(traceHeader); id != "" {
			ctx = ctxutil.SetTraceID(ctx, id)
		}
		ctx, id := ctxutil.EnsureTraceID(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Header(traceHeader, id)
		c.Next()
	}
}

func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.Info(c.Request.Context(), "HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}
