package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/log"
	"github.com/google/uuid"

	"student-analytics-server-go/logging"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an ID, echoed in the response header,
// and logs it once the handler has run.
func RequestLogger(logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(RequestIDHeader, id)

		c.Next()

		logging.LogWithTiming(logger, start, "request",
			"id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}
