package middlewares

import (
	"time"

	. "github.com/Luismorlan/feedsim/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	RequestIdHeader = "X-Request-Id"
	RequestIdKey    = "request_id"
	loggerKey       = "logger"
)

// RequestID tags every request with an id, taken from the X-Request-Id
// header when the caller sets one, and echoes it back in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIdHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(RequestIdKey, id)
		c.Set(loggerKey, Log.WithField(RequestIdKey, id))
		c.Writer.Header().Set(RequestIdHeader, id)
		c.Next()
	}
}

// AccessLog logs one line per request once it has been served.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := Logger(c).WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		if len(c.Errors) > 0 {
			entry.Warn(c.Errors.String())
			return
		}
		entry.Info("request served")
	}
}

// Logger returns the request scoped logger, falling back to the global one
// outside RequestID.
func Logger(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(loggerKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return Log
}
