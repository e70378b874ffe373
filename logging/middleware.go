package logging

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	logDataKey      = "logData"
	RequestIDHeader = "X-Request-ID"
)

// Middleware gives every request its own LogData and logs Handler.<route>.Complete or .Error
// once the handler chain returns. Handlers report failures with c.Error.
func Middleware(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		logData := NewLogData(logger)
		logData.AddData("requestId", requestID)
		logData.AddData("method", c.Request.Method)
		c.Set(logDataKey, logData)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		endTimer := logData.AddTiming("duration")
		c.Next()
		endTimer()

		logData.AddData("status", c.Writer.Status())
		if err := c.Errors.Last(); err != nil {
			logData.Log().WithError(err.Err).Errorf("Handler.%v.Error", route)
			return
		}
		logData.Log().Infof("Handler.%v.Complete", route)
	}
}

// GetLogData returns the request's LogData, or a fresh one bound to fallback outside the middleware.
func GetLogData(c *gin.Context, fallback logrus.FieldLogger) *LogData {
	if v, ok := c.Get(logDataKey); ok {
		if logData, ok := v.(*LogData); ok {
			return logData
		}
	}
	return NewLogData(fallback)
}
