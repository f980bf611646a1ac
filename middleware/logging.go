package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ctxLoggerKey    = "logger"
	requestIDHeader = "X-Request-ID"
)

// RequestLogger tags each request with an id, stores a request scoped
// logger in the context and logs the outcome once the handler returns
func RequestLogger(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		log := base.With(zap.String("request_id", requestID))
		c.Set(ctxLoggerKey, log)

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if user := CurrentUser(c); user != nil {
			fields = append(fields, zap.Uint("user_id", user.ID))
		}
		if c.Writer.Status() >= 500 {
			log.Error("request", fields...)
			return
		}
		log.Info("request", fields...)
	}
}

// Logger returns the request scoped logger, or a no-op logger outside of
// RequestLogger
func Logger(c *gin.Context) *zap.Logger {
	if val, ok := c.Get(ctxLoggerKey); ok {
		if log, ok := val.(*zap.Logger); ok {
			return log
		}
	}
	return zap.NewNop()
}

// CORS allows browser clients from any origin
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
