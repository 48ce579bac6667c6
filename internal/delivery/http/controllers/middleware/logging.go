package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mamadaliyev66/CAM-APP/pkg/logger"
)

func LoggingMiddleware(log logger.Log) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path += "?" + q
		}
		status := c.Writer.Status()

		log.Info(c.Request.Method+" "+path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)

		for _, ginErr := range c.Errors {
			log.ErrorErr("HTTP request error", ginErr.Err,
				"status", status,
				"method", c.Request.Method,
				"path", path,
			)
		}
	}
}
