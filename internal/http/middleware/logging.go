// README: Request logging middleware over the zap facade.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"tripflow/internal/log"
)

func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Infof("%s %s %d %s rid=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(),
			time.Since(start).Round(time.Millisecond), c.GetString("request_id"))
	}
}
