// README: Recovery middleware; a handler panic becomes a 500.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tripflow/internal/log"
)

func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Errorf("panic in %s %s: %v", c.Request.Method, c.Request.URL.Path, rec)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
		}()
		c.Next()
	}
}
