package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

// Recovery turns a handler panic into a 500 with the standard error body.
func Recovery(logger logging.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic in HTTP handler",
			logging.String("path", c.Request.URL.Path),
			logging.String("request_id", GetRequestID(c)),
			logging.String("panic", fmt.Sprint(recovered)),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"code":    errors.ErrCodeInternal,
			"message": "internal server error",
		})
	})
}

// BodyLimit caps request bodies at n bytes; n <= 0 disables the cap.
func BodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

// Timeout bounds the request context.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

//Personal.AI order the ending
