package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/propertyhub/backend/internal/interfaces/http/dto"
)

// BodyLimit rejects bodies larger than maxBytes. Declared lengths are refused
// up front; streamed bodies fail on read.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size",
				c.GetString(requestIDKey),
			))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
