package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDKey = "request_id"

// RequestIDHeader 请求 ID 透传头。
const RequestIDHeader = "X-Request-ID"

// RequestID 为每个请求分配 ID,调用方已携带时沿用。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestIDFromContext 取当前请求的 ID,没有时返回空串。
func RequestIDFromContext(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
