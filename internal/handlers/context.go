package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
)

// requestContext returns the request context, or a background context when
// the handler is driven without a request in tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil || c.Request == nil {
		return context.Background()
	}
	return c.Request.Context()
}
