package middleware

import (
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/moodtracker/pkg/errors"
	"github.com/charlesng35/moodtracker/pkg/logger"
	"github.com/charlesng35/moodtracker/pkg/response"
)

// Recovery converts panics into a 500 response. A panic caused by the client
// hanging up is logged as a warning and no body is written.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			log := logger.WithModule("http").With(
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
			)

			if brokenPipe(r) {
				log.Warn("client connection lost", zap.Any("error", r))
				c.Abort()
				return
			}

			log.Error("panic", zap.Any("error", r), zap.Stack("stack"))
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
				Success: false,
				Error:   errors.ErrInternalServer.Message,
				Code:    errors.ErrInternalServer.Code,
			})
		}()
		c.Next()
	}
}

func brokenPipe(r any) bool {
	err, ok := r.(error)
	if !ok {
		return false
	}
	if stderrors.Is(err, syscall.EPIPE) || stderrors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var opErr *net.OpError
	if stderrors.As(err, &opErr) {
		var sysErr *os.SyscallError
		if stderrors.As(opErr.Err, &sysErr) {
			msg := strings.ToLower(sysErr.Error())
			return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
		}
	}
	return false
}

// NotFoundHandler returns a JSON 404 response for unknown routes.
func NotFoundHandler(c *gin.Context) {
	response.Error(c, errors.ErrNotFound.WithMessage(fmt.Sprintf("route %s not found", c.Request.URL.Path)))
}
