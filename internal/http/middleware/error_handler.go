package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/culturekart/marketplace-backend/internal/pkg/apperror"
)

// ErrorHandler turns errors attached to the context into JSON responses.
// Internal details never reach the client; they go to the log.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		logrus.WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Error("request error")

		// Handlers usually answered already and attached the error just for
		// logging.
		if c.Writer.Written() {
			return
		}

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message, "code": string(appErr.Code)})
			return
		}

		message := "internal server error"
		if msg := err.Error(); msg != "" && !looksInternal(msg) {
			message = msg
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}

func looksInternal(s string) bool {
	lowered := strings.ToLower(s)
	for _, keyword := range []string{"sql:", "database", "connection", "timeout", "internal", "panic", "runtime"} {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
