package middleware

import (
	"net/http" // HTTP status codes

	"figo_wallet/internal/domain" // Error taxonomy

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// Fail records err on the context and stops the chain; ErrorHandler renders it
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandler renders the last error pushed during the request. Operational
// errors are shown as-is; anything else is logged and hidden behind a 500.
func ErrorHandler(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		if appErr, ok := domain.AsAppError(err); ok {
			if appErr.StatusCode >= http.StatusInternalServerError {
				log.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
			}
			body := gin.H{"status": appErr.Status(), "message": appErr.Message}
			if appErr.Reason != "" {
				body["reason"] = appErr.Reason
			}
			c.JSON(appErr.StatusCode, body)
			return
		}

		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "Error", "message": "Something went wrong!"})
	}
}

// NoRoute answers unknown routes with a 404 Fail
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		Fail(c, domain.NotFound("Can't find "+c.Request.URL.Path+" on this server!"))
	}
}
