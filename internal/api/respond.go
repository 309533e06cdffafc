package api

import (
	"net/http"

	"peakform/coach-app/internal/logger"

	"github.com/gin-gonic/gin"
)

// respondData wraps a successful payload in the function-response envelope.
func respondData(c *gin.Context, code int, data any) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

// abortWithError returns the error envelope and stops the chain.
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// abortInternal logs the real error and returns a generic message. Provider
// and backend failures never leak their raw text to callers.
func abortInternal(c *gin.Context, err error, message string) {
	logger.Error("handler error", "error", err, "method", c.Request.Method, "path", c.Request.URL.Path)
	abortWithError(c, http.StatusInternalServerError, message)
}
