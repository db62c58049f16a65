// Package middleware provides HTTP middleware for the status API:
// optional API key authentication and slog-based request logging.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the JSON body returned for a rejected request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RequireAPIKey enforces a shared-secret API key sent as
// X-API-Key: <key>. An empty expected key disables enforcement, since
// callers only wire this middleware in when a key was configured.
func RequireAPIKey(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader("X-API-Key")
		if expected == "" || got == expected {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
}
