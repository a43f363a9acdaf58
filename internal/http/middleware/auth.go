package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"outreach.app/courier/internal/http/dto"
)

// AdminAuth requires X-API-Key (or a bearer token) to equal apiKey. With no key configured
// the admin API is unavailable.
func AdminAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.Fail("admin API not configured"))
			return
		}

		got := c.GetHeader("X-API-Key")
		if got == "" {
			got, _ = strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		}

		if subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail("invalid or missing API key"))
			return
		}

		c.Next()
	}
}
