package handler

import (
	"crypto/subtle"
	"net/http"

	"cross-site-rewards/internal/client"

	"github.com/gin-gonic/gin"
)

// RequireSecret rejects any request whose X-XSR-Secret header does not match
// the configured secret. An empty configured secret rejects everything.
func RequireSecret(secret string) gin.HandlerFunc {
	want := []byte(secret)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(client.SecretHeader))
		if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "missing or invalid shared secret")
			return
		}
		c.Next()
	}
}
