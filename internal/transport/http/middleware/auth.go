package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hallpass/hallpass/internal/session"
)

const errUnauthenticated = "Unauthenticated"

// Auth validates the session cookie and sets "userID" and "email" in
// the gin context. Validation is stateless; handlers needing the live
// user record re-fetch it by id.
func Auth(sessions *session.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential, err := c.Cookie(session.CookieName)
		if err != nil || credential == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthenticated})
			return
		}

		id, err := sessions.Validate(credential)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthenticated})
			return
		}

		c.Set("userID", id.UserID)
		c.Set("email", id.Email)
		c.Next()
	}
}
