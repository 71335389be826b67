package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/booklend/go-booklend-backend/internal/users"
)

// emailKey is where the middleware stores the verified caller email.
const emailKey = "decoded_email"

// DecodedEmail returns the verified email of the caller, set by RequireAuth.
func DecodedEmail(c *gin.Context) string {
	return c.GetString(emailKey)
}

// RequireAuth verifies the Authorization bearer token and stores the caller's
// email in the request context. Tokens are HS256, with the email in the
// "email" claim (falling back to the subject).
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthorized access"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthorized access"})
			return
		}

		email, err := verifyToken(parts[1], secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthorized access"})
			return
		}

		c.Set(emailKey, email)
		c.Next()
	}
}

func verifyToken(raw string, secret []byte) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("unexpected claims type")
	}
	if email, ok := claims["email"].(string); ok && email != "" {
		return email, nil
	}
	if sub, _ := claims.GetSubject(); sub != "" {
		return sub, nil
	}
	return "", fmt.Errorf("token carries no email")
}

// RequireAdmin gates a route to Admin users. Must run after RequireAuth; the
// role comes from the user record, not the token, so demotions apply
// immediately.
func RequireAdmin(store *users.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := DecodedEmail(c)
		u, err := store.GetByEmail(c.Request.Context(), email)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "role lookup failed"})
			return
		}
		if u == nil || u.Role != users.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "forbidden access"})
			return
		}
		c.Next()
	}
}
