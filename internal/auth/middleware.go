package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hackhub/internal/domain"
)

const claimsKey = "claims"

// Bearer enforces bearer JWT tokens signed with HS256 and stashes the
// parsed claims on the gin context.
func Bearer(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole rejects requests whose token does not carry one of the given
// roles. Must run after Bearer.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := FromContext(c)
		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}

// FromContext returns the claims Bearer stored, or zero claims.
func FromContext(c *gin.Context) Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(Claims); ok {
			return claims
		}
	}
	return Claims{}
}
