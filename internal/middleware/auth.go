package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// ActorIDKey is the context key for the authenticated actor's ID.
	ActorIDKey = "actor_id"
	// ActorRoleKey is the context key for the authenticated actor's role.
	ActorRoleKey = "actor_role"

	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer"
)

// Auth creates a middleware that verifies the JWT bearer token and stores
// the actor identity (sub and role claims) in the Gin context. The token is
// issued by the external identity provider; this service only verifies the
// signature and records the identity it is given.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authorizationHeader)
		if header == "" {
			abortUnauthorized(c, "Missing authorization header")
			return
		}

		fields := strings.Fields(header)
		if len(fields) != 2 || !strings.EqualFold(fields[0], bearerPrefix) {
			abortUnauthorized(c, "Authorization header must be in 'Bearer <token>' form")
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(fields[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		actorID, ok := claims["sub"].(string)
		if !ok || actorID == "" {
			abortUnauthorized(c, "Token is missing the subject claim")
			return
		}

		// Role defaults to operator when the claim is absent.
		role := "operator"
		if claimedRole, ok := claims["role"].(string); ok && claimedRole != "" {
			role = claimedRole
		}

		c.Set(ActorIDKey, actorID)
		c.Set(ActorRoleKey, role)

		c.Next()
	}
}

// RequireRole creates a middleware that rejects requests whose actor role is
// not in the allowed set. It must run after Auth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetActorRole(c)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": gin.H{
				"code":       "FORBIDDEN",
				"message":    "Insufficient permissions for this operation",
				"request_id": GetRequestID(c),
			},
		})
	}
}

// GetActorID retrieves the authenticated actor's ID from the Gin context.
// Returns an empty string if not set.
func GetActorID(c *gin.Context) string {
	if actorID, exists := c.Get(ActorIDKey); exists {
		if id, ok := actorID.(string); ok {
			return id
		}
	}
	return ""
}

// GetActorRole retrieves the authenticated actor's role from the Gin context.
// Returns an empty string if not set.
func GetActorRole(c *gin.Context) string {
	if role, exists := c.Get(ActorRoleKey); exists {
		if r, ok := role.(string); ok {
			return r
		}
	}
	return ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":       "UNAUTHORIZED",
			"message":    message,
			"request_id": GetRequestID(c),
		},
	})
}
