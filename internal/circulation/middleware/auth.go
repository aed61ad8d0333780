package middleware

import (
	"net/http"
	"strings"

	"library-circulation/internal/middleware/auth"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	StudentIDKey = "studentID"
	RoleKey      = "role"
	ClaimsKey    = "claims"
)

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	ValidateToken(tokenString string) (*auth.StudentClaims, error)
}

// AuthMiddleware is a Gin middleware for JWT authentication of API requests
// It checks for the presence and validity of a JWT token in the Authorization header
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing authorization header"})
			return
		}

		// Extract token (format: "Bearer <token>")
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid authorization header format"})
			return
		}

		claims, err := verifier.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid token"})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(StudentIDKey, claims.StudentID)
		c.Set(RoleKey, claims.Role)

		c.Next()
	}
}

// RequireStudentParam lets a request through only when the student named by
// the path parameter is the authenticated student. Roles listed in staff may
// act on any student.
func RequireStudentParam(param string, staff ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		studentID := c.GetString(StudentIDKey)
		if studentID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "student not authenticated"})
			return
		}

		if c.Param(param) == studentID || hasRole(c.GetString(RoleKey), staff) {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "cannot access another student's borrowings"})
	}
}

// IsStaff reports whether the authenticated caller holds one of roles.
func IsStaff(c *gin.Context, roles ...string) bool {
	return hasRole(c.GetString(RoleKey), roles)
}

func hasRole(role string, roles []string) bool {
	if role == "" {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
