package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"campus-teranga/internal/domain"
	"campus-teranga/internal/service"
)

const authUserKey = "auth_user"

// RequireAuth is the authentication gate: it turns a bearer token into a
// resolved, active credential record or rejects the request. A missing,
// invalid or expired token and a token whose account no longer exists are all
// the same 401; a suspended account is the one case reported as 403, because
// the token and the account are both fine and only access is withdrawn.
func RequireAuth(jwtSvc *service.JWTService, users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authentication required"})
			c.Abort()
			return
		}

		claims, err := jwtSvc.Verify(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or expired token"})
			c.Abort()
			return
		}

		// The account behind a valid token may have been deleted since issuance.
		user, err := users.GetByID(c.Request.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or expired token"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
			}
			c.Abort()
			return
		}

		if !user.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Account is deactivated"})
			c.Abort()
			return
		}

		c.Set(authUserKey, user)
		c.Next()
	}
}

// RequireRole layers a role predicate over an already-authenticated request.
// It must run after RequireAuth; the token is not verified a second time.
func RequireRole(min domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetAuthUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authentication required"})
			c.Abort()
			return
		}
		if !user.Role.AtLeast(min) {
			message := "Access denied. Admin privileges required."
			if min == domain.RoleSuperAdmin {
				message = "Access denied. Super admin privileges required."
			}
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": message})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetAuthUser returns the credential record resolved by RequireAuth.
func GetAuthUser(c *gin.Context) (domain.User, bool) {
	val, ok := c.Get(authUserKey)
	if !ok {
		return domain.User{}, false
	}
	user, ok := val.(domain.User)
	return user, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[len("Bearer "):])
	return token, token != ""
}
