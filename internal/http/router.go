package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"campus-teranga/internal/domain"
	"campus-teranga/internal/service"
)

// NewRouter configures the gin router with middlewares and routes.
func NewRouter(
	logger *zap.Logger,
	pool *pgxpool.Pool,
	jwtSvc *service.JWTService,
	userSvc *service.UserService,
	authH *AuthHandler,
	adminH *AdminHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/health", healthHandler(pool))

	// The authentication gate runs once; the role tiers only layer a
	// predicate over the record it resolved.
	requireAuth := RequireAuth(jwtSvc, userSvc)

	auth := r.Group("/api/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)
	auth.POST("/logout", requireAuth, authH.Logout)
	auth.GET("/me", requireAuth, authH.Me)
	auth.PUT("/profile", requireAuth, authH.UpdateProfile)
	auth.PUT("/password", requireAuth, authH.ChangePassword)
	auth.PUT("/deactivate", requireAuth, authH.Deactivate)

	admin := r.Group("/api/admin", requireAuth, RequireRole(domain.RoleAdmin))
	admin.GET("/users", adminH.ListUsers)
	admin.GET("/users/:id", adminH.GetUser)
	admin.PUT("/users/:id", adminH.UpdateUser)
	admin.DELETE("/users/:id", RequireRole(domain.RoleSuperAdmin), adminH.DeleteUser)

	return r
}

func healthHandler(pool *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if pool != nil {
			if err := pool.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Database not connected. Please try again later."})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
	}
}

// zapLoggerMiddleware logs each request with zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware forces Content-Type: application/json on responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
