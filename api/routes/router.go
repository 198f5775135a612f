// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"authgate/internal/auth"
	"authgate/internal/shared/config"
	"authgate/internal/shared/database"
	"authgate/internal/tokens"
	"authgate/internal/users"
)

// Router holds all route dependencies
type Router struct {
	config *config.Config
	db     *database.DB
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB) *Router {
	return &Router{
		config: cfg,
		db:     db,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupAuthRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "authgate",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "authgate",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupAuthRoutes wires the user directory, token codec, resolvers and
// session issuer into the auth controller
func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	directory := users.NewService(users.NewRepository(r.db.GetPostgreSQL()))

	codec := tokens.NewCodec(r.config.JWT.Secret)
	issuer := auth.NewIssuer(codec, r.config.JWT.AccessTTL, r.config.JWT.RefreshTTL)

	passwords := auth.NewPasswordResolver(directory)
	google := auth.NewGoogleResolver(directory, r.config.Google.TokenInfoURL, r.config.Google.Timeout)

	authService := auth.NewService(directory, passwords, google, issuer, codec)
	authController := auth.NewController(authService, r.config)
	authRouter := auth.NewRouter(authController, r.config)

	authRouter.SetupRoutes(rg)
}
