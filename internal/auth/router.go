package auth

import (
	"github.com/gin-gonic/gin"

	"authgate/internal/shared/config"
	"authgate/internal/shared/middleware"
)

// Router handles auth-related routes
type Router struct {
	controller *Controller
	config     *config.Config
}

func NewRouter(controller *Controller, cfg *config.Config) *Router {
	return &Router{
		controller: controller,
		config:     cfg,
	}
}

// SetupRoutes registers all auth routes
func (authRouter *Router) SetupRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		// Public routes (no authentication required)
		auth.POST("/register", authRouter.controller.Register)
		auth.POST("/login", authRouter.controller.Login)
		auth.POST("/refresh", authRouter.controller.Refresh)
		auth.POST("/verify-google-token", authRouter.controller.VerifyGoogleToken)
		auth.POST("/logout", authRouter.controller.Logout)

		// Protected routes (valid access token required)
		protected := auth.Group("")
		protected.Use(middleware.AccessTokenAuth(authRouter.config))
		{
			protected.GET("/me", authRouter.controller.GetMe)
		}
	}
}
