package app

import (
	"github.com/gin-gonic/gin"

	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/middleware"
)

// ----------------------------------------------------------------------------
// Route Registration
// ----------------------------------------------------------------------------

func (a *App) RegisterRoutes() *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(a.log))
	router.Use(middleware.CORS())

	v1 := router.Group("/api/v1")
	{
		health := v1.Group("/health")
		{
			health.GET("/liveness", a.HandleLiveness)
			health.GET("/readiness", a.HandleReadiness)
		}

		auth := v1.Group("/auth")
		{
			auth.POST("/register", a.HandleRegister)
			auth.POST("/login", a.HandleLogin)
			auth.POST("/refresh", a.HandleRefresh)
			auth.POST("/forgot-password", a.HandleForgotPassword)
			auth.POST("/verify", middleware.Authenticate(a.tokens.Verify), a.HandleVerify)
		}

		user := v1.Group("/user")
		user.Use(middleware.Authenticate(a.tokens.Verify))
		{
			user.GET("/me", a.HandleMe)
			user.PATCH("/me", a.HandleUpdateMe)
			user.DELETE("/me", a.HandleDeleteMe)
			user.PUT("/me/photo", a.HandleUploadPhoto)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.Authenticate(a.tokens.Verify))
		{
			admin.GET("/users", a.HandleListUsers)
		}
	}

	return router
}
