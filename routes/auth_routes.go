package routes

import (
	handlers "oneridetho/internal/handlers/shared"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes sets up sign-up, sign-in and password recovery
func SetupAuthRoutes(r *gin.RouterGroup, authHandler *handlers.AuthHandler, authRequired gin.HandlerFunc) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authRequired, authHandler.Logout)

		auth.GET("/google/url", authHandler.GoogleAuthURL)
		auth.GET("/google/callback", authHandler.GoogleCallback)

		auth.GET("/check-email", authHandler.CheckEmail)
		auth.GET("/check-phone", authHandler.CheckPhone)

		reset := auth.Group("/password-reset")
		reset.POST("/start", authHandler.StartPasswordReset)
		reset.POST("/verify", authHandler.VerifyPasswordReset)
		reset.POST("/complete", authHandler.CompletePasswordReset)
	}
}
