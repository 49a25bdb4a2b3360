package routes

import (
	handlers "oneridetho/internal/handlers/shared"

	"github.com/gin-gonic/gin"
)

func SetupUserRoutes(r *gin.RouterGroup, userHandler *handlers.UserHandler, authRequired gin.HandlerFunc) {
	me := r.Group("/users/me")
	me.Use(authRequired)
	{
		me.GET("", userHandler.GetProfile)
		me.POST("/photo", userHandler.UploadPhoto)
		me.GET("/verification", userHandler.GetVerification)
		me.POST("/verification", userHandler.UpdateVerification)
		me.POST("/verification/photo", userHandler.UploadVerificationPhoto)
	}
}

func SetupDriverRoutes(r *gin.RouterGroup, driverHandler *handlers.DriverHandler, authRequired gin.HandlerFunc) {
	drivers := r.Group("/drivers")
	drivers.Use(authRequired)
	{
		drivers.GET("", driverHandler.ListDriverIDs)
		drivers.GET("/emails", driverHandler.ListDriverEmails)
		drivers.GET("/:id", driverHandler.GetDriver)
		drivers.GET("/:id/location", driverHandler.GetLocation)
	}
}
