package routes

import (
	handlers "oneridetho/internal/handlers/shared"
	"oneridetho/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupMapsRoutes sets up the public lookups the booking form uses
func SetupMapsRoutes(r *gin.RouterGroup, mapsHandler *handlers.MapsHandler) {
	r.POST("/fares/estimate", mapsHandler.EstimateFare)

	maps := r.Group("/maps")
	{
		maps.GET("/geocode", mapsHandler.Geocode)
		maps.GET("/reverse", mapsHandler.ReverseGeocode)
		maps.GET("/autocomplete", mapsHandler.Autocomplete)
	}
}

// SetupRideRoutes sets up booking, tracking and rating for riders
func SetupRideRoutes(r *gin.RouterGroup, rideHandler *handlers.RideHandler, authRequired gin.HandlerFunc) {
	r.POST("/bookings", authRequired, middleware.IdempotencyKeyMiddleware(), rideHandler.CreateBooking)

	rides := r.Group("/rides")
	rides.Use(authRequired)
	{
		rides.POST("/schedule", middleware.IdempotencyKeyMiddleware(), rideHandler.ScheduleRide)
		rides.POST("/check-overlap", rideHandler.CheckOverlap)
		rides.GET("/active", rideHandler.CheckActiveRide)
		rides.GET("", rideHandler.ListRides)

		rides.GET("/:id", rideHandler.GetRide)
		rides.POST("/:id/cancel", rideHandler.CancelRide)
		rides.POST("/:id/rating", rideHandler.SubmitRating)

		// Status transports
		rides.GET("/:id/status", rideHandler.Status)
		rides.GET("/:id/status/wait", rideHandler.WaitStatus)
		rides.GET("/:id/stream", rideHandler.Stream)
	}
}
