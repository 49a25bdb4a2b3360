package routes

import (
	handlers "oneridetho/internal/handlers/shared"

	"github.com/gin-gonic/gin"
)

// SetupPaymentRoutes sets up checkout plus the gateway-facing callbacks
func SetupPaymentRoutes(r *gin.RouterGroup, paymentHandler *handlers.PaymentHandler, authRequired gin.HandlerFunc) {
	payments := r.Group("/payments")
	{
		payments.POST("/checkout", authRequired, paymentHandler.Checkout)

		// Public gateway routes (no auth required)
		payments.GET("/callback", paymentHandler.Callback)
		payments.POST("/callback", paymentHandler.Callback)
		payments.POST("/webhooks/:provider", paymentHandler.Webhook)
	}
}
