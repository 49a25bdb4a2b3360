package handlers

import (
	"math"
	"net/http"
	"net/url"
	"strconv"

	"oneridetho/internal/services"
	"oneridetho/internal/utils"
	"oneridetho/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Signature headers per gateway.
var webhookSignatureHeaders = map[string]string{
	"stripe":   "Stripe-Signature",
	"razorpay": "X-Razorpay-Signature",
}

type PaymentHandler struct {
	checkoutService services.CheckoutService
	logger          *logger.Logger
}

func NewPaymentHandler(checkoutService services.CheckoutService, logger *logger.Logger) *PaymentHandler {
	return &PaymentHandler{checkoutService: checkoutService, logger: logger}
}

func (h *PaymentHandler) Checkout(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var request services.BeginCheckoutRequest
	if !bindJSON(c, &request) {
		return
	}
	request.UserID = userID

	result, err := h.checkoutService.Begin(c.Request.Context(), &request)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if result.Warning != "" {
		utils.SuccessResponseWithMeta(c, "Checkout started", result, &utils.Meta{Warnings: []string{result.Warning}})
		return
	}
	utils.SuccessResponse(c, "Checkout started", result)
}

// Callback is where the gateway sends the rider back. It settles the
// checkout and redirects to the page the rider started from whatever the
// outcome. The gateway's own record decides paid or failed, a netAmount
// carried by the callback is only compared against it.
func (h *PaymentHandler) Callback(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		utils.BadRequestResponse(c, "Invalid token")
		return
	}

	result, err := h.checkoutService.Confirm(c.Request.Context(), token)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	log := h.logger.WithFields(map[string]interface{}{
		"order_id":   result.OrderID,
		"state":      result.State,
		"net_amount": result.NetAmount,
	})
	if reported, ok := reportedNetAmount(c); ok && math.Abs(reported-result.NetAmount) >= 0.005 {
		log.WithField("reported_net_amount", reported).Warn("Callback amount differs from the gateway record")
	} else {
		log.Info("Payment callback settled")
	}

	c.Redirect(http.StatusFound, withCheckoutState(result))
}

func (h *PaymentHandler) Webhook(c *gin.Context) {
	provider := c.Param("provider")
	payload, err := c.GetRawData()
	if err != nil {
		utils.BadRequestResponse(c, "Could not read webhook body")
		return
	}

	signature := c.GetHeader(webhookSignatureHeaders[provider])
	if err := h.checkoutService.HandleWebhook(c.Request.Context(), provider, payload, signature); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusOK)
}

func reportedNetAmount(c *gin.Context) (float64, bool) {
	raw := c.Query("netAmount")
	if raw == "" && c.ContentType() == gin.MIMEJSON {
		var body struct {
			NetAmount *float64 `json:"netAmount"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.NetAmount == nil {
			return 0, false
		}
		return *body.NetAmount, true
	}
	if raw == "" {
		raw = c.PostForm("netAmount")
	}
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}

func withCheckoutState(result *services.CallbackResult) string {
	target, err := url.Parse(result.ReturnURL)
	if err != nil || result.ReturnURL == "" {
		return "/"
	}
	query := target.Query()
	query.Set("status", string(result.State))
	query.Set("orderId", result.OrderID)
	target.RawQuery = query.Encode()
	return target.String()
}
