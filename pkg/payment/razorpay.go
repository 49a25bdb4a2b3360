package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/razorpay/razorpay-go"
)

type RazorpayGateway struct {
	client        *razorpay.Client
	webhookSecret string
}

func NewRazorpayGateway(keyID, keySecret, webhookSecret string) *RazorpayGateway {
	client := razorpay.NewClient(keyID, keySecret)

	return &RazorpayGateway{
		client:        client,
		webhookSecret: webhookSecret,
	}
}

func (r *RazorpayGateway) Name() string {
	return "razorpay"
}

// CreateHostedPayment creates a Payment Link. Razorpay calls back with a GET
// to callback_url once the customer finishes.
func (r *RazorpayGateway) CreateHostedPayment(ctx context.Context, request *HostedPaymentRequest) (*HostedPaymentResponse, error) {
	notes := map[string]interface{}{
		"order_id": request.OrderID,
	}
	for key, value := range request.Metadata {
		notes[key] = value
	}

	data := map[string]interface{}{
		"amount":          toMinorUnits(request.Amount),
		"currency":        request.Currency,
		"description":     request.Description,
		"reference_id":    request.Reference,
		"callback_url":    request.CallbackURL,
		"callback_method": "get",
		"notes":           notes,
	}
	if request.CustomerEmail != "" {
		data["customer"] = map[string]interface{}{"email": request.CustomerEmail}
	}

	link, err := r.client.PaymentLink.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment link: %w", err)
	}

	id, _ := link["id"].(string)
	url, _ := link["short_url"].(string)
	if url == "" {
		return nil, fmt.Errorf("payment link response missing short_url")
	}

	return &HostedPaymentResponse{
		PaymentID: id,
		URL:       url,
	}, nil
}

func (r *RazorpayGateway) FetchPayment(ctx context.Context, paymentID string) (*PaymentStatus, error) {
	link, err := r.client.PaymentLink.Fetch(paymentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment link: %w", err)
	}

	return paymentLinkStatus(link), nil
}

func (r *RazorpayGateway) ValidateWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	expectedSignature := r.generateSignature(payload)
	if !hmac.Equal([]byte(signature), []byte(expectedSignature)) {
		return nil, fmt.Errorf("invalid webhook signature")
	}

	var event struct {
		ID        string `json:"id"`
		Event     string `json:"event"`
		CreatedAt int64  `json:"created_at"`
		Payload   struct {
			PaymentLink struct {
				Entity map[string]interface{} `json:"entity"`
			} `json:"payment_link"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal webhook payload: %w", err)
	}

	switch event.Event {
	case "payment_link.paid", "payment_link.cancelled", "payment_link.expired":
	default:
		return nil, ErrUnhandledEvent
	}

	status := paymentLinkStatus(event.Payload.PaymentLink.Entity)
	createdAt := event.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}

	return &WebhookEvent{
		EventID:   event.ID,
		EventType: event.Event,
		Reference: status.Reference,
		NetAmount: status.NetAmount,
		CreatedAt: createdAt,
	}, nil
}

func (r *RazorpayGateway) generateSignature(payload []byte) string {
	h := hmac.New(sha256.New, []byte(r.webhookSecret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func paymentLinkStatus(link map[string]interface{}) *PaymentStatus {
	status := &PaymentStatus{}
	status.PaymentID, _ = link["id"].(string)
	status.Reference, _ = link["reference_id"].(string)
	state, _ := link["status"].(string)
	status.Paid = state == "paid"
	if status.Paid {
		status.NetAmount = fromMinorUnits(int64(numberValue(link["amount_paid"])))
	}
	return status
}

// JSON numbers from the Razorpay client decode as float64.
func numberValue(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		return 0
	}
}
