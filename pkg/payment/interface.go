package payment

import (
	"context"
	"errors"
)

// ErrUnhandledEvent marks a verified webhook that carries no payment outcome.
var ErrUnhandledEvent = errors.New("unhandled webhook event")

// Gateway hosts the card payment page. The service never sees card data.
type Gateway interface {
	Name() string
	CreateHostedPayment(ctx context.Context, request *HostedPaymentRequest) (*HostedPaymentResponse, error)
	FetchPayment(ctx context.Context, paymentID string) (*PaymentStatus, error)
	ValidateWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

type HostedPaymentRequest struct {
	OrderID       string            `json:"order_id"`
	Reference     string            `json:"reference"`
	Amount        float64           `json:"amount"`
	Currency      string            `json:"currency"`
	Description   string            `json:"description"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	CallbackURL   string            `json:"callback_url"`
	CancelURL     string            `json:"cancel_url"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type HostedPaymentResponse struct {
	PaymentID string `json:"payment_id"`
	URL       string `json:"url"`
}

type PaymentStatus struct {
	PaymentID string  `json:"payment_id"`
	Reference string  `json:"reference"`
	NetAmount float64 `json:"net_amount"`
	Paid      bool    `json:"paid"`
}

// WebhookEvent is a verified gateway notification. Reference carries the
// checkout token that was handed to the gateway at creation time.
type WebhookEvent struct {
	EventID   string  `json:"event_id"`
	EventType string  `json:"event_type"`
	Reference string  `json:"reference"`
	NetAmount float64 `json:"net_amount"`
	CreatedAt int64   `json:"created_at"`
}

func toMinorUnits(amount float64) int64 {
	if amount <= 0 {
		return 0
	}
	return int64(amount*100 + 0.5)
}

func fromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}
