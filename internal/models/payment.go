package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentStatus string
type PaymentMethod string
type CheckoutState string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"

	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodCard PaymentMethod = "card"

	CheckoutStateSelectingMethod         CheckoutState = "SelectingMethod"
	CheckoutStateMethodSelected          CheckoutState = "MethodSelected"
	CheckoutStateAwaitingGatewayRedirect CheckoutState = "AwaitingGatewayRedirect"
	CheckoutStateConfirmed               CheckoutState = "Confirmed"
	CheckoutStateFailed                  CheckoutState = "Failed"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCash || m == PaymentMethodCard
}

// CheckoutSession lives in Redis under checkout:<token> until the gateway
// calls back or the TTL runs out.
type CheckoutSession struct {
	Token     string              `json:"token"`
	OrderID   string              `json:"order_id"`
	RideID    *primitive.ObjectID `json:"ride_id,omitempty"`
	UserID    primitive.ObjectID  `json:"user_id"`
	ReturnURL string              `json:"return_url"`
	Amount    float64             `json:"amount"`
	Currency  string              `json:"currency"`
	Provider  string              `json:"provider"`
	PaymentID string              `json:"payment_id"`
	NetAmount float64             `json:"net_amount,omitempty"`
	State     CheckoutState       `json:"state"`
	CreatedAt time.Time           `json:"created_at"`
}
