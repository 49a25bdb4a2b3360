package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type StripeGateway struct {
	client        *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)

	return &StripeGateway{
		client:        sc,
		webhookSecret: webhookSecret,
	}
}

func (s *StripeGateway) Name() string {
	return "stripe"
}

// CreateHostedPayment opens a Checkout Session for a single fare line item.
func (s *StripeGateway) CreateHostedPayment(ctx context.Context, request *HostedPaymentRequest) (*HostedPaymentResponse, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(request.CallbackURL),
		CancelURL:         stripe.String(request.CancelURL),
		ClientReferenceID: stripe.String(request.Reference),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(strings.ToLower(request.Currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(request.Description),
					},
					UnitAmount: stripe.Int64(toMinorUnits(request.Amount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	if request.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(request.CustomerEmail)
	}
	params.AddMetadata("order_id", request.OrderID)
	for key, value := range request.Metadata {
		params.AddMetadata(key, value)
	}
	params.Context = ctx

	session, err := s.client.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &HostedPaymentResponse{
		PaymentID: session.ID,
		URL:       session.URL,
	}, nil
}

func (s *StripeGateway) FetchPayment(ctx context.Context, paymentID string) (*PaymentStatus, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := s.client.CheckoutSessions.Get(paymentID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch checkout session: %w", err)
	}

	return checkoutSessionStatus(session), nil
}

func (s *StripeGateway) ValidateWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify webhook signature: %w", err)
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded", "checkout.session.async_payment_failed":
	default:
		return nil, ErrUnhandledEvent
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
	}

	status := checkoutSessionStatus(&session)
	return &WebhookEvent{
		EventID:   event.ID,
		EventType: string(event.Type),
		Reference: status.Reference,
		NetAmount: status.NetAmount,
		CreatedAt: time.Unix(event.Created, 0).Unix(),
	}, nil
}

func checkoutSessionStatus(session *stripe.CheckoutSession) *PaymentStatus {
	status := &PaymentStatus{
		PaymentID: session.ID,
		Reference: session.ClientReferenceID,
		Paid:      session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}
	if status.Paid {
		status.NetAmount = fromMinorUnits(session.AmountTotal)
	}
	return status
}
