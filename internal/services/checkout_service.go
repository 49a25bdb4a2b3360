package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"oneridetho/internal/config"
	"oneridetho/internal/models"
	"oneridetho/internal/repositories/interfaces"
	"oneridetho/internal/utils"
	"oneridetho/internal/validators"
	"oneridetho/pkg/cache"
	"oneridetho/pkg/logger"
	"oneridetho/pkg/payment"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const cashWarning = "Drivers do not carry change. Please have the exact fare ready."

type CheckoutService interface {
	Begin(ctx context.Context, request *BeginCheckoutRequest) (*CheckoutResult, error)
	// Complete records the gateway outcome. The checkout is paid once the net
	// amount covers the session amount.
	Complete(ctx context.Context, token string, netAmount float64) (*CallbackResult, error)
	// Confirm asks the gateway for the outcome before completing. An
	// unreachable gateway settles the checkout as failed.
	Confirm(ctx context.Context, token string) (*CallbackResult, error)
	HandleWebhook(ctx context.Context, provider string, payload []byte, signature string) error
}

type BeginCheckoutRequest struct {
	UserID        primitive.ObjectID   `json:"-"`
	RideID        string               `json:"ride_id" validate:"omitempty,object_id"`
	PaymentMethod models.PaymentMethod `json:"payment_method" validate:"required,oneof=cash card"`
	Amount        float64              `json:"amount" validate:"omitempty,gt=0"`
	ReturnURL     string               `json:"return_url" validate:"required,max=2048"`
	Email         string               `json:"email" validate:"omitempty,email"`
}

type CheckoutResult struct {
	State       models.CheckoutState `json:"state"`
	OrderID     string               `json:"order_id,omitempty"`
	RedirectURL string               `json:"redirect_url,omitempty"`
	Warning     string               `json:"warning,omitempty"`
	Amount      float64              `json:"amount"`
	Currency    string               `json:"currency"`
}

type CallbackResult struct {
	State     models.CheckoutState `json:"state"`
	OrderID   string               `json:"order_id"`
	ReturnURL string               `json:"return_url"`
	NetAmount float64              `json:"net_amount"`
}

type checkoutService struct {
	gateways        map[string]payment.Gateway
	defaultProvider string
	cache           interfaces.Cache
	rideRepo        interfaces.RideRepository
	currency        string
	ttl             time.Duration
	callbackBaseURL string
	returnOrigins   []*url.URL
	now             func() time.Time
	logger          *logger.Logger
}

func NewCheckoutService(
	gateways []payment.Gateway,
	cache interfaces.Cache,
	rideRepo interfaces.RideRepository,
	cfg *config.PaymentConfig,
	logger *logger.Logger,
) CheckoutService {
	byName := make(map[string]payment.Gateway, len(gateways))
	for _, g := range gateways {
		byName[g.Name()] = g
	}
	ttl := cfg.CheckoutTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	var origins []*url.URL
	for _, raw := range cfg.ReturnOrigins {
		if origin, err := url.Parse(strings.TrimSpace(raw)); err == nil && origin.Scheme != "" {
			origins = append(origins, origin)
		}
	}
	return &checkoutService{
		gateways:        byName,
		defaultProvider: cfg.DefaultProvider,
		cache:           cache,
		rideRepo:        rideRepo,
		currency:        cfg.Currency,
		ttl:             ttl,
		callbackBaseURL: cfg.CallbackBaseURL,
		returnOrigins:   origins,
		now:             time.Now,
		logger:          logger,
	}
}

func (s *checkoutService) Begin(ctx context.Context, request *BeginCheckoutRequest) (*CheckoutResult, error) {
	if request.UserID.IsZero() {
		return nil, ErrUnauthenticated
	}
	if errs := validators.ValidateStruct(request); errs != nil {
		return nil, &InputError{Fields: errs.Details()}
	}
	if !s.returnAllowed(request.ReturnURL) {
		return nil, invalidInput("return_url", "return url must be a relative path or an allowed origin")
	}

	var rideID *primitive.ObjectID
	amount := request.Amount
	if request.RideID != "" {
		ride, err := s.loadOwnRide(ctx, request.UserID, request.RideID)
		if err != nil {
			return nil, err
		}
		rideID = &ride.ID
		// the ride's own total is charged, a client amount may only repeat it
		total := rideTotal(ride)
		if amount != 0 && toCents(amount) != toCents(total) {
			return nil, invalidInput("amount", fmt.Sprintf("amount must match the ride total of %.2f", total))
		}
		amount = total
	}
	if amount <= 0 {
		return nil, invalidInput("amount", "amount must be greater than zero")
	}

	if request.PaymentMethod == models.PaymentMethodCash {
		return &CheckoutResult{
			State:    models.CheckoutStateConfirmed,
			Warning:  cashWarning,
			Amount:   amount,
			Currency: s.currency,
		}, nil
	}

	gateway, ok := s.gateways[s.defaultProvider]
	if !ok {
		s.logger.WithField("provider", s.defaultProvider).Error("Payment provider is not configured")
		return nil, ErrPaymentGateway
	}

	token, err := utils.GenerateSecureToken(16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate checkout token: %w", err)
	}

	session := &models.CheckoutSession{
		Token:     token,
		OrderID:   uuid.NewString(),
		RideID:    rideID,
		UserID:    request.UserID,
		ReturnURL: request.ReturnURL,
		Amount:    amount,
		Currency:  s.currency,
		Provider:  gateway.Name(),
		State:     models.CheckoutStateMethodSelected,
		CreatedAt: s.now().UTC(),
	}

	callback := s.callbackURL(token)
	hosted, err := gateway.CreateHostedPayment(ctx, &payment.HostedPaymentRequest{
		OrderID:       session.OrderID,
		Reference:     token,
		Amount:        amount,
		Currency:      s.currency,
		Description:   "One Ride Tho ride",
		CustomerEmail: request.Email,
		CallbackURL:   callback,
		CancelURL:     callback,
		Metadata:      map[string]string{"order_id": session.OrderID},
	})
	if err != nil {
		s.logger.WithError(err).WithField("order_id", session.OrderID).Error("Failed to create hosted payment")
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}

	session.PaymentID = hosted.PaymentID
	session.State = models.CheckoutStateAwaitingGatewayRedirect
	if err := s.cache.Set(ctx, checkoutKey(token), session, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to store checkout session: %w", err)
	}

	s.logger.LogPaymentEvent(session.OrderID, "checkout_started", amount, s.currency)

	return &CheckoutResult{
		State:       session.State,
		OrderID:     session.OrderID,
		RedirectURL: hosted.URL,
		Amount:      amount,
		Currency:    s.currency,
	}, nil
}

func (s *checkoutService) Complete(ctx context.Context, token string, netAmount float64) (*CallbackResult, error) {
	session, err := s.loadSession(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, session, netAmount)
}

func (s *checkoutService) Confirm(ctx context.Context, token string) (*CallbackResult, error) {
	session, err := s.loadSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if session.State == models.CheckoutStateConfirmed {
		return callbackResult(session), nil
	}

	net, err := s.fetchNetAmount(ctx, session)
	if err != nil {
		// settle as failed, a later webhook can still confirm
		s.logger.WithError(err).WithField("order_id", session.OrderID).Error("Failed to fetch payment status")
		net = 0
	}
	return s.settle(ctx, session, net)
}

func (s *checkoutService) fetchNetAmount(ctx context.Context, session *models.CheckoutSession) (float64, error) {
	gateway, ok := s.gateways[session.Provider]
	if !ok || session.PaymentID == "" {
		return 0, ErrPaymentGateway
	}
	status, err := gateway.FetchPayment(ctx, session.PaymentID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	if !status.Paid {
		return 0, nil
	}
	return status.NetAmount, nil
}

// settle writes the ride before the cached session so a failed ride update
// leaves the checkout open for a retry.
func (s *checkoutService) settle(ctx context.Context, session *models.CheckoutSession, netAmount float64) (*CallbackResult, error) {
	// gateways may report the same outcome through redirect and webhook
	if session.State == models.CheckoutStateConfirmed {
		return callbackResult(session), nil
	}

	paid := netAmount > 0 && toCents(netAmount) >= toCents(session.Amount)
	if session.State == models.CheckoutStateFailed && !paid {
		return callbackResult(session), nil
	}
	if netAmount > 0 && !paid {
		s.logger.WithFields(map[string]interface{}{
			"order_id":   session.OrderID,
			"net_amount": netAmount,
			"amount":     session.Amount,
		}).Warn("Gateway settled less than the checkout amount")
	}

	status := models.PaymentStatusFailed
	state := models.CheckoutStateFailed
	if paid {
		status = models.PaymentStatusPaid
		state = models.CheckoutStateConfirmed
	}

	if session.RideID != nil {
		if err := s.rideRepo.UpdatePaymentStatus(ctx, *session.RideID, status); err != nil {
			s.logger.WithError(err).WithRideID(*session.RideID).Error("Failed to record payment status")
			return nil, fmt.Errorf("failed to record payment status: %w", err)
		}
	}

	session.State = state
	session.NetAmount = netAmount
	if remaining := s.ttl - s.now().UTC().Sub(session.CreatedAt); remaining > 0 {
		if err := s.cache.Set(ctx, checkoutKey(session.Token), session, remaining); err != nil {
			s.logger.WithError(err).Warn("Failed to update checkout session")
		}
	}

	s.logger.LogPaymentEvent(session.OrderID, string(status), netAmount, session.Currency)
	return callbackResult(session), nil
}

func (s *checkoutService) HandleWebhook(ctx context.Context, provider string, payload []byte, signature string) error {
	gateway, ok := s.gateways[provider]
	if !ok {
		return ErrNotFound
	}

	event, err := gateway.ValidateWebhook(ctx, payload, signature)
	if errors.Is(err, payment.ErrUnhandledEvent) {
		return nil
	}
	if err != nil {
		s.logger.WithError(err).WithField("provider", provider).Warn("Rejected payment webhook")
		return invalidInput("signature", "webhook signature could not be verified")
	}

	_, err = s.Complete(ctx, event.Reference, event.NetAmount)
	if errors.Is(err, ErrNotFound) {
		s.logger.WithField("event_id", event.EventID).Warn("Webhook for unknown or expired checkout")
		return nil
	}
	return err
}

func (s *checkoutService) loadSession(ctx context.Context, token string) (*models.CheckoutSession, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	var session models.CheckoutSession
	if err := s.cache.Get(ctx, checkoutKey(token), &session); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load checkout session: %w", err)
	}
	return &session, nil
}

func (s *checkoutService) loadOwnRide(ctx context.Context, userID primitive.ObjectID, hexID string) (*models.Ride, error) {
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return nil, invalidInput("ride_id", "invalid ride id")
	}
	ride, err := s.rideRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrRideNotFound)
	}
	if ride.UserID != userID {
		return nil, ErrRideNotFound
	}
	return ride, nil
}

// returnAllowed accepts same-site paths and absolute URLs on a configured
// origin. An origin without a host (oneridetho://) admits the whole scheme.
func (s *checkoutService) returnAllowed(raw string) bool {
	if strings.ContainsAny(raw, "\\\r\n") {
		return false
	}
	target, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if target.Scheme == "" && target.Host == "" {
		return strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//")
	}
	for _, origin := range s.returnOrigins {
		if !strings.EqualFold(origin.Scheme, target.Scheme) {
			continue
		}
		if origin.Host == "" || strings.EqualFold(origin.Host, target.Host) {
			return true
		}
	}
	return false
}

func (s *checkoutService) callbackURL(token string) string {
	return s.callbackBaseURL + "?token=" + url.QueryEscape(token)
}

func callbackResult(session *models.CheckoutSession) *CallbackResult {
	return &CallbackResult{
		State:     session.State,
		OrderID:   session.OrderID,
		ReturnURL: session.ReturnURL,
		NetAmount: session.NetAmount,
	}
}

func rideTotal(ride *models.Ride) float64 {
	fare, _ := strconv.ParseFloat(ride.Fare, 64)
	return fare + ride.Tip + ride.ExtraCharges
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func checkoutKey(token string) string {
	return utils.CacheCheckoutPrefix + token
}
