package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"oneridetho/internal/config"
	"oneridetho/internal/models"
	"oneridetho/internal/repositories/interfaces"
	"oneridetho/internal/utils"
	"oneridetho/pkg/cache"
	"oneridetho/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// PasswordResetService walks a flow through Contact -> Verify -> Reset. Each
// step only succeeds from the state before it.
type PasswordResetService interface {
	Start(ctx context.Context, contact string) (*ResetFlowResponse, error)
	Verify(ctx context.Context, flowID, code string) (*ResetFlowResponse, error)
	Complete(ctx context.Context, flowID, newPassword string) error
}

type ResetFlowResponse struct {
	FlowID            string            `json:"flow_id"`
	State             models.ResetState `json:"state"`
	SentTo            string            `json:"sent_to,omitempty"`
	ExpiresAt         time.Time         `json:"expires_at"`
	RemainingAttempts int               `json:"remaining_attempts"`
}

type passwordResetService struct {
	userRepo    interfaces.UserRepository
	accountRepo interfaces.AccountRepository
	cache       interfaces.Cache
	notifier    NotificationService
	security    config.SecurityConfig
	now         func() time.Time
	logger      *logger.Logger
}

func NewPasswordResetService(
	userRepo interfaces.UserRepository,
	accountRepo interfaces.AccountRepository,
	cache interfaces.Cache,
	notifier NotificationService,
	security *config.SecurityConfig,
	logger *logger.Logger,
) PasswordResetService {
	sec := *security
	if sec.OTPLength <= 0 {
		sec.OTPLength = 6
	}
	if sec.OTPMaxAttempts <= 0 {
		sec.OTPMaxAttempts = 5
	}
	if sec.OTPExpiry <= 0 {
		sec.OTPExpiry = 10 * time.Minute
	}
	return &passwordResetService{
		userRepo:    userRepo,
		accountRepo: accountRepo,
		cache:       cache,
		notifier:    notifier,
		security:    sec,
		now:         time.Now,
		logger:      logger,
	}
}

func (s *passwordResetService) Start(ctx context.Context, contact string) (*ResetFlowResponse, error) {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return nil, invalidInput("contact", "email or phone number is required")
	}

	flow := &models.PasswordReset{
		FlowID:    uuid.NewString(),
		State:     models.ResetStateContact,
		CreatedAt: s.now().UTC(),
	}

	var account *models.Account
	var err error
	if utils.IsEmail(contact) {
		flow.ContactKind = models.ContactEmail
		flow.Contact = utils.NormalizeEmail(contact)
		if !utils.IsValidEmail(flow.Contact) {
			return nil, invalidInput("contact", "invalid email")
		}
		account, err = s.accountRepo.GetByEmail(ctx, flow.Contact)
	} else {
		flow.ContactKind = models.ContactPhone
		flow.Contact = utils.NormalizePhone(contact)
		if !utils.IsValidPhone(flow.Contact) {
			return nil, invalidInput("contact", "invalid phone number")
		}
		account, err = s.accountForPhone(ctx, flow.Contact)
	}
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	flow.AccountID = account.ID.Hex()

	code := utils.GenerateRandomNumericString(s.security.OTPLength)
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.bcryptCost())
	if err != nil {
		return nil, fmt.Errorf("failed to hash code: %w", err)
	}
	flow.CodeHash = string(hash)
	flow.ExpiresAt = flow.CreatedAt.Add(s.security.OTPExpiry)

	if err := s.notifier.SendPasswordRecovery(ctx, flow.ContactKind, flow.Contact, code, s.security.OTPExpiry); err != nil {
		return nil, err
	}

	flow.State = models.ResetStateVerify
	if err := s.save(ctx, flow); err != nil {
		return nil, err
	}

	return s.response(flow), nil
}

func (s *passwordResetService) Verify(ctx context.Context, flowID, code string) (*ResetFlowResponse, error) {
	flow, err := s.load(ctx, flowID, models.ResetStateVerify)
	if err != nil {
		return nil, err
	}
	if flow.Attempts >= s.security.OTPMaxAttempts {
		s.discard(ctx, flowID)
		return nil, ErrResetFlow
	}

	if bcrypt.CompareHashAndPassword([]byte(flow.CodeHash), []byte(strings.TrimSpace(code))) != nil {
		flow.Attempts++
		if flow.Attempts >= s.security.OTPMaxAttempts {
			s.discard(ctx, flowID)
			return nil, ErrResetFlow
		}
		if err := s.save(ctx, flow); err != nil {
			return nil, err
		}
		return nil, &InputError{Fields: map[string]string{
			"code": fmt.Sprintf("incorrect code, %d attempts left", s.security.OTPMaxAttempts-flow.Attempts),
		}}
	}

	flow.State = models.ResetStateReset
	flow.CodeHash = ""
	if err := s.save(ctx, flow); err != nil {
		return nil, err
	}
	return s.response(flow), nil
}

func (s *passwordResetService) Complete(ctx context.Context, flowID, newPassword string) error {
	flow, err := s.load(ctx, flowID, models.ResetStateReset)
	if err != nil {
		return err
	}
	if len(newPassword) < s.security.PasswordMinLength || len(newPassword) > utils.PasswordMaxLength {
		return invalidInput("password", fmt.Sprintf("password must be between %d and %d characters", s.security.PasswordMinLength, utils.PasswordMaxLength))
	}

	accountID, err := primitive.ObjectIDFromHex(flow.AccountID)
	if err != nil {
		s.discard(ctx, flowID)
		return ErrResetFlow
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost())
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.accountRepo.UpdatePassword(ctx, accountID, string(hash)); err != nil {
		return notFound(err, ErrUserNotFound)
	}

	s.discard(ctx, flowID)
	s.logger.WithField("contact", maskContact(flow)).Info("Password reset completed")
	return nil
}

func (s *passwordResetService) accountForPhone(ctx context.Context, phone string) (*models.Account, error) {
	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	return s.accountRepo.GetByUserID(ctx, user.ID)
}

// load returns the flow only if it is live and in the expected state.
func (s *passwordResetService) load(ctx context.Context, flowID string, want models.ResetState) (*models.PasswordReset, error) {
	if flowID == "" {
		return nil, ErrResetFlow
	}

	var flow models.PasswordReset
	if err := s.cache.Get(ctx, resetKey(flowID), &flow); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrResetFlow
		}
		return nil, fmt.Errorf("failed to load reset flow: %w", err)
	}
	if !s.now().Before(flow.ExpiresAt) {
		s.discard(ctx, flowID)
		return nil, ErrResetFlow
	}
	if flow.State != want {
		return nil, ErrResetFlow
	}
	return &flow, nil
}

func (s *passwordResetService) save(ctx context.Context, flow *models.PasswordReset) error {
	ttl := flow.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return ErrResetFlow
	}
	if err := s.cache.Set(ctx, resetKey(flow.FlowID), flow, ttl); err != nil {
		return fmt.Errorf("failed to store reset flow: %w", err)
	}
	return nil
}

func (s *passwordResetService) discard(ctx context.Context, flowID string) {
	if err := s.cache.Delete(ctx, resetKey(flowID)); err != nil {
		s.logger.WithError(err).Warn("Failed to discard reset flow")
	}
}

func (s *passwordResetService) response(flow *models.PasswordReset) *ResetFlowResponse {
	return &ResetFlowResponse{
		FlowID:            flow.FlowID,
		State:             flow.State,
		SentTo:            maskContact(flow),
		ExpiresAt:         flow.ExpiresAt,
		RemainingAttempts: s.security.OTPMaxAttempts - flow.Attempts,
	}
}

func (s *passwordResetService) bcryptCost() int {
	if s.security.BcryptCost < bcrypt.MinCost {
		return bcrypt.DefaultCost
	}
	return s.security.BcryptCost
}

func maskContact(flow *models.PasswordReset) string {
	if flow.ContactKind == models.ContactEmail {
		return utils.MaskEmail(flow.Contact)
	}
	return utils.MaskPhone(flow.Contact)
}

func resetKey(flowID string) string {
	return utils.CachePasswordResetPrefix + flowID
}
