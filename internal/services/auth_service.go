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
	"oneridetho/internal/validators"
	"oneridetho/pkg/cache"
	"oneridetho/pkg/logger"
	"oneridetho/pkg/oauth"

	"golang.org/x/crypto/bcrypt"
)

const oauthStateTTL = 10 * time.Minute

type AuthService interface {
	Register(ctx context.Context, request *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, request *LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, sessionToken string) error
	// ValidateSession resolves a bearer token to its live session.
	ValidateSession(ctx context.Context, accessToken string) (*models.Session, error)

	GoogleAuthURL(ctx context.Context) (string, error)
	GoogleCallback(ctx context.Context, state, code string) (*AuthResponse, error)

	CheckEmail(ctx context.Context, email string) (bool, error)
	CheckPhone(ctx context.Context, phone string) (bool, error)
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,phone_number"`
	Password string `json:"password" validate:"required,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	IsNewUser   bool         `json:"is_new_user"`
}

type authService struct {
	userRepo    interfaces.UserRepository
	accountRepo interfaces.AccountRepository
	sessionRepo interfaces.SessionRepository
	tx          interfaces.Transactor
	cache       interfaces.Cache
	google      oauth.OAuthProvider
	security    config.SecurityConfig
	now         func() time.Time
	logger      *logger.Logger
}

func NewAuthService(
	userRepo interfaces.UserRepository,
	accountRepo interfaces.AccountRepository,
	sessionRepo interfaces.SessionRepository,
	tx interfaces.Transactor,
	cache interfaces.Cache,
	google oauth.OAuthProvider,
	security *config.SecurityConfig,
	logger *logger.Logger,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		accountRepo: accountRepo,
		sessionRepo: sessionRepo,
		tx:          tx,
		cache:       cache,
		google:      google,
		security:    *security,
		now:         time.Now,
		logger:      logger,
	}
}

func (s *authService) Register(ctx context.Context, request *RegisterRequest) (*AuthResponse, error) {
	request.Email = utils.NormalizeEmail(request.Email)
	request.Phone = utils.NormalizePhone(request.Phone)
	request.Name = strings.TrimSpace(request.Name)

	if errs := validators.ValidateStruct(request); errs != nil {
		return nil, &InputError{Fields: errs.Details()}
	}
	if len(request.Password) < s.security.PasswordMinLength {
		return nil, invalidInput("password", fmt.Sprintf("password must be at least %d characters", s.security.PasswordMinLength))
	}

	if exists, err := s.userRepo.ExistsByEmail(ctx, request.Email); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrAlreadyExists
	}
	if request.Phone != "" {
		if exists, err := s.userRepo.ExistsByPhone(ctx, request.Phone); err != nil {
			return nil, err
		} else if exists {
			return nil, ErrAlreadyExists
		}
	}

	hash, err := s.hashPassword(request.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{
		Name:      request.Name,
		Email:     request.Email,
		Phone:     request.Phone,
		Provider:  models.AuthProviderCredentials,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.userRepo.Create(txCtx, user); err != nil {
			return err
		}
		return s.accountRepo.Create(txCtx, &models.Account{
			UserID:    user.ID,
			Email:     user.Email,
			Password:  hash,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrDuplicateKey) {
			return nil, ErrAlreadyExists
		}
		s.logger.WithError(err).Error("Failed to register user")
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	resp, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}
	resp.IsNewUser = true
	return resp, nil
}

func (s *authService) Login(ctx context.Context, request *LoginRequest) (*AuthResponse, error) {
	request.Email = utils.NormalizeEmail(request.Email)
	if errs := validators.ValidateStruct(request); errs != nil {
		return nil, &InputError{Fields: errs.Details()}
	}

	account, err := s.accountRepo.GetByEmail(ctx, request.Email)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(request.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByID(ctx, account.UserID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return s.startSession(ctx, user)
}

func (s *authService) Logout(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return ErrUnauthenticated
	}
	if err := s.sessionRepo.DeleteByToken(ctx, sessionToken); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

func (s *authService) ValidateSession(ctx context.Context, accessToken string) (*models.Session, error) {
	claims, err := utils.ValidateToken(accessToken, s.security.JWTSecret)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	session, err := s.sessionRepo.GetByToken(ctx, claims.SessionToken)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if session.UserID != claims.UserID || session.Expired(s.now()) {
		return nil, ErrUnauthenticated
	}
	return session, nil
}

func (s *authService) GoogleAuthURL(ctx context.Context) (string, error) {
	if s.google == nil {
		return "", invalidInput("provider", "Google sign-in is not configured")
	}
	state, err := utils.GenerateSecureToken(16)
	if err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, utils.CacheOAuthStatePrefix+state, true, oauthStateTTL); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}
	return s.google.GetAuthURL(state), nil
}

func (s *authService) GoogleCallback(ctx context.Context, state, code string) (*AuthResponse, error) {
	if s.google == nil {
		return nil, invalidInput("provider", "Google sign-in is not configured")
	}
	if state == "" || code == "" {
		return nil, invalidInput("code", "state and code are required")
	}

	var ok bool
	if err := s.cache.GetDel(ctx, utils.CacheOAuthStatePrefix+state, &ok); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	token, err := s.google.ExchangeCode(ctx, code)
	if err != nil {
		s.logger.WithError(err).Warn("Google code exchange failed")
		return nil, ErrUnauthenticated
	}
	info, err := s.google.GetUserInfo(ctx, token.AccessToken)
	if err != nil {
		s.logger.WithError(err).Warn("Google userinfo lookup failed")
		return nil, ErrUnauthenticated
	}
	if info.Email == "" {
		return nil, ErrUnauthenticated
	}

	email := utils.NormalizeEmail(info.Email)
	user, err := s.userRepo.GetByEmail(ctx, email)
	isNew := false
	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		now := s.now().UTC()
		user = &models.User{
			Name:      info.Name,
			Email:     email,
			PhotoURL:  info.Picture,
			Provider:  models.AuthProviderGoogle,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		isNew = true
	case err != nil:
		return nil, err
	}

	resp, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}
	resp.IsNewUser = isNew
	return resp, nil
}

func (s *authService) CheckEmail(ctx context.Context, email string) (bool, error) {
	email = utils.NormalizeEmail(email)
	if !utils.IsValidEmail(email) {
		return false, invalidInput("email", "invalid email")
	}
	return s.userRepo.ExistsByEmail(ctx, email)
}

func (s *authService) CheckPhone(ctx context.Context, phone string) (bool, error) {
	phone = utils.NormalizePhone(phone)
	if !utils.IsValidPhone(phone) {
		return false, invalidInput("phone", "invalid phone number")
	}
	return s.userRepo.ExistsByPhone(ctx, phone)
}

func (s *authService) startSession(ctx context.Context, user *models.User) (*AuthResponse, error) {
	sessionToken, err := utils.GenerateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := s.now().UTC()
	session := &models.Session{
		UserID:       user.ID,
		SessionToken: sessionToken,
		ExpiresAt:    now.Add(s.security.SessionTTL),
		CreatedAt:    now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	access, err := utils.GenerateAccessToken(user.ID, sessionToken, user.Email, s.security.JWTSecret, s.security.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &AuthResponse{
		User:        user,
		AccessToken: access.Token,
		TokenType:   access.TokenType,
		ExpiresAt:   access.ExpiresAt,
	}, nil
}

func (s *authService) hashPassword(password string) (string, error) {
	cost := s.security.BcryptCost
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

