package services

import (
	"context"
	"testing"
	"time"

	"oneridetho/internal/config"
	"oneridetho/internal/models"
	"oneridetho/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type resetFixture struct {
	svc      *passwordResetService
	accounts *fakeAccountRepo
	cache    *fakeCache
	notifier *recordingNotifier
	account  *models.Account
	clock    time.Time
}

func testSecurityConfig() *config.SecurityConfig {
	return &config.SecurityConfig{
		JWTSecret:         "test-secret",
		SessionTTL:        24 * time.Hour,
		BcryptCost:        bcrypt.MinCost,
		PasswordMinLength: 8,
		OTPLength:         6,
		OTPExpiry:         10 * time.Minute,
		OTPMaxAttempts:    3,
	}
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()

	user := &models.User{Name: "Ana Rolle", Email: "ana@example.com", Phone: "+12425550123"}
	users := newFakeUserRepo(user)
	accounts := newFakeAccountRepo()
	account := &models.Account{UserID: user.ID, Email: user.Email, Password: "old-hash"}
	require.NoError(t, accounts.Create(context.Background(), account))

	f := &resetFixture{
		accounts: accounts,
		cache:    newFakeCache(),
		notifier: &recordingNotifier{},
		account:  account,
		clock:    time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	svc := NewPasswordResetService(users, accounts, f.cache, f.notifier, testSecurityConfig(), logger.NewNop())
	f.svc = svc.(*passwordResetService)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func TestPasswordResetHappyPath(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	started, err := f.svc.Start(ctx, " Ana@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, models.ResetStateVerify, started.State)
	assert.Equal(t, "a**@example.com", started.SentTo)
	assert.Equal(t, 3, started.RemainingAttempts)

	code := f.notifier.lastCode()
	require.Len(t, code, 6)

	verified, err := f.svc.Verify(ctx, started.FlowID, code)
	require.NoError(t, err)
	assert.Equal(t, models.ResetStateReset, verified.State)

	require.NoError(t, f.svc.Complete(ctx, started.FlowID, "brand-new-pass"))

	account, err := f.accounts.GetByUserID(ctx, f.account.UserID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.Password), []byte("brand-new-pass")))

	// the flow is gone once used
	assert.ErrorIs(t, f.svc.Complete(ctx, started.FlowID, "another-pass"), ErrResetFlow)
}

func TestPasswordResetByPhone(t *testing.T) {
	f := newResetFixture(t)

	started, err := f.svc.Start(context.Background(), "+1 (242) 555-0123")
	require.NoError(t, err)
	assert.Equal(t, models.ResetStateVerify, started.State)
	assert.NotEmpty(t, f.notifier.lastCode())
}

func TestPasswordResetStepsMustBeInOrder(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	started, err := f.svc.Start(ctx, "ana@example.com")
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Complete(ctx, started.FlowID, "brand-new-pass"), ErrResetFlow)

	_, err = f.svc.Verify(ctx, "unknown-flow", "000000")
	assert.ErrorIs(t, err, ErrResetFlow)

	_, err = f.svc.Verify(ctx, started.FlowID, f.notifier.lastCode())
	require.NoError(t, err)

	_, err = f.svc.Verify(ctx, started.FlowID, f.notifier.lastCode())
	assert.ErrorIs(t, err, ErrResetFlow)
}

func TestPasswordResetAttemptLimit(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	started, err := f.svc.Start(ctx, "ana@example.com")
	require.NoError(t, err)
	wrong := "x" + f.notifier.lastCode()

	_, err = f.svc.Verify(ctx, started.FlowID, wrong)
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Contains(t, inputErr.Fields["code"], "2 attempts left")

	_, err = f.svc.Verify(ctx, started.FlowID, wrong)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Verify(ctx, started.FlowID, wrong)
	assert.ErrorIs(t, err, ErrResetFlow)
	assert.False(t, f.cache.has(resetKey(started.FlowID)))

	_, err = f.svc.Verify(ctx, started.FlowID, f.notifier.lastCode())
	assert.ErrorIs(t, err, ErrResetFlow)
}

func TestPasswordResetExpires(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	started, err := f.svc.Start(ctx, "ana@example.com")
	require.NoError(t, err)

	f.clock = f.clock.Add(11 * time.Minute)
	_, err = f.svc.Verify(ctx, started.FlowID, f.notifier.lastCode())
	assert.ErrorIs(t, err, ErrResetFlow)
}

func TestPasswordResetRejections(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Start(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	started, err := f.svc.Start(ctx, "ana@example.com")
	require.NoError(t, err)
	_, err = f.svc.Verify(ctx, started.FlowID, f.notifier.lastCode())
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.Complete(ctx, started.FlowID, "short"), ErrInvalidInput)
}
