package services

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"oneridetho/internal/models"
	"oneridetho/internal/utils"
	"oneridetho/pkg/logger"
	"oneridetho/pkg/oauth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeGoogle struct {
	info *oauth.UserInfo
}

func (g *fakeGoogle) GetAuthURL(state string) string {
	return "https://accounts.example.com/auth?state=" + url.QueryEscape(state)
}

func (g *fakeGoogle) ExchangeCode(ctx context.Context, code string) (*oauth.TokenResponse, error) {
	if code != "good-code" {
		return nil, errors.New("invalid_grant")
	}
	return &oauth.TokenResponse{AccessToken: "google-token"}, nil
}

func (g *fakeGoogle) GetUserInfo(ctx context.Context, accessToken string) (*oauth.UserInfo, error) {
	return g.info, nil
}

type authFixture struct {
	svc      *authService
	users    *fakeUserRepo
	accounts *fakeAccountRepo
	sessions *fakeSessionRepo
	cache    *fakeCache
	google   *fakeGoogle
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	f := &authFixture{
		users:    newFakeUserRepo(),
		accounts: newFakeAccountRepo(),
		sessions: newFakeSessionRepo(),
		cache:    newFakeCache(),
		google:   &fakeGoogle{info: &oauth.UserInfo{Email: "Nia@Example.com", Name: "Nia", Picture: "https://example.com/nia.jpg"}},
	}
	tx := &fakeTransactor{stores: []snapshotter{f.users, f.accounts}}
	svc := NewAuthService(f.users, f.accounts, f.sessions, tx, f.cache, f.google, testSecurityConfig(), logger.NewNop())
	f.svc = svc.(*authService)
	return f
}

func registerRequest() *RegisterRequest {
	return &RegisterRequest{Name: "Ana Rolle", Email: "Ana@Example.com", Phone: "+1 242 555 0123", Password: "correct-horse"}
}

func TestRegisterLoginAndSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, registerRequest())
	require.NoError(t, err)
	assert.True(t, registered.IsNewUser)
	assert.Equal(t, "ana@example.com", registered.User.Email)
	assert.Equal(t, "+12425550123", registered.User.Phone)
	assert.Equal(t, "Bearer", registered.TokenType)

	session, err := f.svc.ValidateSession(ctx, registered.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, session.UserID)

	loggedIn, err := f.svc.Login(ctx, &LoginRequest{Email: "ANA@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.False(t, loggedIn.IsNewUser)
	assert.NotEqual(t, registered.AccessToken, loggedIn.AccessToken)

	second, err := f.svc.ValidateSession(ctx, loggedIn.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, second.SessionToken))
	_, err = f.svc.ValidateSession(ctx, loggedIn.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// the first session is untouched
	_, err = f.svc.ValidateSession(ctx, registered.AccessToken)
	assert.NoError(t, err)
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, registerRequest())
	assert.ErrorIs(t, err, ErrAlreadyExists)

	short := registerRequest()
	short.Email = "other@example.com"
	short.Phone = ""
	short.Password = "short"
	_, err = f.svc.Register(ctx, short)
	assert.ErrorIs(t, err, ErrInvalidInput)

	bad := registerRequest()
	bad.Email = "not-an-email"
	_, err = f.svc.Register(ctx, bad)
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Contains(t, inputErr.Fields, "Email")
}

func TestRegisterRollsBackUserWhenAccountFails(t *testing.T) {
	f := newAuthFixture(t)
	f.accounts.createErr = errors.New("write conflict")

	_, err := f.svc.Register(context.Background(), registerRequest())
	require.Error(t, err)

	exists, err := f.users.ExistsByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLoginFailures(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, &LoginRequest{Email: "ana@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, &LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateSessionRejectsBadTokens(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.ValidateSession(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// signed correctly but no session behind it
	orphan, err := utils.GenerateAccessToken(primitive.NewObjectID(), "no-such-session", "x@example.com", "test-secret", time.Hour)
	require.NoError(t, err)
	_, err = f.svc.ValidateSession(ctx, orphan.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	resp, err := f.svc.Register(ctx, registerRequest())
	require.NoError(t, err)
	f.svc.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	_, err = f.svc.ValidateSession(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGoogleSignIn(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	authURL, err := f.svc.GoogleAuthURL(ctx)
	require.NoError(t, err)
	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)

	resp, err := f.svc.GoogleCallback(ctx, state, "good-code")
	require.NoError(t, err)
	assert.True(t, resp.IsNewUser)
	assert.Equal(t, "nia@example.com", resp.User.Email)
	assert.Equal(t, models.AuthProviderGoogle, resp.User.Provider)

	// state is single use
	_, err = f.svc.GoogleCallback(ctx, state, "good-code")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	authURL, err = f.svc.GoogleAuthURL(ctx)
	require.NoError(t, err)
	parsed, _ = url.Parse(authURL)
	again, err := f.svc.GoogleCallback(ctx, parsed.Query().Get("state"), "good-code")
	require.NoError(t, err)
	assert.False(t, again.IsNewUser)
	assert.Equal(t, resp.User.ID, again.User.ID)

	authURL, _ = f.svc.GoogleAuthURL(ctx)
	parsed, _ = url.Parse(authURL)
	_, err = f.svc.GoogleCallback(ctx, parsed.Query().Get("state"), "bad-code")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCheckEmailAndPhone(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	taken, err := f.svc.CheckEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = f.svc.CheckPhone(ctx, "+1 242 555 0199")
	require.NoError(t, err)
	assert.False(t, taken)

	_, err = f.svc.CheckEmail(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
