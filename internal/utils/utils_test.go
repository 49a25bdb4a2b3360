package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	userID := primitive.NewObjectID()

	token, err := GenerateAccessToken(userID, "sess-1", "a@b.co", "secret", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)

	claims, err := ValidateToken(token.Token, "secret")
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "sess-1", claims.SessionToken)

	_, err = ValidateToken(token.Token, "other-secret")
	assert.Error(t, err)
}

func TestAccessTokenDefaultTTLAndGarbage(t *testing.T) {
	token, err := GenerateAccessToken(primitive.NewObjectID(), "sess", "", "secret", -time.Hour)
	require.NoError(t, err)
	// non-positive ttl falls back to the default, so the token is still valid
	_, err = ValidateToken(token.Token, "secret")
	require.NoError(t, err)

	_, err = ValidateToken("not-a-jwt", "secret")
	assert.Error(t, err)
}

func TestGenerateSecureToken(t *testing.T) {
	a, err := GenerateSecureToken(16)
	require.NoError(t, err)
	b, err := GenerateSecureToken(16)
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestGenerateRandomNumericString(t *testing.T) {
	code := GenerateRandomNumericString(6)
	assert.Len(t, code, 6)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9')
	}
}

func TestNormalizeImageScalesLongEdge(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1024, 256))
	for x := 0; x < 1024; x++ {
		src.Set(x, 10, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	out, dims, err := NormalizeImage(&buf, "car.png", 512)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.Equal(t, 512, dims.Width)
	assert.Equal(t, 128, dims.Height)
}

func TestNormalizeImageRejectsGarbage(t *testing.T) {
	_, _, err := NormalizeImage(bytes.NewReader([]byte("nope")), "file.bin", 512)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestContactHelpers(t *testing.T) {
	assert.Equal(t, "rider@example.com", NormalizeEmail("  Rider@Example.com "))
	assert.True(t, IsValidEmail("rider@example.com"))
	assert.False(t, IsValidEmail("rider@"))

	assert.Equal(t, "+12425551234", NormalizePhone("+1 (242) 555-1234"))
	assert.True(t, IsValidPhone("+1 (242) 555-1234"))
	assert.False(t, IsValidPhone("12"))

	assert.True(t, IsEmail("a@b.co"))
	assert.False(t, IsEmail("+12425551234"))
	assert.Equal(t, "r****@example.com", MaskEmail("rider@example.com"))
	assert.Equal(t, "********1234", MaskPhone("+12425551234"))
}
