package middleware

import (
	"context"
	"net/http"
	"strings"

	"oneridetho/internal/models"
	"oneridetho/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ContextUserID       = "user_id"
	ContextSessionToken = "session_token"
)

// SessionValidator resolves a bearer token to a live session. The auth
// service implements it.
type SessionValidator interface {
	ValidateSession(ctx context.Context, accessToken string) (*models.Session, error)
}

// AuthRequired validates the bearer token against the session store and sets
// the user id on the context.
func AuthRequired(sessions SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization header required")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "Bearer token required")
			c.Abort()
			return
		}

		session, err := sessions.ValidateSession(c.Request.Context(), tokenString)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", utils.ErrInvalidToken)
			c.Abort()
			return
		}

		c.Set(ContextUserID, session.UserID)
		c.Set(ContextSessionToken, session.SessionToken)

		c.Next()
	}
}

// GetUserID returns the authenticated user, or false outside AuthRequired.
func GetUserID(c *gin.Context) (primitive.ObjectID, bool) {
	value, exists := c.Get(ContextUserID)
	if !exists {
		return primitive.NilObjectID, false
	}
	userID, ok := value.(primitive.ObjectID)
	if !ok || userID.IsZero() {
		return primitive.NilObjectID, false
	}
	return userID, true
}

func GetSessionToken(c *gin.Context) string {
	return c.GetString(ContextSessionToken)
}
