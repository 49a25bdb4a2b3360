package utils

import "time"

// Application Constants
const (
	AppName = "OneRideTho"

	// Authentication
	JWTAccessTokenTTL = 30 * 24 * time.Hour
	PasswordMaxLength = 128

	// File Upload
	MaxImageSize = 5 * 1024 * 1024 // 5MB

	// Headers
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderRequestID      = "X-Request-ID"
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInvalidCredentials = "invalid credentials"
	ErrInvalidToken       = "invalid token"
	ErrInvalidInput       = "invalid input"
	ErrInternalServer     = "internal server error"
	ErrUnauthorized       = "unauthorized"
	ErrForbidden          = "forbidden"
	ErrValidationFailed   = "validation failed"
	ErrFileUploadFailed   = "file upload failed"
	ErrPaymentFailed      = "payment failed"
)

// Cache Keys
const (
	CacheUserPrefix           = "user:"
	CacheDriverLocationPrefix = "driver_location:"
	CacheIdempotencyPrefix    = "idem:"
	CacheCheckoutPrefix       = "checkout:"
	CachePasswordResetPrefix  = "password_reset:"
	CacheOAuthStatePrefix     = "oauth_state:"
)

// Event Types
const (
	EventRideRequested = "ride_requested"
	EventRideScheduled = "ride_scheduled"
	EventRideCancelled = "ride_cancelled"
	EventRideRated     = "ride_rated"
	EventRideUpdate    = "ride_update"
)

// File Types
var AllowedImageTypes = []string{"jpg", "jpeg", "png"}
