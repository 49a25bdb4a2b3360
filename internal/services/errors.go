package services

import (
	"errors"
	"fmt"

	"oneridetho/internal/repositories/interfaces"
)

var (
	ErrUnauthenticated      = errors.New("authentication required")
	ErrProfileIncomplete    = errors.New("profile photo required before booking")
	ErrNotVerified          = fmt.Errorf("%w: identity verification required", ErrProfileIncomplete)
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("not found")
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrRideNotFound         = fmt.Errorf("ride %w", ErrNotFound)
	ErrDriverNotFound       = fmt.Errorf("driver %w", ErrNotFound)
	ErrScheduleConflict     = errors.New("a ride is already scheduled for that time")
	ErrTooManyStops         = errors.New("a ride can have at most 3 stops")
	ErrRouteUnavailable     = errors.New("Ride unavailable for set pickup and dropoff locations.")
	ErrUpstreamNotification = errors.New("notification delivery failed")
	ErrPaymentGateway       = errors.New("payment gateway error")
	ErrInvalidRating        = errors.New("rating must be a number between 1 and 5")
	ErrAlreadyRated         = fmt.Errorf("%w: ride already rated", ErrInvalidRating)
	ErrInvalidTransition    = errors.New("ride can no longer change state")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAlreadyExists        = errors.New("account already exists")
	ErrResetFlow            = errors.New("password reset step out of order or expired")
	ErrRequestInFlight      = errors.New("an identical request is still being processed")
)

// InputError carries per-field details for an ErrInvalidInput.
type InputError struct {
	Fields map[string]string
}

func (e *InputError) Error() string {
	return ErrInvalidInput.Error()
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func invalidInput(field, message string) error {
	return &InputError{Fields: map[string]string{field: message}}
}

// notFound maps a repository miss onto the service sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, interfaces.ErrNotFound) {
		return sentinel
	}
	return err
}
