package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuthProvider string

const (
	AuthProviderCredentials AuthProvider = "credentials"
	AuthProviderGoogle      AuthProvider = "google"
)

type User struct {
	ID                   primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name                 string             `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email                string             `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Phone                string             `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,phone_number"`
	PhotoURL             string             `json:"photo_url" bson:"photo_url"`
	GovernmentIssuedID   string             `json:"government_issued_id,omitempty" bson:"government_issued_id,omitempty"`
	VerificationPhotoURL string             `json:"verification_photo_url,omitempty" bson:"verification_photo_url,omitempty"`
	Verified             bool               `json:"verified" bson:"verified"`
	Provider             AuthProvider       `json:"provider" bson:"provider"`
	CreatedAt            time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at" bson:"updated_at"`
}

// HasPhoto reports whether the profile is complete enough to book.
func (u *User) HasPhoto() bool {
	return u.PhotoURL != ""
}

// Account holds the credentials for a User. One account per user.
type Account struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id"`
	Email     string             `json:"email" bson:"email"`
	Password  string             `json:"-" bson:"password"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

type Session struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID       primitive.ObjectID `json:"user_id" bson:"user_id"`
	SessionToken string             `json:"-" bson:"session_token"`
	ExpiresAt    time.Time          `json:"expires_at" bson:"expires_at"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
