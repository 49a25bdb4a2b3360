package utils

import (
	"regexp"
	"strings"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex    = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)
	phoneStripper = regexp.MustCompile(`[^\d+]`)
)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(NormalizeEmail(email))
}

// NormalizePhone strips punctuation and whitespace but keeps a leading +.
func NormalizePhone(phone string) string {
	return phoneStripper.ReplaceAllString(strings.TrimSpace(phone), "")
}

func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(NormalizePhone(phone))
}

// IsEmail decides whether a login or recovery contact is an email address or
// a phone number.
func IsEmail(contact string) bool {
	return strings.Contains(contact, "@")
}

func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 1 {
		return email
	}
	return email[:1] + strings.Repeat("*", at-1) + email[at:]
}

func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
