// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Subscriber is an early-access email signup.
// Records are created once and never updated or deleted.
type Subscriber struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewSubscriber builds a subscriber with a fresh ULID and creation time.
// The email is stored exactly as given.
func NewSubscriber(email string, now time.Time) *Subscriber {
	return &Subscriber{
		ID:        ulid.Make().String(),
		Email:     email,
		CreatedAt: now.UTC(),
	}
}

// Key returns the uniqueness key for the subscriber's email.
func (s *Subscriber) Key() string {
	return EmailKey(s.Email)
}

// EmailKey returns the value emails are compared by.
// Comparison is case-insensitive while storage keeps the original casing.
func EmailKey(email string) string {
	return strings.ToLower(email)
}

// MaskEmail hides most of the local part so addresses can be logged.
// "jane.doe@example.com" becomes "j***@example.com".
func MaskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
