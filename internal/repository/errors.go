package repository

import (
	"encoding/base64"
	"errors"
)

// Common errors for subscriber storage operations.
var (
	ErrSubscriberNotFound = errors.New("subscriber not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrStoreUnavailable   = errors.New("subscriber store unavailable")
	ErrInvalidCursor      = errors.New("invalid pagination cursor")
)

// encodeCursor makes a subscriber ID opaque for pagination.
func encodeCursor(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

// decodeCursor returns the subscriber ID a cursor points past.
// An empty cursor decodes to an empty ID (first page).
func decodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}
	data, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil || len(data) == 0 {
		return "", ErrInvalidCursor
	}
	return string(data), nil
}
