// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/mineos/landing/internal/model"
)

// SubscriberResponse represents a subscriber in API responses.
type SubscriberResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// SubscriberListResponse represents a paginated list of subscribers.
type SubscriberListResponse struct {
	Data       []SubscriberResponse `json:"data"`
	Pagination *Pagination          `json:"pagination"`
}

// Pagination provides cursor-based pagination info.
type Pagination struct {
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// ErrorResponse is the body of every non-validation error.
type ErrorResponse struct {
	Message string `json:"message"`
}

// ValidationErrorResponse names the offending field of a rejected payload.
type ValidationErrorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field"`
}

// ToSubscriberResponse converts a model.Subscriber to SubscriberResponse.
func ToSubscriberResponse(sub *model.Subscriber) SubscriberResponse {
	return SubscriberResponse{
		ID:        sub.ID,
		Email:     sub.Email,
		CreatedAt: sub.CreatedAt.UTC(),
	}
}

// ToSubscriberListResponse converts a page of subscribers.
func ToSubscriberListResponse(subs []*model.Subscriber, nextCursor string, hasMore bool) SubscriberListResponse {
	data := make([]SubscriberResponse, 0, len(subs))
	for _, sub := range subs {
		data = append(data, ToSubscriberResponse(sub))
	}

	return SubscriberListResponse{
		Data: data,
		Pagination: &Pagination{
			NextCursor: nextCursor,
			HasMore:    hasMore,
		},
	}
}
