// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mineos/landing/internal/metrics"
	"github.com/mineos/landing/internal/model"
	"github.com/mineos/landing/internal/repository"
)

// Service errors.
var (
	ErrAlreadySubscribed = errors.New("email already subscribed")
	ErrInvalidCursor     = errors.New("invalid cursor")
	ErrListUnavailable   = errors.New("subscriber listing not supported by store")
)

// Pagination bounds for admin listing.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// SubscriberStore is the storage capability registration needs.
type SubscriberStore interface {
	FindByEmail(ctx context.Context, email string) (*model.Subscriber, error)
	Create(ctx context.Context, email string) (*model.Subscriber, error)
}

// SubscriberLister pages through stored subscribers.
type SubscriberLister interface {
	List(ctx context.Context, cursor string, limit int) ([]*model.Subscriber, string, error)
}

// SubscriberService handles subscriber business logic.
type SubscriberService struct {
	store   SubscriberStore
	lister  SubscriberLister
	metrics metrics.Recorder
}

// NewSubscriberService creates a new SubscriberService.
// If store also implements SubscriberLister, admin listing is enabled.
func NewSubscriberService(store SubscriberStore, recorder metrics.Recorder) *SubscriberService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	lister, _ := store.(SubscriberLister)
	return &SubscriberService{
		store:   store,
		lister:  lister,
		metrics: recorder,
	}
}

// Register records a new subscriber for an already validated email.
//
// A record found by lookup, or a uniqueness conflict reported by the store,
// both yield ErrAlreadySubscribed. Any other store failure is returned wrapped.
func (s *SubscriberService) Register(ctx context.Context, email string) (*model.Subscriber, error) {
	existing, err := s.store.FindByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		s.metrics.IncSubscriberConflict()
		return nil, ErrAlreadySubscribed
	case err != nil && !errors.Is(err, repository.ErrSubscriberNotFound):
		s.metrics.IncStoreError()
		return nil, fmt.Errorf("failed to look up subscriber: %w", err)
	}

	sub, err := s.store.Create(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			s.metrics.IncSubscriberConflict()
			return nil, ErrAlreadySubscribed
		}
		s.metrics.IncStoreError()
		return nil, fmt.Errorf("failed to create subscriber: %w", err)
	}

	s.metrics.IncSubscriberCreated()
	return sub, nil
}

// ListSubscribersInput defines input for listing subscribers.
type ListSubscribersInput struct {
	Cursor string
	Limit  int
}

// ListSubscribersResult contains a page of subscribers.
type ListSubscribersResult struct {
	Subscribers []*model.Subscriber
	NextCursor  string
	HasMore     bool
}

// ListSubscribers returns subscribers newest first.
func (s *SubscriberService) ListSubscribers(ctx context.Context, input ListSubscribersInput) (*ListSubscribersResult, error) {
	if s.lister == nil {
		return nil, ErrListUnavailable
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	subs, next, err := s.lister.List(ctx, input.Cursor, limit)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCursor) {
			return nil, ErrInvalidCursor
		}
		s.metrics.IncStoreError()
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}

	if subs == nil {
		subs = []*model.Subscriber{}
	}

	return &ListSubscribersResult{
		Subscribers: subs,
		NextCursor:  next,
		HasMore:     next != "",
	}, nil
}
