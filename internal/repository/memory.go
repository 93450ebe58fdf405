package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mineos/landing/internal/model"
)

// MemoryStore keeps subscribers in process memory.
// Records do not survive a restart; use it for development and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	byKey map[string]*model.Subscriber
	ids   []string // ascending; ULIDs sort by creation time
	byID  map[string]*model.Subscriber
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byKey: make(map[string]*model.Subscriber),
		byID:  make(map[string]*model.Subscriber),
	}
}

// FindByEmail retrieves a subscriber by email, ignoring case.
func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*model.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sub, ok := s.byKey[model.EmailKey(email)]; ok {
		clone := *sub
		return &clone, nil
	}
	return nil, ErrSubscriberNotFound
}

// Create stores a new subscriber unless its email is already present.
// The check and the insert happen under one lock.
func (s *MemoryStore) Create(_ context.Context, email string) (*model.Subscriber, error) {
	sub := model.NewSubscriber(email, time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byKey[sub.Key()]; exists {
		return nil, ErrEmailExists
	}

	s.byKey[sub.Key()] = sub
	s.byID[sub.ID] = sub
	s.insertID(sub.ID)

	clone := *sub
	return &clone, nil
}

// List returns subscribers newest first, starting after cursor.
func (s *MemoryStore) List(_ context.Context, cursor string, limit int) ([]*model.Subscriber, string, error) {
	afterID, err := decodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Index of the first ID not older than the cursor; walk down from below it.
	end := len(s.ids)
	if afterID != "" {
		end = sort.SearchStrings(s.ids, afterID)
	}

	subs := make([]*model.Subscriber, 0, limit+1)
	for i := end - 1; i >= 0 && len(subs) <= limit; i-- {
		clone := *s.byID[s.ids[i]]
		subs = append(subs, &clone)
	}

	return paginate(subs, limit)
}

// Count returns the number of stored subscribers.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byKey)
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() {}

// insertID keeps ids sorted. Callers hold the write lock.
func (s *MemoryStore) insertID(id string) {
	i := sort.SearchStrings(s.ids, id)
	s.ids = append(s.ids, "")
	copy(s.ids[i+1:], s.ids[i:])
	s.ids[i] = id
}
