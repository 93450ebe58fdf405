package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"
)

// StoreSuite checks the Store contract against one backend.
// newStore must register its own cleanup.
type StoreSuite struct {
	suite.Suite
	newStore func(t *testing.T) Store
	store    Store
	ctx      context.Context
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore(s.T())
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, &StoreSuite{
		newStore: func(t *testing.T) Store {
			store := NewMemoryStore()
			t.Cleanup(store.Close)
			return store
		},
	})
}

func TestSQLiteStoreSuite(t *testing.T) {
	suite.Run(t, &StoreSuite{
		newStore: func(t *testing.T) Store {
			path := filepath.Join(t.TempDir(), "nested", "subscribers.db")
			store, err := OpenSQLite(context.Background(), path)
			if err != nil {
				t.Fatalf("open sqlite store: %v", err)
			}
			t.Cleanup(store.Close)
			return store
		},
	})
}

// TestCreateAndFind verifies created records are returned and retrievable.
func (s *StoreSuite) TestCreateAndFind() {
	s.Run("create assigns id and createdAt", func() {
		sub, err := s.store.Create(s.ctx, "create@example.com")
		s.Require().NoError(err)
		s.NotEmpty(sub.ID)
		s.Equal("create@example.com", sub.Email)
		s.False(sub.CreatedAt.IsZero())
	})

	s.Run("find returns the stored record", func() {
		created, err := s.store.Create(s.ctx, "find@example.com")
		s.Require().NoError(err)

		found, err := s.store.FindByEmail(s.ctx, "find@example.com")
		s.Require().NoError(err)
		s.Equal(created.ID, found.ID)
		s.Equal(created.Email, found.Email)
		s.WithinDuration(created.CreatedAt, found.CreatedAt, 0)
	})

	s.Run("find unknown email returns ErrSubscriberNotFound", func() {
		_, err := s.store.FindByEmail(s.ctx, "missing@example.com")
		s.Require().ErrorIs(err, ErrSubscriberNotFound)
	})
}

// TestEmailUniqueness verifies case-insensitive uniqueness with case-preserving storage.
func (s *StoreSuite) TestEmailUniqueness() {
	s.Run("rejects duplicate email", func() {
		_, err := s.store.Create(s.ctx, "dup@example.com")
		s.Require().NoError(err)

		_, err = s.store.Create(s.ctx, "dup@example.com")
		s.Require().ErrorIs(err, ErrEmailExists)
	})

	s.Run("rejects case variants", func() {
		_, err := s.store.Create(s.ctx, "Case@Example.com")
		s.Require().NoError(err)

		_, err = s.store.Create(s.ctx, "CASE@EXAMPLE.COM")
		s.Require().ErrorIs(err, ErrEmailExists)
	})

	s.Run("finds case variants and keeps original casing", func() {
		_, err := s.store.Create(s.ctx, "Keep.Me@Example.com")
		s.Require().NoError(err)

		found, err := s.store.FindByEmail(s.ctx, "keep.me@example.com")
		s.Require().NoError(err)
		s.Equal("Keep.Me@Example.com", found.Email)
	})
}

// TestConcurrentCreate verifies exactly one of many racing creates wins.
func (s *StoreSuite) TestConcurrentCreate() {
	const goroutines = 20

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Create(s.ctx, "race@example.com")
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, ErrEmailExists):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load(), "exactly one create should succeed")
	s.Equal(int32(goroutines-1), conflicts.Load(), "all others should conflict")
}

// TestList verifies newest-first cursor pagination.
func (s *StoreSuite) TestList() {
	var ids []string
	for i := 0; i < 5; i++ {
		sub, err := s.store.Create(s.ctx, fmt.Sprintf("list%d@example.com", i))
		s.Require().NoError(err)
		ids = append(ids, sub.ID)
	}

	page1, cursor, err := s.store.List(s.ctx, "", 2)
	s.Require().NoError(err)
	s.Require().Len(page1, 2)
	s.NotEmpty(cursor)
	s.Equal("list4@example.com", page1[0].Email)
	s.Equal("list3@example.com", page1[1].Email)

	page2, cursor, err := s.store.List(s.ctx, cursor, 2)
	s.Require().NoError(err)
	s.Require().Len(page2, 2)
	s.Equal("list2@example.com", page2[0].Email)
	s.Equal("list1@example.com", page2[1].Email)

	page3, cursor, err := s.store.List(s.ctx, cursor, 2)
	s.Require().NoError(err)
	s.Require().Len(page3, 1)
	s.Empty(cursor)
	s.Equal(ids[0], page3[0].ID)

	_, _, err = s.store.List(s.ctx, "%%%not-base64", 2)
	s.Require().ErrorIs(err, ErrInvalidCursor)
}

func (s *StoreSuite) TestPing() {
	s.NoError(s.store.Ping(s.ctx))
}
