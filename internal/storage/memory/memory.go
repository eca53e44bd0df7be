package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"subtrack/internal/core"
	"subtrack/internal/storage"
)

// Store is an in-process Repository for development and tests.
type Store struct {
	mu     sync.Mutex
	subs   map[int64]record
	users  map[int64]core.User
	nextID int64
	userID int64
}

type record struct {
	sub      core.Subscription
	syncedAt time.Time
}

var _ storage.Repository = (*Store)(nil)

func New() *Store {
	return &Store{
		subs:  map[int64]record{},
		users: map[int64]core.User{},
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateSubscription(_ context.Context, sub core.Subscription) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(s.subs, sub)
}

func (s *Store) ListSubscriptions(_ context.Context, ownerID int64) ([]core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Subscription, 0)
	for _, r := range s.subs {
		if r.sub.OwnerID == ownerID {
			out = append(out, r.sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetSubscription(_ context.Context, id int64) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.subs[id]
	if !ok {
		return core.Subscription{}, core.ErrNotFound
	}
	return r.sub, nil
}

func (s *Store) ReplaceSubscription(_ context.Context, sub core.Subscription) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.subs[sub.ID]
	if !ok {
		return core.Subscription{}, core.ErrNotFound
	}
	if nameTaken(s.subs, sub.OwnerID, sub.Name, sub.ID) {
		return core.Subscription{}, core.ErrDuplicateName
	}
	sub.OwnerID = existing.sub.OwnerID
	sub.CreatedAt = existing.sub.CreatedAt
	s.subs[sub.ID] = record{sub: sub}
	return sub, nil
}

func (s *Store) DeleteSubscription(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.subs, id)
	return nil
}

// WithinTx stages writes on a copy and swaps it in only when fn succeeds.
func (s *Store) WithinTx(_ context.Context, fn func(storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[int64]record, len(s.subs))
	for id, r := range s.subs {
		staged[id] = r
	}
	savedID := s.nextID

	if err := fn(&memTx{store: s, subs: staged}); err != nil {
		s.nextID = savedID
		return err
	}
	s.subs = staged
	return nil
}

func (s *Store) ListUnsyncedSubscriptions(_ context.Context, limit int) ([]core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Subscription, 0)
	for _, r := range s.subs {
		if r.syncedAt.IsZero() {
			out = append(out, r.sub)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.Before(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkSynced(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.subs[id]
	if !ok {
		return core.ErrNotFound
	}
	r.syncedAt = at
	s.subs[id] = r
	return nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return core.User{}, core.ErrDuplicateUsername
		}
	}
	s.userID++
	u.ID = s.userID
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func (s *Store) GetUserByID(_ context.Context, id int64) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (s *Store) insertLocked(subs map[int64]record, sub core.Subscription) (core.Subscription, error) {
	if nameTaken(subs, sub.OwnerID, sub.Name, 0) {
		return core.Subscription{}, core.ErrDuplicateName
	}
	s.nextID++
	sub.ID = s.nextID
	subs[sub.ID] = record{sub: sub}
	return sub, nil
}

// nameTaken matches names exactly, like the UNIQUE(user_id, name) constraint.
func nameTaken(subs map[int64]record, ownerID int64, name string, exceptID int64) bool {
	for id, r := range subs {
		if id != exceptID && r.sub.OwnerID == ownerID && r.sub.Name == name {
			return true
		}
	}
	return false
}

type memTx struct {
	store *Store
	subs  map[int64]record
}

func (t *memTx) SubscriptionNameExists(_ context.Context, ownerID int64, name string) (bool, error) {
	return nameTaken(t.subs, ownerID, name, 0), nil
}

func (t *memTx) CreateSubscription(_ context.Context, sub core.Subscription) (core.Subscription, error) {
	return t.store.insertLocked(t.subs, sub)
}
