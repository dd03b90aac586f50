// Package memory provides an in-memory session store and user catalog for
// local development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"example.com/engagement/internal/domain"
	"example.com/engagement/internal/events"
)

// EventSink receives the envelopes recorded with each snapshot save. Used
// in place of the transactional outbox when no database is configured.
type EventSink func(ctx context.Context, envelopes ...events.Envelope)

// Store keeps user snapshots in a mutex-guarded map.
type Store struct {
	mu    sync.RWMutex
	users map[string]domain.User
	sink  EventSink
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{users: make(map[string]domain.User)}
}

// NewSeededStore constructs a store pre-populated with the demo
// population.
func NewSeededStore() *Store {
	store := NewStore()
	for _, user := range seedUsers() {
		store.users[user.ID] = user
	}
	return store
}

// SetEventSink registers a callback invoked with the events recorded on
// each save.
func (s *Store) SetEventSink(sink EventSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// Put inserts or replaces a user snapshot directly, bypassing events.
func (s *Store) Put(user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

// Load implements domain.SessionStore. Absent users return nil.
func (s *Store) Load(ctx context.Context, userID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	user.Badges = append([]string(nil), user.Badges...)
	return &user, nil
}

// Save implements domain.SessionStore.
func (s *Store) Save(ctx context.Context, user domain.User, envelopes ...events.Envelope) error {
	s.mu.Lock()
	user.Badges = append([]string(nil), user.Badges...)
	s.users[user.ID] = user
	sink := s.sink
	s.mu.Unlock()

	if sink != nil && len(envelopes) > 0 {
		sink(ctx, envelopes...)
	}
	return nil
}

// Get implements domain.UserCatalog.
func (s *Store) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.Load(ctx, userID)
}

// AllUsers implements domain.UserCatalog. Output order is stable (by id)
// for reproducible listings.
func (s *Store) AllUsers(ctx context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		user.Badges = append([]string(nil), user.Badges...)
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func seedUsers() []domain.User {
	users := []domain.User{
		{
			ID: "1", Name: "Sarah Johnson", Email: "sarah@example.com",
			Points:          2450,
			TotalDistanceKM: 125.5, WorkoutsCompleted: 42, StreakDays: 15,
			Badges: []string{"First Step", "Week Warrior", "Month Master", "Consistency Pro"},
		},
		{
			ID: "2", Name: "Mike Chen", Email: "mike@example.com",
			Points:          3120,
			TotalDistanceKM: 215.8, WorkoutsCompleted: 68, StreakDays: 32,
			Badges: []string{"First Step", "Week Warrior", "Month Master", "Consistency Pro", "Elite Runner"},
		},
		{
			ID: "3", Name: "Emily Rodriguez", Email: "emily@example.com",
			Points:          1850,
			TotalDistanceKM: 87.3, WorkoutsCompleted: 28, StreakDays: 8,
			Badges: []string{"First Step", "Week Warrior"},
		},
		{
			ID: "4", Name: "David Kim", Email: "david@example.com",
			Points:          1250,
			TotalDistanceKM: 45.2, WorkoutsCompleted: 15, StreakDays: 3,
			Badges: []string{"First Step"},
		},
		{
			ID: "5", Name: "Jessica Lee", Email: "jessica@example.com",
			Points:          2890,
			TotalDistanceKM: 156.4, WorkoutsCompleted: 54, StreakDays: 22,
			Badges: []string{"First Step", "Week Warrior", "Month Master", "Cycle Enthusiast"},
		},
	}

	table := domain.DefaultRankTable()
	for i := range users {
		users[i].Rank = table.RankFor(users[i].Points)
	}
	return users
}
