package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/engagement/internal/events"
)

// fakeStore implements SessionStore and UserCatalog, recording every
// envelope saved alongside a snapshot.
type fakeStore struct {
	users     map[string]User
	envelopes []events.Envelope
	saveErr   error
}

func newFakeStore(users ...User) *fakeStore {
	store := &fakeStore{users: make(map[string]User)}
	for _, user := range users {
		store.users[user.ID] = user
	}
	return store
}

func (f *fakeStore) Load(ctx context.Context, userID string) (*User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (f *fakeStore) Save(ctx context.Context, user User, envelopes ...events.Envelope) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.users[user.ID] = user
	f.envelopes = append(f.envelopes, envelopes...)
	return nil
}

func (f *fakeStore) Get(ctx context.Context, userID string) (*User, error) {
	return f.Load(ctx, userID)
}

func (f *fakeStore) AllUsers(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(f.users))
	for _, user := range f.users {
		out = append(out, user)
	}
	return out, nil
}

func (f *fakeStore) eventTypes() []string {
	types := make([]string, 0, len(f.envelopes))
	for _, envelope := range f.envelopes {
		types = append(types, envelope.EventType)
	}
	return types
}

func newTestService(store *fakeStore) *Service {
	counter := 0
	return NewService(store, store,
		WithClock(func() time.Time {
			return time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
		}),
		WithIDGenerator(func() string {
			counter++
			return fmt.Sprintf("id-%d", counter)
		}),
	)
}

func bronzeUser(points int) User {
	return User{
		ID:     "u1",
		Name:   "Test Runner",
		Email:  "runner@example.com",
		Points: points,
		Rank:   RankBronze,
		Badges: []string{BadgeFirstStep},
	}
}

func TestCompleteActivityAwardsOncePerPeriod(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(bronzeUser(1200))
	service := newTestService(store)

	first, err := service.CompleteActivity(ctx, "u1", "morning-run", "2026-03-14")
	require.NoError(t, err)
	require.True(t, first.Awarded)
	require.Equal(t, 150, first.Points)
	require.Equal(t, 1350, first.User.Points)
	require.Equal(t, RankBronze, first.User.Rank)
	require.Equal(t, 150, first.DailyTotal)

	second, err := service.CompleteActivity(ctx, "u1", "morning-run", "2026-03-14")
	require.NoError(t, err)
	require.False(t, second.Awarded)
	require.Equal(t, 1350, second.User.Points, "replay must not re-award")
	require.Equal(t, 150, second.DailyTotal)
}

func TestCompleteActivityUnknownID(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(bronzeUser(1200))
	service := newTestService(store)

	_, err := service.CompleteActivity(ctx, "u1", "does-not-exist", "2026-03-14")
	require.ErrorIs(t, err, ErrActivityNotFound)

	statuses, err := service.ListActivities(ctx, "u1", "2026-03-14")
	require.NoError(t, err)
	for _, status := range statuses {
		require.False(t, status.Completed, "rejected completion must leave the ledger untouched")
	}
}

func TestCompleteActivityUnknownUser(t *testing.T) {
	ctx := context.Background()
	service := newTestService(newFakeStore())

	_, err := service.CompleteActivity(ctx, "ghost", "morning-run", "2026-03-14")
	require.ErrorIs(t, err, ErrUnknownUser)
}

func TestPeriodRolloverResetsFlagsNotPoints(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(bronzeUser(1200))
	service := newTestService(store)

	_, err := service.CompleteActivity(ctx, "u1", "yoga-session", "2026-03-14")
	require.NoError(t, err)

	statuses, err := service.ListActivities(ctx, "u1", "2026-03-15")
	require.NoError(t, err)
	for _, status := range statuses {
		require.False(t, status.Completed)
	}

	result, err := service.CompleteActivity(ctx, "u1", "yoga-session", "2026-03-15")
	require.NoError(t, err)
	require.True(t, result.Awarded)
	require.Equal(t, 1400, result.User.Points, "lifetime points accumulate across periods")

	total, err := service.DailyTotal(ctx, "u1", "2026-03-15")
	require.NoError(t, err)
	require.Equal(t, 100, total)
}

func TestListActivitiesKeepsCatalogOrder(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(bronzeUser(0))
	service := newTestService(store)

	statuses, err := service.ListActivities(ctx, "u1", "2026-03-14")
	require.NoError(t, err)

	wantIDs := []string{"morning-run", "healthy-breakfast", "yoga-session", "gym-weights", "healthy-lunch", "invite-friend"}
	require.Len(t, statuses, len(wantIDs))
	for i, status := range statuses {
		require.Equal(t, wantIDs[i], status.Activity.ID)
	}
}

func TestRankUpEnqueuesNotificationAndEvent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(bronzeUser(1900))
	service := newTestService(store)

	result, err := service.CompleteActivity(ctx, "u1", "gym-weights", "2026-03-14")
	require.NoError(t, err)
	require.True(t, result.RankChanged)
	require.Equal(t, RankSilver, result.User.Rank)

	queued := service.Notifications("u1")
	require.Len(t, queued, 1)
	require.Equal(t, KindRankUp, queued[0].Kind)
	require.Contains(t, queued[0].Message, "Silver")
	require.False(t, queued[0].Actionable())

	require.Contains(t, store.eventTypes(), events.TypeRankUp)
}

func TestNearRankRecommendationIsDeduplicated(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(bronzeUser(1700))
	service := newTestService(store)

	// 1700 + 150 = 1850, within 200 of the Silver threshold.
	_, err := service.CompleteActivity(ctx, "u1", "morning-run", "2026-03-14")
	require.NoError(t, err)

	queued := service.Notifications("u1")
	require.Len(t, queued, 1)
	require.Equal(t, KindRecommendation, queued[0].Kind)
	require.Contains(t, queued[0].Title, "Silver")

	// Still near the threshold; no second recommendation.
	_, err = service.CompleteActivity(ctx, "u1", "healthy-breakfast", "2026-03-14")
	require.NoError(t, err)
	require.Len(t, service.Notifications("u1"), 1)
}

func TestStreakMilestoneAwardsBadge(t *testing.T) {
	ctx := context.Background()
	user := bronzeUser(100)
	user.StreakDays = 6
	store := newFakeStore(user)
	service := newTestService(store)

	result, err := service.CompleteActivity(ctx, "u1", "healthy-lunch", "2026-03-14")
	require.NoError(t, err)
	require.Equal(t, 7, result.User.StreakDays)
	require.True(t, result.User.HasBadge(BadgeWeekWarrior))

	queued := service.Notifications("u1")
	require.Len(t, queued, 1)
	require.Equal(t, KindAchievement, queued[0].Kind)
	require.Contains(t, store.eventTypes(), events.TypeAchievementUnlocked)

	// The second completion of the same period does not advance the streak.
	result, err = service.CompleteActivity(ctx, "u1", "yoga-session", "2026-03-14")
	require.NoError(t, err)
	require.Equal(t, 7, result.User.StreakDays)
}

func TestStreakResetsAfterMissedDay(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(bronzeUser(0))
	service := newTestService(store)

	result, err := service.CompleteActivity(ctx, "u1", "healthy-lunch", "2026-03-14")
	require.NoError(t, err)
	require.Equal(t, 1, result.User.StreakDays)

	result, err = service.CompleteActivity(ctx, "u1", "healthy-lunch", "2026-03-15")
	require.NoError(t, err)
	require.Equal(t, 2, result.User.StreakDays, "adjacent day extends the streak")

	// 2026-03-16 goes by without a completion.
	result, err = service.CompleteActivity(ctx, "u1", "healthy-lunch", "2026-03-17")
	require.NoError(t, err)
	require.Equal(t, 1, result.User.StreakDays, "a missed day starts the streak over")
}

func TestConsecutivePeriods(t *testing.T) {
	cases := []struct {
		previous string
		current  string
		want     bool
	}{
		{"2026-03-14", "2026-03-15", true},
		{"2026-03-31", "2026-04-01", true},
		{"2026-03-14", "2026-03-16", false},
		{"2026-03-15", "2026-03-14", false},
		{"2026-03-14", "2026-03-14", false},
		{"", "2026-03-14", false},
		{"not-a-date", "2026-03-14", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ConsecutivePeriods(tc.previous, tc.current), "%s -> %s", tc.previous, tc.current)
	}
}

func TestWorkoutCompletionIncrementsCounter(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(bronzeUser(0))
	service := newTestService(store)

	result, err := service.CompleteActivity(ctx, "u1", "gym-weights", "2026-03-14")
	require.NoError(t, err)
	require.Equal(t, 1, result.User.WorkoutsCompleted)

	result, err = service.CompleteActivity(ctx, "u1", "healthy-lunch", "2026-03-14")
	require.NoError(t, err)
	require.Equal(t, 1, result.User.WorkoutsCompleted, "nutrition must not count as workout")
}

func TestSaveFailureLeavesLedgerUntouched(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(bronzeUser(1200))
	service := newTestService(store)

	store.saveErr = errors.New("store down")
	_, err := service.CompleteActivity(ctx, "u1", "morning-run", "2026-03-14")
	require.Error(t, err)

	store.saveErr = nil
	require.Equal(t, 1200, store.users["u1"].Points)
	require.Empty(t, service.Notifications("u1"))

	// The completion was not recorded, so the retry still awards.
	result, err := service.CompleteActivity(ctx, "u1", "morning-run", "2026-03-14")
	require.NoError(t, err)
	require.True(t, result.Awarded)
}

func TestFirstCompletionAwardsFirstStep(t *testing.T) {
	ctx := context.Background()
	user := bronzeUser(0)
	user.Badges = nil
	store := newFakeStore(user)
	service := newTestService(store)

	result, err := service.CompleteActivity(ctx, "u1", "healthy-breakfast", "2026-03-14")
	require.NoError(t, err)
	require.True(t, result.User.HasBadge(BadgeFirstStep))
}

func TestPointsAwardedEventCarriesTotals(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(bronzeUser(1200))
	service := newTestService(store)

	_, err := service.CompleteActivity(ctx, "u1", "morning-run", "2026-03-14")
	require.NoError(t, err)

	require.NotEmpty(t, store.envelopes)
	awarded, ok := store.envelopes[0].Payload.(events.PointsAwarded)
	require.True(t, ok)
	require.Equal(t, "u1", awarded.UserID)
	require.Equal(t, 150, awarded.Points)
	require.Equal(t, 1350, awarded.Total)
	require.Equal(t, 150, awarded.DailyTotal)
}
