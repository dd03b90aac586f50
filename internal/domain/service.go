// Package domain implements the progression and engagement engine: point
// awards, rank derivation, the activity ledger, the friend graph, the
// leaderboard, and the suggestion queue.
package domain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/engagement/internal/events"
)

// SessionStore is the durability boundary for user snapshots. Save must
// record the snapshot and the supplied events atomically so a rank change
// is never persisted without its notification event.
type SessionStore interface {
	Load(ctx context.Context, userID string) (*User, error)
	Save(ctx context.Context, user User, envelopes ...events.Envelope) error
}

// UserCatalog supplies the full population for the leaderboard and friend
// discovery. The engine does not own user creation.
type UserCatalog interface {
	AllUsers(ctx context.Context) ([]User, error)
	Get(ctx context.Context, userID string) (*User, error)
}

// Badge names awarded by the engine.
const (
	BadgeFirstStep   = "First Step"
	BadgeWeekWarrior = "Week Warrior"
	BadgeMonthMaster = "Month Master"
)

const (
	weekStreakDays  = 7
	monthStreakDays = 30
	// nearRankWindow is how close (in points) a user must be to the next
	// rank target before a recommendation is queued.
	nearRankWindow = 200
)

// Service ties the engine components together behind a single lock, so
// two near-simultaneous completions can neither lose nor double an award
// and leaderboard reads observe a consistent snapshot.
type Service struct {
	mu sync.Mutex

	progression  Progression
	catalog      []Activity
	catalogIndex map[string]Activity

	sessions SessionStore
	users    UserCatalog

	friends *FriendGraph

	// completions[userID][period] holds the activity ids completed in
	// that period. Lifetime points are never touched on period rollover.
	completions  map[string]map[string]map[string]struct{}
	streakPeriod map[string]string

	queue      []*Notification
	queueIndex map[string]*Notification
	// nearRankSeen dedupes the near-target recommendation per rank.
	nearRankSeen map[string]struct{}

	templates []SuggestionTemplate

	now   func() time.Time
	newID func() string
}

// Option configures optional Service behaviour.
type Option func(*Service)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides notification/template id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithCatalog replaces the seeded activity catalog.
func WithCatalog(catalog []Activity) Option {
	return func(s *Service) { s.catalog = catalog }
}

// WithRankTable replaces the default rank ladder.
func WithRankTable(table RankTable) Option {
	return func(s *Service) { s.progression = NewProgression(table) }
}

// NewService constructs the engine over the given collaborators.
func NewService(sessions SessionStore, users UserCatalog, opts ...Option) *Service {
	s := &Service{
		progression:  NewProgression(DefaultRankTable()),
		catalog:      DefaultCatalog(),
		sessions:     sessions,
		users:        users,
		friends:      NewFriendGraph(),
		completions:  make(map[string]map[string]map[string]struct{}),
		streakPeriod: make(map[string]string),
		queueIndex:   make(map[string]*Notification),
		nearRankSeen: make(map[string]struct{}),
		now:          func() time.Time { return time.Now().UTC() },
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.catalogIndex = make(map[string]Activity, len(s.catalog))
	for _, activity := range s.catalog {
		s.catalogIndex[activity.ID] = activity
	}
	s.templates = DefaultTemplates(s.now())
	return s
}

// Progression exposes the progression engine for derived reads.
func (s *Service) Progression() Progression {
	return s.progression
}

// Profile is the dashboard snapshot for one user.
type Profile struct {
	User             User
	ProgressFraction float64
	NextTarget       int
	DailyTotal       int
}

// GetProfile loads the session user with derived progression values.
func (s *Service) GetProfile(ctx context.Context, userID, period string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{
		User:             *user,
		ProgressFraction: s.progression.ProgressFraction(*user),
		NextTarget:       s.progression.Table().NextTarget(user.Rank),
		DailyTotal:       s.dailyTotalLocked(userID, period),
	}, nil
}

// ListActivities returns the catalog with per-period completion flags in
// stable catalog order.
func (s *Service) ListActivities(ctx context.Context, userID, period string) ([]ActivityStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.loadUser(ctx, userID); err != nil {
		return nil, err
	}

	done := s.completions[userID][period]
	statuses := make([]ActivityStatus, 0, len(s.catalog))
	for _, activity := range s.catalog {
		_, completed := done[activity.ID]
		statuses = append(statuses, ActivityStatus{Activity: activity, Completed: completed})
	}
	return statuses, nil
}

// CompletionResult reports the outcome of a completion attempt.
type CompletionResult struct {
	User        User
	Awarded     bool
	Points      int
	RankChanged bool
	DailyTotal  int
}

// CompleteActivity marks the activity completed for the period and awards
// its points through the progression engine. Completing an
// already-completed activity is an idempotent no-op: the user is returned
// unchanged and Awarded is false. Rank-up, achievement, and near-target
// notifications triggered by the award are enqueued within the same
// critical section as the point mutation.
func (s *Service) CompleteActivity(ctx context.Context, userID, activityID, period string) (*CompletionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	activity, ok := s.catalogIndex[activityID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrActivityNotFound, activityID)
	}

	if _, done := s.completions[userID][period][activityID]; done {
		return &CompletionResult{
			User:       *current,
			Awarded:    false,
			DailyTotal: s.dailyTotalLocked(userID, period),
		}, nil
	}

	user := *current
	user.Badges = append([]string(nil), current.Badges...)

	previousRank, err := s.progression.ApplyPoints(&user, activity.Points)
	if err != nil {
		return nil, err
	}

	if activity.Category == CategoryWorkout {
		user.WorkoutsCompleted++
	}

	// The streak grows on the first completion of each day and resets
	// after a missed day. Users loaded with an untracked streak keep it.
	firstOfPeriod := s.streakPeriod[userID] != period
	if firstOfPeriod {
		if previous, tracked := s.streakPeriod[userID]; !tracked || ConsecutivePeriods(previous, period) {
			user.StreakDays++
		} else {
			user.StreakDays = 1
		}
	}

	now := s.now()
	dailyTotal := s.dailyTotalLocked(userID, period) + activity.Points

	pending := make([]*Notification, 0, 3)
	envelopes := []events.Envelope{{
		EventType:    events.TypePointsAwarded,
		PartitionKey: userID,
		Payload: events.PointsAwarded{
			UserID:     userID,
			ActivityID: activityID,
			Points:     activity.Points,
			Total:      user.Points,
			DailyTotal: dailyTotal,
			OccurredAt: now,
		},
	}}

	for _, badge := range s.earnedBadges(user) {
		user.Badges = append(user.Badges, badge.name)
		pending = append(pending, s.buildNotification(userID, KindAchievement, "Achievement Unlocked", badge.message, nil))
		envelopes = append(envelopes, events.Envelope{
			EventType:    events.TypeAchievementUnlocked,
			PartitionKey: userID,
			Payload: events.AchievementUnlocked{
				UserID:     userID,
				Badge:      badge.name,
				StreakDays: user.StreakDays,
				OccurredAt: now,
			},
		})
	}

	rankChanged := user.Rank != previousRank
	if rankChanged {
		message := fmt.Sprintf("Congratulations! You have reached %s Rank", user.Rank)
		pending = append(pending, s.buildNotification(userID, KindRankUp, "Rank Increased!", message, nil))
		envelopes = append(envelopes, events.Envelope{
			EventType:    events.TypeRankUp,
			PartitionKey: userID,
			Payload: events.RankUp{
				UserID:       userID,
				PreviousRank: string(previousRank),
				NewRank:      string(user.Rank),
				Points:       user.Points,
				OccurredAt:   now,
			},
		})
	} else if n := s.nearRankRecommendation(userID, user); n != nil {
		pending = append(pending, n)
	}

	if err := s.sessions.Save(ctx, user, envelopes...); err != nil {
		return nil, err
	}

	// Commit in-memory state only after the snapshot is durable.
	s.markCompleted(userID, period, activityID)
	if firstOfPeriod {
		s.streakPeriod[userID] = period
	}
	for _, notification := range pending {
		s.enqueue(notification)
	}

	return &CompletionResult{
		User:        user,
		Awarded:     true,
		Points:      activity.Points,
		RankChanged: rankChanged,
		DailyTotal:  dailyTotal,
	}, nil
}

// DailyTotal sums the awards completed within the period. It is a
// session-scoped display value, independent of the lifetime total.
func (s *Service) DailyTotal(ctx context.Context, userID, period string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.loadUser(ctx, userID); err != nil {
		return 0, err
	}
	return s.dailyTotalLocked(userID, period), nil
}

// AddFriend inserts an edge into the owner's friend set.
func (s *Service) AddFriend(ctx context.Context, ownerID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ownerID == targetID {
		return ErrSelfFriend
	}
	if err := s.requireCatalogUser(ctx, ownerID); err != nil {
		return err
	}
	if err := s.requireCatalogUser(ctx, targetID); err != nil {
		return err
	}
	return s.friends.Add(ownerID, targetID)
}

// RemoveFriend removes an edge; removing a missing edge is a no-op.
func (s *Service) RemoveFriend(ctx context.Context, ownerID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireCatalogUser(ctx, ownerID); err != nil {
		return err
	}
	s.friends.Remove(ownerID, targetID)
	return nil
}

// Friends returns the owner's friends resolved against the user catalog.
func (s *Service) Friends(ctx context.Context, ownerID string) ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireCatalogUser(ctx, ownerID); err != nil {
		return nil, err
	}

	ids := s.friends.FriendsOf(ownerID)
	out := make([]User, 0, len(ids))
	for _, id := range ids {
		user, err := s.users.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if user != nil {
			out = append(out, *user)
		}
	}
	return out, nil
}

// DiscoverFriends searches the population by name or email substring,
// excluding the owner and annotating existing friendships.
func (s *Service) DiscoverFriends(ctx context.Context, ownerID, query string) ([]Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireCatalogUser(ctx, ownerID); err != nil {
		return nil, err
	}
	population, err := s.users.AllUsers(ctx)
	if err != nil {
		return nil, err
	}
	return s.friends.Discover(ownerID, query, population), nil
}

// Leaderboard derives the standings from a consistent snapshot of the
// user catalog.
func (s *Service) Leaderboard(ctx context.Context) ([]Standing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	population, err := s.users.AllUsers(ctx)
	if err != nil {
		return nil, err
	}
	return Standings(population), nil
}

// Notifications lists the user's queued notifications in creation order.
func (s *Service) Notifications(userID string) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Notification, 0)
	for _, notification := range s.queue {
		if notification.UserID == userID && notification.Status == StatusQueued {
			out = append(out, *notification)
		}
	}
	return out
}

// AcceptNotification resolves an actionable notification and records the
// resolution event for the plan collaborator. Resolution is irreversible.
func (s *Service) AcceptNotification(ctx context.Context, userID, notificationID string) (*Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notification, err := s.queuedNotification(userID, notificationID)
	if err != nil {
		return nil, err
	}
	if !notification.Actionable() {
		return nil, ErrNotActionable
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	envelope := events.Envelope{
		EventType:    events.TypeSuggestionResolved,
		PartitionKey: userID,
		Payload: events.SuggestionResolved{
			UserID:         userID,
			NotificationID: notification.ID,
			Impact:         string(notification.Action.Impact),
			Description:    notification.Action.Description,
			OccurredAt:     s.now(),
		},
	}
	if err := s.sessions.Save(ctx, *user, envelope); err != nil {
		return nil, err
	}

	notification.Status = StatusResolved
	resolved := *notification
	return &resolved, nil
}

// DismissNotification removes a notification from the active queue
// without side effect. The plan collaborator is never signalled.
func (s *Service) DismissNotification(userID, notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notification, err := s.queuedNotification(userID, notificationID)
	if err != nil {
		return err
	}
	notification.Status = StatusDismissed
	return nil
}

// Templates returns the suggestion catalog in insertion order.
func (s *Service) Templates() []SuggestionTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SuggestionTemplate, len(s.templates))
	copy(out, s.templates)
	return out
}

// CreateTemplate adds a suggestion template to the catalog.
func (s *Service) CreateTemplate(template SuggestionTemplate) SuggestionTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()

	template.ID = s.newID()
	template.UpdatedAt = s.now()
	s.templates = append(s.templates, template)
	return template
}

// UpdateTemplate replaces the stored fields of an existing template.
// Already-queued notifications derived from a prior version are not
// altered.
func (s *Service) UpdateTemplate(template SuggestionTemplate) (*SuggestionTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.templates {
		if s.templates[i].ID != template.ID {
			continue
		}
		template.UpdatedAt = s.now()
		s.templates[i] = template
		return &template, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, template.ID)
}

// DeleteTemplate removes a template from the catalog.
func (s *Service) DeleteTemplate(templateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.templates {
		if s.templates[i].ID == templateID {
			s.templates = append(s.templates[:i], s.templates[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
}

// PublishTemplate snapshots a template into the user's queue as a
// plan-change notification. Later template edits do not affect the
// queued copy.
func (s *Service) PublishTemplate(ctx context.Context, userID, templateID string) (*Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.loadUser(ctx, userID); err != nil {
		return nil, err
	}

	for _, template := range s.templates {
		if template.ID != templateID {
			continue
		}
		notification := s.buildNotification(userID, KindPlanChange, template.Title, template.Message, &Action{
			Label:       template.Title,
			Description: template.Description,
			Impact:      template.Impact,
		})
		s.enqueue(notification)
		published := *notification
		return &published, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
}

func (s *Service) loadUser(ctx context.Context, userID string) (*User, error) {
	user, err := s.sessions.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, userID)
	}
	return user, nil
}

func (s *Service) requireCatalogUser(ctx context.Context, userID string) error {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: %s", ErrUnknownUser, userID)
	}
	return nil
}

func (s *Service) dailyTotalLocked(userID, period string) int {
	total := 0
	for activityID := range s.completions[userID][period] {
		total += s.catalogIndex[activityID].Points
	}
	return total
}

func (s *Service) markCompleted(userID, period, activityID string) {
	periods, ok := s.completions[userID]
	if !ok {
		periods = make(map[string]map[string]struct{})
		s.completions[userID] = periods
	}
	done, ok := periods[period]
	if !ok {
		done = make(map[string]struct{})
		periods[period] = done
	}
	done[activityID] = struct{}{}
}

type earnedBadge struct {
	name    string
	message string
}

func (s *Service) earnedBadges(user User) []earnedBadge {
	badges := make([]earnedBadge, 0, 2)
	if !user.HasBadge(BadgeFirstStep) {
		badges = append(badges, earnedBadge{
			name:    BadgeFirstStep,
			message: "You completed your first activity! Your wellness journey begins",
		})
	}
	if user.StreakDays >= weekStreakDays && !user.HasBadge(BadgeWeekWarrior) {
		badges = append(badges, earnedBadge{
			name:    BadgeWeekWarrior,
			message: "You completed 7-day streak! Keep up the great work",
		})
	}
	if user.StreakDays >= monthStreakDays && !user.HasBadge(BadgeMonthMaster) {
		badges = append(badges, earnedBadge{
			name:    BadgeMonthMaster,
			message: "You completed 30-day streak! Outstanding dedication",
		})
	}
	return badges
}

func (s *Service) nearRankRecommendation(userID string, user User) *Notification {
	table := s.progression.Table()
	remaining := table.NextTarget(user.Rank) - user.Points
	if remaining <= 0 || remaining > nearRankWindow {
		return nil
	}
	seenKey := userID + "|" + string(user.Rank)
	if _, seen := s.nearRankSeen[seenKey]; seen {
		return nil
	}
	s.nearRankSeen[seenKey] = struct{}{}
	title := fmt.Sprintf("You are %d points away from %s", remaining, table.NextRankName(user.Rank))
	return s.buildNotification(userID, KindRecommendation, title, "Complete more activities today to reach the next rank!", nil)
}

func (s *Service) buildNotification(userID string, kind NotificationKind, title, message string, action *Action) *Notification {
	return &Notification{
		ID:        s.newID(),
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Message:   message,
		Action:    action,
		Status:    StatusQueued,
		CreatedAt: s.now(),
	}
}

// enqueue appends without disturbing previously issued ordering.
func (s *Service) enqueue(notification *Notification) {
	s.queue = append(s.queue, notification)
	s.queueIndex[notification.ID] = notification
}

func (s *Service) queuedNotification(userID, notificationID string) (*Notification, error) {
	notification, ok := s.queueIndex[notificationID]
	if !ok || notification.UserID != userID || notification.Status != StatusQueued {
		return nil, fmt.Errorf("%w: %s", ErrNotificationNotFound, notificationID)
	}
	return notification, nil
}
