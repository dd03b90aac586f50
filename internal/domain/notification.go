package domain

import "time"

// NotificationKind categorizes queue entries.
type NotificationKind string

const (
	KindRankUp         NotificationKind = "rank-up"
	KindPlanChange     NotificationKind = "plan-change"
	KindAchievement    NotificationKind = "achievement"
	KindRecommendation NotificationKind = "recommendation"
)

// Impact is the direction of a plan change carried by an Action.
type Impact string

const (
	ImpactAdd    Impact = "add"
	ImpactReduce Impact = "reduce"
)

// Action is the optional accept affordance attached to a notification.
// Accepting signals the plan collaborator; the engine itself does not
// interpret the description.
type Action struct {
	Label       string
	Description string
	Impact      Impact
}

// NotificationStatus tracks the queue lifecycle. Queued is the only
// non-terminal state.
type NotificationStatus string

const (
	StatusQueued    NotificationStatus = "queued"
	StatusResolved  NotificationStatus = "resolved"
	StatusDismissed NotificationStatus = "dismissed"
)

// Notification is a generated engagement message owned by one user.
type Notification struct {
	ID        string
	UserID    string
	Kind      NotificationKind
	Title     string
	Message   string
	Action    *Action
	Status    NotificationStatus
	CreatedAt time.Time
}

// Actionable reports whether the notification can be resolved. Entries
// without an action are informational and can only be dismissed.
func (n Notification) Actionable() bool {
	return n.Action != nil
}

// SuggestionTemplate is a user-editable plan suggestion. Templates are a
// separate store from the live queue: publishing snapshots the template
// into a queued notification, and later edits never alter queued copies.
type SuggestionTemplate struct {
	ID          string
	Title       string
	Message     string
	Description string
	Impact      Impact
	UpdatedAt   time.Time
}

// DefaultTemplates seeds the suggestion catalog.
func DefaultTemplates(now time.Time) []SuggestionTemplate {
	return []SuggestionTemplate{
		{
			ID:          "add-cardio",
			Title:       "Add Cardio Sessions",
			Message:     "Based on your recent progress and streak, we recommend adding 2 more cardio sessions per week to boost your endurance",
			Description: "+ 2 sessions/week",
			Impact:      ImpactAdd,
			UpdatedAt:   now,
		},
		{
			ID:          "reduce-training",
			Title:       "Reduce Training",
			Message:     "You seem to be overtraining with 5 gym sessions this week. Consider reducing to 4 sessions and add a rest day",
			Description: "- 1 session/week",
			Impact:      ImpactReduce,
			UpdatedAt:   now,
		},
	}
}
