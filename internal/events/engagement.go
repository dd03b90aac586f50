// Package events defines the engagement event payloads shared between the
// engine, the outbox dispatcher, and downstream consumers.
package events

import "time"

// Event types carried in the event_type message header.
const (
	TypePointsAwarded       = "engagement.points_awarded"
	TypeRankUp              = "engagement.rank_up"
	TypeAchievementUnlocked = "engagement.achievement_unlocked"
	TypeSuggestionResolved  = "engagement.suggestion_resolved"
)

// Topic is the Kafka topic all engagement events are published to.
const Topic = "engagement_events"

// Envelope pairs a payload with its routing metadata. The session store
// records envelopes in the outbox alongside the user snapshot.
type Envelope struct {
	EventType    string
	PartitionKey string
	Payload      interface{}
}

// PointsAwarded is emitted for every successful activity completion.
type PointsAwarded struct {
	UserID     string    `json:"user_id"`
	ActivityID string    `json:"activity_id"`
	Points     int       `json:"points"`
	Total      int       `json:"total"`
	DailyTotal int       `json:"daily_total"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RankUp is emitted when an award moves the user to a higher tier.
type RankUp struct {
	UserID       string    `json:"user_id"`
	PreviousRank string    `json:"previous_rank"`
	NewRank      string    `json:"new_rank"`
	Points       int       `json:"points"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// AchievementUnlocked is emitted when a badge is earned.
type AchievementUnlocked struct {
	UserID     string    `json:"user_id"`
	Badge      string    `json:"badge"`
	StreakDays int       `json:"streak_days"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SuggestionResolved is emitted when a user accepts an actionable
// notification. The plan collaborator applies the impact; the engine does
// not interpret the description further.
type SuggestionResolved struct {
	UserID         string    `json:"user_id"`
	NotificationID string    `json:"notification_id"`
	Impact         string    `json:"impact"`
	Description    string    `json:"description"`
	OccurredAt     time.Time `json:"occurred_at"`
}
