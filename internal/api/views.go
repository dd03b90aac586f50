package api

import (
	"errors"
	"strings"
	"time"

	"example.com/engagement/internal/domain"
)

// UserView exposes the user snapshot with derived progression values.
type UserView struct {
	UserID            string   `json:"user_id"`
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Points            int      `json:"points"`
	Rank              string   `json:"rank"`
	ProgressFraction  float64  `json:"progress_fraction"`
	TotalDistanceKM   float64  `json:"total_distance_km"`
	WorkoutsCompleted int      `json:"workouts_completed"`
	StreakDays        int      `json:"streak_days"`
	Badges            []string `json:"badges"`
}

// ProfileView is the dashboard payload for GET /v1/profile.
type ProfileView struct {
	User       UserView `json:"user"`
	NextTarget int      `json:"next_target"`
	DailyTotal int      `json:"daily_total"`
}

// ActivityView pairs a catalog entry with its completion flag.
type ActivityView struct {
	ActivityID  string `json:"activity_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Points      int    `json:"points"`
	Category    string `json:"category"`
	Completed   bool   `json:"completed"`
}

// ListActivitiesResponse packages the catalog listing.
type ListActivitiesResponse struct {
	Items []ActivityView `json:"items"`
}

// CompleteActivityResponse reports a completion attempt.
type CompleteActivityResponse struct {
	Awarded     bool     `json:"awarded"`
	RankChanged bool     `json:"rank_changed"`
	DailyTotal  int      `json:"daily_total"`
	User        UserView `json:"user"`
}

// StandingView is one leaderboard row.
type StandingView struct {
	Position int    `json:"position"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Points   int    `json:"points"`
	Rank     string `json:"rank"`
}

// LeaderboardResponse packages the standings.
type LeaderboardResponse struct {
	Standings []StandingView `json:"standings"`
}

// FriendView is a friend or discovery candidate.
type FriendView struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Points   int    `json:"points"`
	Rank     string `json:"rank"`
	IsFriend bool   `json:"is_friend"`
}

// FriendsResponse packages friend listings.
type FriendsResponse struct {
	Friends []FriendView `json:"friends"`
}

// ActionView is the accept affordance on a notification.
type ActionView struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

// NotificationView is one queue entry.
type NotificationView struct {
	NotificationID string      `json:"notification_id"`
	Kind           string      `json:"kind"`
	Title          string      `json:"title"`
	Message        string      `json:"message"`
	Action         *ActionView `json:"action,omitempty"`
	Status         string      `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
}

// NotificationsResponse packages the active queue.
type NotificationsResponse struct {
	Notifications []NotificationView `json:"notifications"`
}

// TemplateView is one suggestion-catalog entry.
type TemplateView struct {
	SuggestionID string    `json:"suggestion_id"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Description  string    `json:"description"`
	Impact       string    `json:"impact"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TemplatesResponse packages the suggestion catalog.
type TemplatesResponse struct {
	Suggestions []TemplateView `json:"suggestions"`
}

// TemplateRequest is the payload for creating or updating a suggestion.
type TemplateRequest struct {
	Title       string `json:"title"`
	Message     string `json:"message"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

// Validate ensures request correctness.
func (r TemplateRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	if strings.TrimSpace(r.Message) == "" {
		return errors.New("message is required")
	}
	if r.Impact != string(domain.ImpactAdd) && r.Impact != string(domain.ImpactReduce) {
		return errors.New("impact must be add or reduce")
	}
	return nil
}

func (r TemplateRequest) toTemplate() domain.SuggestionTemplate {
	return domain.SuggestionTemplate{
		Title:       r.Title,
		Message:     r.Message,
		Description: r.Description,
		Impact:      domain.Impact(r.Impact),
	}
}

func toUserView(user domain.User, fraction float64) UserView {
	badges := user.Badges
	if badges == nil {
		badges = []string{}
	}
	return UserView{
		UserID:            user.ID,
		Name:              user.Name,
		Email:             user.Email,
		Points:            user.Points,
		Rank:              string(user.Rank),
		ProgressFraction:  fraction,
		TotalDistanceKM:   user.TotalDistanceKM,
		WorkoutsCompleted: user.WorkoutsCompleted,
		StreakDays:        user.StreakDays,
		Badges:            badges,
	}
}

func toProfileView(profile domain.Profile) ProfileView {
	return ProfileView{
		User:       toUserView(profile.User, profile.ProgressFraction),
		NextTarget: profile.NextTarget,
		DailyTotal: profile.DailyTotal,
	}
}

func toActivityView(status domain.ActivityStatus) ActivityView {
	return ActivityView{
		ActivityID:  status.Activity.ID,
		Name:        status.Activity.Name,
		Description: status.Activity.Description,
		Points:      status.Activity.Points,
		Category:    string(status.Activity.Category),
		Completed:   status.Completed,
	}
}

func toFriendView(user domain.User, isFriend bool) FriendView {
	return FriendView{
		UserID:   user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Points:   user.Points,
		Rank:     string(user.Rank),
		IsFriend: isFriend,
	}
}

func toNotificationView(notification domain.Notification) NotificationView {
	view := NotificationView{
		NotificationID: notification.ID,
		Kind:           string(notification.Kind),
		Title:          notification.Title,
		Message:        notification.Message,
		Status:         string(notification.Status),
		CreatedAt:      notification.CreatedAt,
	}
	if notification.Action != nil {
		view.Action = &ActionView{
			Label:       notification.Action.Label,
			Description: notification.Action.Description,
			Impact:      string(notification.Action.Impact),
		}
	}
	return view
}

func toTemplateView(template domain.SuggestionTemplate) TemplateView {
	return TemplateView{
		SuggestionID: template.ID,
		Title:        template.Title,
		Message:      template.Message,
		Description:  template.Description,
		Impact:       string(template.Impact),
		UpdatedAt:    template.UpdatedAt,
	}
}
