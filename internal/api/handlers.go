// Package api exposes HTTP handlers for the engagement service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"example.com/engagement/internal/auth"
	"example.com/engagement/internal/domain"
	"example.com/engagement/internal/observability"
)

// Handler coordinates HTTP requests with the engagement engine.
type Handler struct {
	service *domain.Service
	now     func() time.Time
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service, now: func() time.Time { return time.Now().UTC() }}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/profile", h.profile)
	mux.HandleFunc("/v1/activities", h.activities)
	mux.HandleFunc("/v1/activities/", h.activityAction)
	mux.HandleFunc("/v1/leaderboard", h.leaderboard)
	mux.HandleFunc("/v1/friends", h.friends)
	mux.HandleFunc("/v1/friends/discover", h.discoverFriends)
	mux.HandleFunc("/v1/friends/", h.friendByID)
	mux.HandleFunc("/v1/notifications", h.notifications)
	mux.HandleFunc("/v1/notifications/", h.notificationAction)
	mux.HandleFunc("/v1/suggestions", h.suggestions)
	mux.HandleFunc("/v1/suggestions/", h.suggestionByID)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := h.requireRead(w, r)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(r.Context(), claims.Subject, h.period(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileView(*profile))
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := h.requireRead(w, r)
	if !ok {
		return
	}

	statuses, err := h.service.ListActivities(r.Context(), claims.Subject, h.period(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]ActivityView, 0, len(statuses))
	for _, status := range statuses {
		items = append(items, toActivityView(status))
	}
	writeJSON(w, http.StatusOK, ListActivitiesResponse{Items: items})
}

func (h *Handler) activityAction(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/activities/")
	activityID, action, found := strings.Cut(rest, "/")
	if !found || action != "complete" || activityID == "" {
		writeError(w, http.StatusNotFound, "not_found", "unknown route")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := h.requireWrite(w, r)
	if !ok {
		return
	}

	result, err := h.service.CompleteActivity(r.Context(), claims.Subject, activityID, h.period(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	observability.RecordCompletion(result.Points, result.Awarded, result.RankChanged)

	writeJSON(w, http.StatusOK, CompleteActivityResponse{
		Awarded:     result.Awarded,
		RankChanged: result.RankChanged,
		DailyTotal:  result.DailyTotal,
		User:        toUserView(result.User, h.service.Progression().ProgressFraction(result.User)),
	})
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := h.requireRead(w, r); !ok {
		return
	}

	standings, err := h.service.Leaderboard(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]StandingView, 0, len(standings))
	for _, standing := range standings {
		items = append(items, StandingView{
			Position: standing.Position,
			UserID:   standing.User.ID,
			Name:     standing.User.Name,
			Points:   standing.User.Points,
			Rank:     string(standing.User.Rank),
		})
	}
	writeJSON(w, http.StatusOK, LeaderboardResponse{Standings: items})
}

func (h *Handler) friends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := h.requireRead(w, r)
	if !ok {
		return
	}

	friends, err := h.service.Friends(r.Context(), claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]FriendView, 0, len(friends))
	for _, friend := range friends {
		items = append(items, toFriendView(friend, true))
	}
	writeJSON(w, http.StatusOK, FriendsResponse{Friends: items})
}

func (h *Handler) discoverFriends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := h.requireRead(w, r)
	if !ok {
		return
	}

	candidates, err := h.service.DiscoverFriends(r.Context(), claims.Subject, r.URL.Query().Get("q"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]FriendView, 0, len(candidates))
	for _, candidate := range candidates {
		items = append(items, toFriendView(candidate.User, candidate.IsFriend))
	}
	writeJSON(w, http.StatusOK, FriendsResponse{Friends: items})
}

func (h *Handler) friendByID(w http.ResponseWriter, r *http.Request) {
	targetID := strings.TrimPrefix(r.URL.Path, "/v1/friends/")
	if targetID == "" || strings.Contains(targetID, "/") {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing friend id")
		return
	}
	claims, ok := h.requireWrite(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPut:
		if err := h.service.AddFriend(r.Context(), claims.Subject, targetID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		if err := h.service.RemoveFriend(r.Context(), claims.Subject, targetID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) notifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := h.requireRead(w, r)
	if !ok {
		return
	}

	queued := h.service.Notifications(claims.Subject)
	items := make([]NotificationView, 0, len(queued))
	for _, notification := range queued {
		items = append(items, toNotificationView(notification))
	}
	writeJSON(w, http.StatusOK, NotificationsResponse{Notifications: items})
}

func (h *Handler) notificationAction(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/notifications/")
	notificationID, action, found := strings.Cut(rest, "/")
	if !found || notificationID == "" {
		writeError(w, http.StatusNotFound, "not_found", "unknown route")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := h.requireWrite(w, r)
	if !ok {
		return
	}

	switch action {
	case "accept":
		resolved, err := h.service.AcceptNotification(r.Context(), claims.Subject, notificationID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		observability.RecordNotificationResolution("accepted")
		writeJSON(w, http.StatusOK, toNotificationView(*resolved))
	case "dismiss":
		if err := h.service.DismissNotification(claims.Subject, notificationID); err != nil {
			writeDomainError(w, err)
			return
		}
		observability.RecordNotificationResolution("dismissed")
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown route")
	}
}

func (h *Handler) suggestions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := h.requireRead(w, r); !ok {
			return
		}
		templates := h.service.Templates()
		items := make([]TemplateView, 0, len(templates))
		for _, template := range templates {
			items = append(items, toTemplateView(template))
		}
		writeJSON(w, http.StatusOK, TemplatesResponse{Suggestions: items})
	case http.MethodPost:
		if _, ok := h.requireWrite(w, r); !ok {
			return
		}
		var req TemplateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		created := h.service.CreateTemplate(req.toTemplate())
		writeJSON(w, http.StatusCreated, toTemplateView(created))
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) suggestionByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/suggestions/")
	templateID, action, hasAction := strings.Cut(rest, "/")
	if templateID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing suggestion id")
		return
	}

	if hasAction {
		if action != "publish" {
			writeError(w, http.StatusNotFound, "not_found", "unknown route")
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
			return
		}
		claims, ok := h.requireWrite(w, r)
		if !ok {
			return
		}
		published, err := h.service.PublishTemplate(r.Context(), claims.Subject, templateID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toNotificationView(*published))
		return
	}

	if _, ok := h.requireWrite(w, r); !ok {
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req TemplateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		template := req.toTemplate()
		template.ID = templateID
		updated, err := h.service.UpdateTemplate(template)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTemplateView(*updated))
	case http.MethodDelete:
		if err := h.service.DeleteTemplate(templateID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

// period resolves the completion period, defaulting to the current
// calendar day. Callers owning rollover detection may pass an explicit
// period key.
func (h *Handler) period(r *http.Request) string {
	if period := strings.TrimSpace(r.URL.Query().Get("period")); period != "" {
		return period
	}
	return domain.PeriodKey(h.now())
}

func (h *Handler) requireRead(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	if !claims.HasScope(auth.ScopeEngagementRead) && !claims.HasScope(auth.ScopeEngagementWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope engagement:read required")
		return nil, false
	}
	return claims, true
}

func (h *Handler) requireWrite(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	if !claims.HasScope(auth.ScopeEngagementWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope engagement:write required")
		return nil, false
	}
	return claims, true
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownUser):
		writeError(w, http.StatusNotFound, "unknown_user", err.Error())
	case errors.Is(err, domain.ErrActivityNotFound):
		writeError(w, http.StatusNotFound, "activity_not_found", err.Error())
	case errors.Is(err, domain.ErrNotificationNotFound):
		writeError(w, http.StatusNotFound, "notification_not_found", err.Error())
	case errors.Is(err, domain.ErrTemplateNotFound):
		writeError(w, http.StatusNotFound, "suggestion_not_found", err.Error())
	case errors.Is(err, domain.ErrSelfFriend):
		writeError(w, http.StatusBadRequest, "self_friend", err.Error())
	case errors.Is(err, domain.ErrInvalidDelta):
		writeError(w, http.StatusBadRequest, "invalid_delta", err.Error())
	case errors.Is(err, domain.ErrNotActionable):
		writeError(w, http.StatusConflict, "not_actionable", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
