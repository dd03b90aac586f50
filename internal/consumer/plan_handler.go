package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"example.com/engagement/internal/events"
)

const (
	defaultWeeklySessions = 3
	minWeeklySessions     = 1
)

// PlanHandler is the plan collaborator: it reacts to resolved suggestions
// by adjusting the user's weekly session plan. An "add" impact raises the
// plan by two sessions, a "reduce" impact lowers it by one, never below
// the floor. All other event types are ignored.
type PlanHandler struct {
	mu     sync.Mutex
	plans  map[string]int
	logger *log.Logger
}

// NewPlanHandler constructs a PlanHandler.
func NewPlanHandler(logger *log.Logger) *PlanHandler {
	if logger == nil {
		logger = log.New(log.Writer(), "[plan] ", log.LstdFlags)
	}
	return &PlanHandler{
		plans:  make(map[string]int),
		logger: logger,
	}
}

// Handle implements Handler.
func (h *PlanHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != events.TypeSuggestionResolved {
		return nil
	}

	var resolved events.SuggestionResolved
	if err := json.Unmarshal(msg.Payload, &resolved); err != nil {
		return fmt.Errorf("decode suggestion resolution: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	sessions, ok := h.plans[resolved.UserID]
	if !ok {
		sessions = defaultWeeklySessions
	}

	switch resolved.Impact {
	case "add":
		sessions += 2
	case "reduce":
		if sessions > minWeeklySessions {
			sessions--
		}
	default:
		return fmt.Errorf("unknown impact %q", resolved.Impact)
	}

	h.plans[resolved.UserID] = sessions
	h.logger.Printf("plan adjusted (user=%s, impact=%s, sessions=%d, change=%q)",
		resolved.UserID, resolved.Impact, sessions, resolved.Description)
	return nil
}

// WeeklySessions returns the planned sessions per week for the user.
func (h *PlanHandler) WeeklySessions(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sessions, ok := h.plans[userID]; ok {
		return sessions
	}
	return defaultWeeklySessions
}
