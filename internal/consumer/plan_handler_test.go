package consumer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/engagement/internal/events"
)

func resolvedMessage(t *testing.T, userID, impact string) Message {
	t.Helper()
	payload, err := json.Marshal(events.SuggestionResolved{
		UserID:         userID,
		NotificationID: "n1",
		Impact:         impact,
		Description:    "+ 2 sessions/week",
	})
	require.NoError(t, err)
	return Message{EventType: events.TypeSuggestionResolved, Payload: payload}
}

func TestPlanHandlerAddRaisesByTwo(t *testing.T) {
	handler := NewPlanHandler(quietLogger())

	require.NoError(t, handler.Handle(context.Background(), resolvedMessage(t, "u1", "add")))

	require.Equal(t, 5, handler.WeeklySessions("u1"))
	require.Equal(t, 3, handler.WeeklySessions("u2"), "other users keep the default plan")
}

func TestPlanHandlerReduceStopsAtFloor(t *testing.T) {
	handler := NewPlanHandler(quietLogger())

	for i := 0; i < 5; i++ {
		require.NoError(t, handler.Handle(context.Background(), resolvedMessage(t, "u1", "reduce")))
	}

	require.Equal(t, 1, handler.WeeklySessions("u1"))
}

func TestPlanHandlerIgnoresOtherEventTypes(t *testing.T) {
	handler := NewPlanHandler(quietLogger())

	msg := Message{EventType: events.TypePointsAwarded, Payload: json.RawMessage(`{"user_id":"u1","points":150}`)}
	require.NoError(t, handler.Handle(context.Background(), msg))

	require.Equal(t, 3, handler.WeeklySessions("u1"))
}

func TestPlanHandlerRejectsUnknownImpact(t *testing.T) {
	handler := NewPlanHandler(quietLogger())

	err := handler.Handle(context.Background(), resolvedMessage(t, "u1", "pause"))
	require.Error(t, err)
	require.Equal(t, 3, handler.WeeklySessions("u1"))
}
