package events_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wichananm65/user-admin/internal/events"
)

func TestUserEvent_Marshal(t *testing.T) {
	ev := events.NewUserEvent(events.UserDeleted, 7, "")

	b, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, "user.deleted", decoded["event_type"])
	require.Equal(t, float64(7), decoded["user_id"])
	_, hasEmail := decoded["email"]
	require.False(t, hasEmail)
	require.NotEmpty(t, decoded["occurred_at"])
}

func TestNopPublisher(t *testing.T) {
	var p events.Publisher = events.NopPublisher{}
	require.NoError(t, p.Publish(context.Background(), events.NewUserEvent(events.UserCreated, 1, "a@b.com")))
}
