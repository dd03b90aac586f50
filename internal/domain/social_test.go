package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFriendGraphRejectsSelfEdge(t *testing.T) {
	graph := NewFriendGraph()

	err := graph.Add("u1", "u1")
	require.ErrorIs(t, err, ErrSelfFriend)
	require.Empty(t, graph.FriendsOf("u1"))
}

func TestFriendGraphAddIsIdempotent(t *testing.T) {
	graph := NewFriendGraph()

	require.NoError(t, graph.Add("u1", "u2"))
	require.NoError(t, graph.Add("u1", "u2"))
	require.Equal(t, []string{"u2"}, graph.FriendsOf("u1"))
}

func TestFriendGraphRoundTrip(t *testing.T) {
	graph := NewFriendGraph()
	require.NoError(t, graph.Add("u1", "u3"))

	require.NoError(t, graph.Add("u1", "u2"))
	graph.Remove("u1", "u2")

	require.Equal(t, []string{"u3"}, graph.FriendsOf("u1"))
	require.False(t, graph.Contains("u1", "u2"))
}

func TestFriendGraphRemoveMissingIsNoOp(t *testing.T) {
	graph := NewFriendGraph()

	graph.Remove("u1", "u2")
	require.Empty(t, graph.FriendsOf("u1"))
}

func TestFriendGraphEdgesAreAsymmetric(t *testing.T) {
	graph := NewFriendGraph()

	require.NoError(t, graph.Add("u1", "u2"))
	require.True(t, graph.Contains("u1", "u2"))
	require.False(t, graph.Contains("u2", "u1"))
}

func TestDiscoverMatchesNameAndEmail(t *testing.T) {
	graph := NewFriendGraph()
	require.NoError(t, graph.Add("1", "3"))

	population := []User{
		{ID: "1", Name: "Sarah Johnson", Email: "sarah@example.com"},
		{ID: "2", Name: "Mike Chen", Email: "mike@example.com"},
		{ID: "3", Name: "Emily Rodriguez", Email: "emily@example.com"},
	}

	cases := []struct {
		query string
		want  []string
	}{
		{"MIKE", []string{"2"}},
		{"emily@", []string{"3"}},
		{"example.com", []string{"2", "3"}},
		{"", []string{"2", "3"}},
		{"nobody", []string{}},
	}

	for _, tc := range cases {
		results := graph.Discover("1", tc.query, population)
		ids := make([]string, 0, len(results))
		for _, candidate := range results {
			ids = append(ids, candidate.User.ID)
		}
		require.Equal(t, tc.want, ids, "query=%q", tc.query)
	}
}

func TestServiceAddFriendRequiresKnownUsers(t *testing.T) {
	ctx := context.Background()
	other := bronzeUser(500)
	other.ID = "u2"
	store := newFakeStore(bronzeUser(0), other)
	service := newTestService(store)

	require.ErrorIs(t, service.AddFriend(ctx, "u1", "u1"), ErrSelfFriend)
	require.ErrorIs(t, service.AddFriend(ctx, "u1", "ghost"), ErrUnknownUser)
	require.ErrorIs(t, service.AddFriend(ctx, "ghost", "u1"), ErrUnknownUser)

	require.NoError(t, service.AddFriend(ctx, "u1", "u2"))
	friends, err := service.Friends(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, friends, 1)
	require.Equal(t, "u2", friends[0].ID)

	require.NoError(t, service.RemoveFriend(ctx, "u1", "u2"))
	friends, err = service.Friends(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, friends)
}

func TestDiscoverAnnotatesExistingFriends(t *testing.T) {
	graph := NewFriendGraph()
	require.NoError(t, graph.Add("1", "2"))

	population := []User{
		{ID: "1", Name: "Sarah", Email: "sarah@example.com"},
		{ID: "2", Name: "Mike", Email: "mike@example.com"},
		{ID: "3", Name: "Emily", Email: "emily@example.com"},
	}

	results := graph.Discover("1", "", population)
	require.Len(t, results, 2)
	require.True(t, results[0].IsFriend)
	require.False(t, results[1].IsFriend)
}
