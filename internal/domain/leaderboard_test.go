package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStandingsOrdersByPointsThenID(t *testing.T) {
	users := []User{
		{ID: "4", Points: 1250},
		{ID: "2", Points: 3120},
		{ID: "1", Points: 2450},
		{ID: "3", Points: 1850},
	}

	standings := Standings(users)

	require.Len(t, standings, 4)
	for i, wantID := range []string{"2", "1", "3", "4"} {
		require.Equal(t, i+1, standings[i].Position)
		require.Equal(t, wantID, standings[i].User.ID)
	}
}

func TestStandingsBreaksTiesByAscendingID(t *testing.T) {
	users := []User{
		{ID: "9", Points: 2890},
		{ID: "5", Points: 2890},
		{ID: "7", Points: 3000},
	}

	standings := Standings(users)

	require.Equal(t, "7", standings[0].User.ID)
	require.Equal(t, "5", standings[1].User.ID)
	require.Equal(t, "9", standings[2].User.ID)
	// Tied totals still get distinct adjacent positions.
	require.Equal(t, standings[1].Position+1, standings[2].Position)
}

func TestStandingsPositionsAreContiguous(t *testing.T) {
	users := []User{
		{ID: "a", Points: 100},
		{ID: "b", Points: 100},
		{ID: "c", Points: 100},
		{ID: "d", Points: 50},
	}

	standings := Standings(users)

	seen := make(map[int]bool)
	for i, standing := range standings {
		require.Equal(t, i+1, standing.Position)
		require.False(t, seen[standing.Position])
		seen[standing.Position] = true
	}
}

func TestStandingsDoesNotMutateInput(t *testing.T) {
	users := []User{
		{ID: "b", Points: 10},
		{ID: "a", Points: 20},
	}

	_ = Standings(users)

	require.Equal(t, "b", users[0].ID)
	require.Equal(t, "a", users[1].ID)
}
