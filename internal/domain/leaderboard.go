package domain

import "sort"

// Standing is one leaderboard row. Position is 1-based and contiguous;
// tied point totals still receive distinct sequential positions.
type Standing struct {
	Position int
	User     User
}

// Standings derives the leaderboard from a snapshot of the user
// population. Ordering is points descending with ties broken by ascending
// user id, so repeated calls over the same input are reproducible. The
// input slice is not modified.
func Standings(users []User) []Standing {
	sorted := make([]User, len(users))
	copy(sorted, users)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Points != sorted[j].Points {
			return sorted[i].Points > sorted[j].Points
		}
		return sorted[i].ID < sorted[j].ID
	})

	standings := make([]Standing, len(sorted))
	for i, user := range sorted {
		standings[i] = Standing{Position: i + 1, User: user}
	}
	return standings
}
