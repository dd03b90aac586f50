package domain

import "time"

// Category classifies catalog activities.
type Category string

const (
	CategoryWorkout     Category = "workout"
	CategoryNutrition   Category = "nutrition"
	CategoryMindfulness Category = "mindfulness"
	CategorySocial      Category = "social"
)

// Activity is a completable catalog entry with a fixed point award.
type Activity struct {
	ID          string
	Name        string
	Description string
	Points      int
	Category    Category
}

// ActivityStatus pairs a catalog entry with its per-period completion flag.
type ActivityStatus struct {
	Activity  Activity
	Completed bool
}

const periodLayout = "2006-01-02"

// PeriodKey buckets a point in time into the calendar-day period used to
// scope completion idempotency.
func PeriodKey(t time.Time) string {
	return t.UTC().Format(periodLayout)
}

// ConsecutivePeriods reports whether current is the day immediately after
// previous. Unparseable keys never count as consecutive.
func ConsecutivePeriods(previous, current string) bool {
	prev, err := time.Parse(periodLayout, previous)
	if err != nil {
		return false
	}
	cur, err := time.Parse(periodLayout, current)
	if err != nil {
		return false
	}
	return prev.AddDate(0, 0, 1).Equal(cur)
}

// DefaultCatalog returns the seeded daily activity checklist in its stable
// display order.
func DefaultCatalog() []Activity {
	return []Activity{
		{ID: "morning-run", Name: "Morning Run", Description: "30 minutes cardio", Points: 150, Category: CategoryWorkout},
		{ID: "healthy-breakfast", Name: "Healthy Breakfast", Description: "Balanced meal", Points: 50, Category: CategoryNutrition},
		{ID: "yoga-session", Name: "Yoga Session", Description: "20 minutes mindfulness", Points: 100, Category: CategoryMindfulness},
		{ID: "gym-weights", Name: "Gym Weights", Description: "45 minutes strength", Points: 200, Category: CategoryWorkout},
		{ID: "healthy-lunch", Name: "Healthy Lunch", Description: "Protein & vegetables", Points: 50, Category: CategoryNutrition},
		{ID: "invite-friend", Name: "Invite Friend", Description: "Share wellness journey", Points: 75, Category: CategorySocial},
	}
}
