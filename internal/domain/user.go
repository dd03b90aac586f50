package domain

import "math"

// Rank is a named progression tier derived from a user's point total.
type Rank string

const (
	RankBronze   Rank = "Bronze"
	RankSilver   Rank = "Silver"
	RankGold     Rank = "Gold"
	RankPlatinum Rank = "Platinum"
)

// User is the engagement snapshot persisted through the session store.
type User struct {
	ID                string
	Name              string
	Email             string
	Points            int
	Rank              Rank
	TotalDistanceKM   float64
	WorkoutsCompleted int
	StreakDays        int
	Badges            []string
}

// HasBadge reports whether the user already earned the named badge.
func (u User) HasBadge(name string) bool {
	for _, badge := range u.Badges {
		if badge == name {
			return true
		}
	}
	return false
}

type rankThreshold struct {
	Rank  Rank
	Entry int
}

// RankTable maps each tier to the point total required to enter it.
// Entries are ordered and strictly increasing past the Bronze floor.
type RankTable struct {
	tiers []rankThreshold
	// eliteTarget is the progress denominator for Platinum, which has no
	// named tier above it.
	eliteTarget int
}

// DefaultRankTable returns the standard tier ladder.
func DefaultRankTable() RankTable {
	return RankTable{
		tiers: []rankThreshold{
			{Rank: RankBronze, Entry: 0},
			{Rank: RankSilver, Entry: 2000},
			{Rank: RankGold, Entry: 3500},
			{Rank: RankPlatinum, Entry: 5000},
		},
		eliteTarget: 10000,
	}
}

// RankFor returns the highest tier whose entry threshold the total meets.
// Totals below every threshold stay at the Bronze floor.
func (t RankTable) RankFor(points int) Rank {
	rank := t.tiers[0].Rank
	for _, tier := range t.tiers {
		if points >= tier.Entry {
			rank = tier.Rank
		}
	}
	return rank
}

// NextTarget returns the point total the given rank is progressing toward:
// the next tier's entry threshold, or the elite target for the top tier.
func (t RankTable) NextTarget(rank Rank) int {
	for i, tier := range t.tiers {
		if tier.Rank != rank {
			continue
		}
		if i+1 < len(t.tiers) {
			return t.tiers[i+1].Entry
		}
		return t.eliteTarget
	}
	return t.eliteTarget
}

// NextRankName returns the display name of the tier above the given rank.
// The top tier progresses toward the unnamed elite target.
func (t RankTable) NextRankName(rank Rank) string {
	for i, tier := range t.tiers {
		if tier.Rank == rank && i+1 < len(t.tiers) {
			return string(t.tiers[i+1].Rank)
		}
	}
	return "Elite"
}

// ProgressFraction reports how far the user has progressed toward the next
// rank target, clamped to [0, 1].
func (t RankTable) ProgressFraction(u User) float64 {
	target := t.NextTarget(u.Rank)
	return math.Min(1, float64(u.Points)/float64(target))
}
