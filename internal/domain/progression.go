package domain

// Progression owns all point-total mutation so a rank recompute can never
// be skipped. Other components route awards through ApplyPoints instead of
// writing User.Points directly.
type Progression struct {
	table RankTable
}

// NewProgression constructs a Progression over the given rank table.
func NewProgression(table RankTable) Progression {
	return Progression{table: table}
}

// ApplyPoints adds a positive delta to the user's total and recomputes the
// rank. It returns the rank held before the award so callers can detect a
// rank-up. A non-positive delta is rejected and leaves the user untouched.
func (p Progression) ApplyPoints(u *User, delta int) (Rank, error) {
	if delta <= 0 {
		return u.Rank, ErrInvalidDelta
	}
	previous := u.Rank
	u.Points += delta
	u.Rank = p.table.RankFor(u.Points)
	return previous, nil
}

// ProgressFraction reports progress toward the next rank target in [0, 1].
func (p Progression) ProgressFraction(u User) float64 {
	return p.table.ProgressFraction(u)
}

// Table exposes the rank table for read-only lookups.
func (p Progression) Table() RankTable {
	return p.table
}
