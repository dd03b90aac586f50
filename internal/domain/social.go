package domain

import "strings"

// FriendGraph stores asymmetric friend edges keyed by the owning user.
// Only the initiating user's friend set is materialized; there is no
// mutual-consent handshake.
type FriendGraph struct {
	edges map[string]map[string]struct{}
}

// NewFriendGraph constructs an empty graph.
func NewFriendGraph() *FriendGraph {
	return &FriendGraph{edges: make(map[string]map[string]struct{})}
}

// Add inserts an edge into the owner's friend set. Self-edges are
// rejected; adding an existing edge is a no-op.
func (g *FriendGraph) Add(ownerID, targetID string) error {
	if ownerID == targetID {
		return ErrSelfFriend
	}
	set, ok := g.edges[ownerID]
	if !ok {
		set = make(map[string]struct{})
		g.edges[ownerID] = set
	}
	set[targetID] = struct{}{}
	return nil
}

// Remove deletes an edge. Removing a non-existent edge is a no-op.
func (g *FriendGraph) Remove(ownerID, targetID string) {
	delete(g.edges[ownerID], targetID)
}

// Contains reports edge membership.
func (g *FriendGraph) Contains(ownerID, targetID string) bool {
	_, ok := g.edges[ownerID][targetID]
	return ok
}

// FriendsOf returns a snapshot of the owner's friend ids, unordered.
func (g *FriendGraph) FriendsOf(ownerID string) []string {
	set := g.edges[ownerID]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// Candidate is a discovery result annotated with current friendship.
type Candidate struct {
	User     User
	IsFriend bool
}

// Discover filters the population by a case-insensitive substring match
// over name or email, excluding the owner. Results keep catalog order.
func (g *FriendGraph) Discover(ownerID, query string, population []User) []Candidate {
	normalized := strings.ToLower(strings.TrimSpace(query))
	results := make([]Candidate, 0)
	for _, user := range population {
		if user.ID == ownerID {
			continue
		}
		if normalized != "" &&
			!strings.Contains(strings.ToLower(user.Name), normalized) &&
			!strings.Contains(strings.ToLower(user.Email), normalized) {
			continue
		}
		results = append(results, Candidate{User: user, IsFriend: g.Contains(ownerID, user.ID)})
	}
	return results
}
