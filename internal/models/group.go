package models

import "slices"

// Group is a set of people who share expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Goa trip").
	Name string

	// CreatedBy is the member who created the group. The creator is always a
	// member and cannot be removed.
	CreatedBy string

	// Members is the list of member names in join order.
	Members []string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// HasMember reports whether name is a current member.
func (g *Group) HasMember(name string) bool {
	return slices.Contains(g.Members, name)
}
