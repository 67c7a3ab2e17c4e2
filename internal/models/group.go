package models

// Role is the permission level a Member holds within a Group.
type Role string

const (
	// RoleAdmin can manage membership, events, and exchange rounds.
	RoleAdmin Role = "admin"

	// RoleMember is the default role for participants.
	RoleMember Role = "member"
)

// Group represents a circle of people who plan events together.
//
// Invariant: while the group exists, at least one Member holds RoleAdmin.
// The store refuses removals that would leave the group adminless.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "The Bakkers", "Ski Crew").
	Name string `json:"name"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `json:"created_at"`
}

// Member represents an adult participant in a Group.
// Children are modeled separately; see Child.
type Member struct {
	// ID is the unique identifier for the member (UUID format).
	ID string `json:"id"`

	// GroupID is the group this membership belongs to.
	GroupID string `json:"group_id"`

	// UserID references the person behind this membership. Authentication
	// and profiles live outside the engine; the engine only needs the
	// opaque identifier.
	UserID string `json:"user_id"`

	// Name is the display name of the member.
	Name string `json:"name"`

	// Role is the member's permission level within the group.
	Role Role `json:"role"`

	// PartnerID is the member's declared partner within the same group,
	// or empty. Partnerships are mutual: both sides reference each other,
	// and each member has at most one active partnership. The exchange
	// generator uses this to exclude partners from receiving each other.
	PartnerID string `json:"partner_id"`

	// CreatedAt is the Unix timestamp when the membership was created.
	CreatedAt int64 `json:"created_at"`
}

// Child represents a participant-capable child owned by one or more
// parent Members. Children appear in subgroups, presence counts, and
// cost allocation, but never hold admin roles or cast votes.
type Child struct {
	// ID is the unique identifier for the child (UUID format).
	ID string `json:"id"`

	// GroupID is the group this child belongs to.
	GroupID string `json:"group_id"`

	// Name is the display name of the child.
	Name string `json:"name"`

	// BirthDate is the child's birth date in YYYY-MM-DD form.
	BirthDate string `json:"birth_date"`

	// ParentIDs are the owning parent Member ids. Never empty.
	ParentIDs []string `json:"parent_ids"`

	// CreatedAt is the Unix timestamp when the child was created.
	CreatedAt int64 `json:"created_at"`
}
