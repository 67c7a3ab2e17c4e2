package models

// Feature identifies an engine subsystem that can be switched on per event.
type Feature string

const (
	// FeaturePresence enables meal-slot presence tracking.
	FeaturePresence Feature = "presence"

	// FeatureProposals enables venue proposals and voting.
	FeatureProposals Feature = "proposals"

	// FeatureAllocation enables weighted cost allocation.
	FeatureAllocation Feature = "allocation"

	// FeatureExchange enables gift-exchange rounds for the owning group.
	FeatureExchange Feature = "exchange"
)

// Event represents a dated gathering owned by a Group.
// Its StartDate/EndDate interval (closed on both ends) bounds every
// presence record written for the event.
type Event struct {
	// ID is the unique identifier for the event (UUID format).
	ID string `json:"id"`

	// GroupID is the owning group.
	GroupID string `json:"group_id"`

	// Name is the display name of the event (e.g., "Summer House 2026").
	Name string `json:"name"`

	// StartDate and EndDate delimit the event in YYYY-MM-DD form.
	// The interval is closed: both endpoints are valid presence dates.
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	// Features lists the subsystems enabled for this event.
	Features []Feature `json:"features"`

	// CreatedAt is the Unix timestamp when the event was created.
	CreatedAt int64 `json:"created_at"`
}

// HasFeature reports whether the given subsystem is enabled for the event.
func (e *Event) HasFeature(f Feature) bool {
	for _, have := range e.Features {
		if have == f {
			return true
		}
	}
	return false
}

// Subgroup represents a household unit attending an Event: the adults and
// children that travel, sleep, and pay together.
//
// AdultIDs/ChildIDs are the unit's full membership; ActiveAdultIDs and
// ActiveChildIDs are the sub-selection actually attending. Invariants:
// active sets are subsets of the membership sets, and every referenced id
// must still exist as a group Member or Child. The store's member-removal
// sweep keeps these lists consistent.
type Subgroup struct {
	// ID is the unique identifier for the subgroup (UUID format).
	ID string `json:"id"`

	// EventID is the owning event.
	EventID string `json:"event_id"`

	// Name is the display name of the household unit.
	Name string `json:"name"`

	// AdultIDs are the Member ids belonging to this unit.
	AdultIDs []string `json:"adult_ids"`

	// ChildIDs are the Child ids belonging to this unit.
	ChildIDs []string `json:"child_ids"`

	// ActiveAdultIDs is the subset of AdultIDs actually attending.
	ActiveAdultIDs []string `json:"active_adult_ids"`

	// ActiveChildIDs is the subset of ChildIDs actually attending.
	ActiveChildIDs []string `json:"active_child_ids"`
}
