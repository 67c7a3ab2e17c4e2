package models

// Proposal represents a venue or rental candidate for an event.
type Proposal struct {
	// ID is the unique identifier for the proposal (UUID format).
	ID string `json:"id"`

	// EventID is the owning event.
	EventID string `json:"event_id"`

	// URL points at the listing the proposal was created from.
	URL string `json:"url"`

	// Title and Image are display metadata fetched from the URL.
	// Best-effort: either may be empty if the fetch failed.
	Title string `json:"title"`
	Image string `json:"image"`

	// Amount is the total cost of the candidate. Non-negative; the host
	// numeric precision applies, no currency rounding is performed.
	Amount float64 `json:"amount"`

	// CreatorID is the member who proposed the candidate.
	CreatorID string `json:"creator_id"`

	// CreatedAt is the Unix timestamp when the proposal was created.
	CreatedAt int64 `json:"created_at"`
}

// Vote is one member's signed opinion on a proposal.
// At most one vote exists per (ProposalID, VoterID); re-voting replaces
// the prior value rather than accumulating.
type Vote struct {
	// ProposalID is the proposal voted on.
	ProposalID string `json:"proposal_id"`

	// VoterID is the member who cast the vote. Children never vote.
	VoterID string `json:"voter_id"`

	// Value is +1 (for) or -1 (against).
	Value int `json:"value"`
}

// AllocationSettings holds the per-event cost weights used by the
// allocator. Defaults: adults weigh 1.0, children 0.5.
type AllocationSettings struct {
	// EventID is the event these settings apply to.
	EventID string `json:"event_id"`

	// AdultShare is the weight of one active adult. Positive.
	AdultShare float64 `json:"adult_share"`

	// ChildShare is the weight of one active child. Non-negative.
	ChildShare float64 `json:"child_share"`
}

// DefaultAllocationSettings returns the weights used when an event has
// never been configured.
func DefaultAllocationSettings(eventID string) AllocationSettings {
	return AllocationSettings{EventID: eventID, AdultShare: 1.0, ChildShare: 0.5}
}
