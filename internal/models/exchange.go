package models

// ExchangeRound is one year's gift exchange for a group. At most one
// round exists per (GroupID, Year); regeneration replaces a round
// wholesale, never patches individual assignments.
type ExchangeRound struct {
	// ID is the unique identifier for the round (UUID format).
	ID string `json:"id"`

	// GroupID is the owning group.
	GroupID string `json:"group_id"`

	// Year the exchange is held in.
	Year int `json:"year"`

	// CreatedAt is the Unix timestamp when the round was generated.
	CreatedAt int64 `json:"created_at"`
}

// Assignment pairs one giver with one receiver inside a round.
// Within a round every participant appears exactly once as giver and
// exactly once as receiver. Assignments are written atomically with
// their round and are immutable afterwards.
type Assignment struct {
	// RoundID is the exchange round this assignment belongs to.
	RoundID string `json:"round_id"`

	// GiverID is the member giving a gift.
	GiverID string `json:"giver_id"`

	// ReceiverID is the member receiving it. Never the giver, never the
	// giver's declared partner.
	ReceiverID string `json:"receiver_id"`
}
