package models

// Slot is a meal slot within a presence date.
//
// It replaces the runtime string-keyed updates of earlier designs with a
// closed set of values; code switching on a Slot must handle both.
type Slot string

const (
	SlotLunch  Slot = "lunch"
	SlotDinner Slot = "dinner"
)

// ValidSlot reports whether s is one of the defined meal slots.
func ValidSlot(s Slot) bool {
	switch s {
	case SlotLunch, SlotDinner:
		return true
	}
	return false
}

// PresenceRecord tracks one subgroup's attendance for one meal slot on one
// date of an event. Keyed by (SubgroupID, Date, Slot); EventID is carried
// for listing.
//
// Headcount is either auto-derived (active adults + active children at
// toggle time) or explicitly overridden via an adjust call. An override is
// sticky: only the next explicit adjust, or a toggle of the opt-in flag
// (which always re-derives), replaces it.
type PresenceRecord struct {
	// SubgroupID is the household unit this record belongs to.
	SubgroupID string `json:"subgroup_id"`

	// EventID is the owning event.
	EventID string `json:"event_id"`

	// Date is the presence date in YYYY-MM-DD form, inside the event interval.
	Date string `json:"date"`

	// Slot is the meal slot this record covers.
	Slot Slot `json:"slot"`

	// Present is the opt-in flag: true means the unit expects to attend
	// this slot.
	Present bool `json:"present"`

	// Headcount is the expected number of diners. Zero when opted out.
	Headcount int `json:"headcount"`

	// Overridden marks Headcount as explicitly set rather than derived
	// from the active composition. The member-removal sweep regenerates
	// derived counts but leaves overridden ones untouched.
	Overridden bool `json:"overridden"`
}
