package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gatherhq/gather/internal/models"
	"github.com/gatherhq/gather/internal/storage"
)

// PresenceService tracks per-slot attendance for household units.
//
// Both operations are last-writer-wins on the (subgroup, date, slot) key:
// concurrent edits to the same key race and the later write persists.
// No merge semantics exist.
type PresenceService struct {
	store storage.Store
}

// NewPresenceService creates a new PresenceService with the given storage backend.
func NewPresenceService(store storage.Store) *PresenceService {
	return &PresenceService{store: store}
}

// Toggle flips a subgroup's opt-in flag for one meal slot.
//
// First toggle creates the record opted in, with the headcount derived
// from the current active composition. Toggling off zeroes the headcount
// (opting out means zero expected diners). Toggling back on re-derives a
// fresh default instead of restoring a stale number; only Adjust sets an
// independent count.
func (s *PresenceService) Toggle(ctx context.Context, subgroupID, date string, slot models.Slot) (*models.PresenceRecord, error) {
	if !models.ValidSlot(slot) {
		return nil, fmt.Errorf("invalid slot %q", slot)
	}

	subgroup, event, err := s.subgroupEvent(ctx, subgroupID)
	if err != nil {
		return nil, err
	}
	if err := checkDate(event, date); err != nil {
		return nil, err
	}

	record, err := s.store.GetPresence(ctx, subgroupID, date, slot)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		record = &models.PresenceRecord{
			SubgroupID: subgroupID,
			EventID:    event.ID,
			Date:       date,
			Slot:       slot,
			Present:    true,
			Headcount:  defaultHeadcount(subgroup),
		}
	case err != nil:
		return nil, err
	default:
		record.Present = !record.Present
		record.Overridden = false
		if record.Present {
			record.Headcount = defaultHeadcount(subgroup)
		} else {
			record.Headcount = 0
		}
	}

	if err := s.store.UpsertPresence(ctx, record); err != nil {
		slog.Error("Toggle failed to write presence", "subgroup_id", subgroupID, "date", date, "slot", slot, "error", err)
		return nil, err
	}
	slog.Debug("Presence toggled",
		"subgroup_id", subgroupID,
		"date", date,
		"slot", slot,
		"present", record.Present,
		"headcount", record.Headcount,
	)
	return record, nil
}

// Adjust overwrites one slot's headcount with a caller-supplied value,
// leaving the opt-in flag and the other slot untouched. The override is
// sticky until the next explicit edit or a toggle. Fails with NotFound
// when no record exists yet for the key: nobody opted into that slot, so
// fabricating an attendance record would be wrong.
func (s *PresenceService) Adjust(ctx context.Context, subgroupID, date string, slot models.Slot, headcount int) (*models.PresenceRecord, error) {
	if !models.ValidSlot(slot) {
		return nil, fmt.Errorf("invalid slot %q", slot)
	}
	if headcount < 0 {
		return nil, fmt.Errorf("headcount cannot be negative: %d", headcount)
	}

	record, err := s.store.GetPresence(ctx, subgroupID, date, slot)
	if err != nil {
		return nil, err
	}

	record.Headcount = headcount
	record.Overridden = true
	if err := s.store.UpsertPresence(ctx, record); err != nil {
		slog.Error("Adjust failed to write presence", "subgroup_id", subgroupID, "date", date, "slot", slot, "error", err)
		return nil, err
	}
	slog.Debug("Presence adjusted",
		"subgroup_id", subgroupID,
		"date", date,
		"slot", slot,
		"headcount", headcount,
	)
	return record, nil
}

// List returns all presence records of an event.
func (s *PresenceService) List(ctx context.Context, eventID string) ([]models.PresenceRecord, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListPresence(ctx, eventID)
}

// subgroupEvent loads a subgroup and its owning event, checking the
// presence feature flag.
func (s *PresenceService) subgroupEvent(ctx context.Context, subgroupID string) (*models.Subgroup, *models.Event, error) {
	subgroup, err := s.store.GetSubgroup(ctx, subgroupID)
	if err != nil {
		return nil, nil, err
	}
	event, err := s.store.GetEvent(ctx, subgroup.EventID)
	if err != nil {
		return nil, nil, err
	}
	if !event.HasFeature(models.FeaturePresence) {
		return nil, nil, fmt.Errorf("presence on event %s: %w", event.ID, ErrFeatureDisabled)
	}
	return subgroup, event, nil
}

// defaultHeadcount derives the auto headcount from the current active
// composition.
func defaultHeadcount(subgroup *models.Subgroup) int {
	return len(subgroup.ActiveAdultIDs) + len(subgroup.ActiveChildIDs)
}

// checkDate validates form and event-interval bounds (closed interval).
func checkDate(event *models.Event, date string) error {
	if err := validateDate(date); err != nil {
		return err
	}
	if date < event.StartDate || date > event.EndDate {
		return fmt.Errorf("date %s for event %s (%s..%s): %w",
			date, event.ID, event.StartDate, event.EndDate, ErrDateOutOfRange)
	}
	return nil
}
