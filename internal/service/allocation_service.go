package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gatherhq/gather/internal/calculator"
	"github.com/gatherhq/gather/internal/models"
	"github.com/gatherhq/gather/internal/storage"
)

// AllocationService splits proposal amounts across household units.
//
// Allocation is always computed on demand from the current settings and
// the current active composition; it is never cached as an authoritative
// split, and updating the settings never retroactively re-allocates
// anything already settled outside the engine.
type AllocationService struct {
	store storage.Store
}

// NewAllocationService creates a new AllocationService with the given storage backend.
func NewAllocationService(store storage.Store) *AllocationService {
	return &AllocationService{store: store}
}

// Settings returns an event's allocation weights, falling back to the
// defaults (adults 1.0, children 0.5) when never configured.
func (s *AllocationService) Settings(ctx context.Context, eventID string) (models.AllocationSettings, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return models.AllocationSettings{}, err
	}
	settings, err := s.store.GetAllocationSettings(ctx, eventID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.DefaultAllocationSettings(eventID), nil
	}
	return settings, err
}

// UpdateSettings writes an event's allocation weights.
func (s *AllocationService) UpdateSettings(ctx context.Context, eventID string, adultShare, childShare float64) (models.AllocationSettings, error) {
	if adultShare <= 0 {
		return models.AllocationSettings{}, fmt.Errorf("adult share must be positive: %v", adultShare)
	}
	if childShare < 0 {
		return models.AllocationSettings{}, fmt.Errorf("child share cannot be negative: %v", childShare)
	}
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return models.AllocationSettings{}, err
	}

	settings := models.AllocationSettings{EventID: eventID, AdultShare: adultShare, ChildShare: childShare}
	if err := s.store.PutAllocationSettings(ctx, settings); err != nil {
		slog.Error("UpdateSettings failed", "event_id", eventID, "error", err)
		return models.AllocationSettings{}, err
	}
	slog.Info("Allocation settings updated", "event_id", eventID, "adult_share", adultShare, "child_share", childShare)
	return settings, nil
}

// Allocate splits a proposal's amount across the event's subgroups in
// proportion to their weighted active composition. When nobody is active
// anywhere the whole vector is zero — an unusual but valid state, not an
// error.
func (s *AllocationService) Allocate(ctx context.Context, proposalID string) ([]calculator.SubgroupAmount, error) {
	proposal, err := s.store.GetProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	event, err := s.store.GetEvent(ctx, proposal.EventID)
	if err != nil {
		return nil, err
	}
	if !event.HasFeature(models.FeatureAllocation) {
		return nil, fmt.Errorf("allocation on event %s: %w", event.ID, ErrFeatureDisabled)
	}

	settings, err := s.Settings(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	subgroups, err := s.store.ListSubgroups(ctx, event.ID)
	if err != nil {
		return nil, err
	}

	compositions := make([]calculator.SubgroupComposition, len(subgroups))
	for i, sg := range subgroups {
		compositions[i] = calculator.SubgroupComposition{
			SubgroupID:     sg.ID,
			ActiveAdults:   len(sg.ActiveAdultIDs),
			ActiveChildren: len(sg.ActiveChildIDs),
		}
	}

	amounts, err := calculator.Allocate(proposal.Amount, settings.AdultShare, settings.ChildShare, compositions)
	if err != nil {
		slog.Error("Allocate failed", "proposal_id", proposalID, "error", err)
		return nil, err
	}
	return amounts, nil
}
