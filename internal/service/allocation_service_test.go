package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/gatherhq/gather/internal/models"
	"github.com/gatherhq/gather/internal/storage"
)

func TestAllocationSettings(t *testing.T) {
	w := newTestWorld(t)
	svc := NewAllocationService(w.store)
	ctx := context.Background()

	t.Run("defaults before any configuration", func(t *testing.T) {
		settings, err := svc.Settings(ctx, w.event.ID)
		if err != nil {
			t.Fatalf("Settings failed: %v", err)
		}
		if settings.AdultShare != 1.0 || settings.ChildShare != 0.5 {
			t.Errorf("defaults = %v/%v, want 1.0/0.5", settings.AdultShare, settings.ChildShare)
		}
	})

	t.Run("update persists", func(t *testing.T) {
		if _, err := svc.UpdateSettings(ctx, w.event.ID, 2.0, 1.0); err != nil {
			t.Fatalf("UpdateSettings failed: %v", err)
		}
		settings, err := svc.Settings(ctx, w.event.ID)
		if err != nil {
			t.Fatalf("Settings failed: %v", err)
		}
		if settings.AdultShare != 2.0 || settings.ChildShare != 1.0 {
			t.Errorf("settings = %v/%v, want 2.0/1.0", settings.AdultShare, settings.ChildShare)
		}
	})

	t.Run("invalid weights", func(t *testing.T) {
		if _, err := svc.UpdateSettings(ctx, w.event.ID, 0, 0.5); err == nil {
			t.Error("expected error for zero adult share")
		}
		if _, err := svc.UpdateSettings(ctx, w.event.ID, 1.0, -0.5); err == nil {
			t.Error("expected error for negative child share")
		}
	})

	t.Run("unknown event", func(t *testing.T) {
		if _, err := svc.Settings(ctx, "nonexistent"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestAllocate(t *testing.T) {
	w := newTestWorld(t)
	svc := NewAllocationService(w.store)
	proposals := NewProposalService(w.store, nil)
	ctx := context.Background()

	proposal, err := proposals.CreateProposal(ctx, w.event.ID, "https://example.com/cabin", 300, w.anna.ID)
	if err != nil {
		t.Fatalf("CreateProposal failed: %v", err)
	}

	t.Run("weighted proportional split", func(t *testing.T) {
		// houseA: 2 adults + 1 child = 2.5 shares, houseB: 1 adult = 1 share.
		amounts, err := svc.Allocate(ctx, proposal.ID)
		if err != nil {
			t.Fatalf("Allocate failed: %v", err)
		}
		if len(amounts) != 2 {
			t.Fatalf("amounts = %d entries, want 2", len(amounts))
		}

		byID := make(map[string]float64)
		sum := 0.0
		for _, a := range amounts {
			byID[a.SubgroupID] = a.Amount
			sum += a.Amount
		}
		if math.Abs(byID[w.houseA.ID]-214.2857) > 0.01 {
			t.Errorf("houseA = %v, want ≈214.29", byID[w.houseA.ID])
		}
		if math.Abs(byID[w.houseB.ID]-85.7143) > 0.01 {
			t.Errorf("houseB = %v, want ≈85.71", byID[w.houseB.ID])
		}
		if math.Abs(sum-300) > 1e-6 {
			t.Errorf("sum = %v, want the full amount back", sum)
		}
	})

	t.Run("updated weights change the split", func(t *testing.T) {
		if _, err := svc.UpdateSettings(ctx, w.event.ID, 1.0, 1.0); err != nil {
			t.Fatalf("UpdateSettings failed: %v", err)
		}
		amounts, err := svc.Allocate(ctx, proposal.ID)
		if err != nil {
			t.Fatalf("Allocate failed: %v", err)
		}
		// Children now count fully: houseA 3 shares, houseB 1 share.
		for _, a := range amounts {
			if a.SubgroupID == w.houseA.ID && math.Abs(a.Amount-225.0) > 1e-6 {
				t.Errorf("houseA = %v, want 225.0", a.Amount)
			}
		}
	})

	t.Run("nobody active yields a zero vector", func(t *testing.T) {
		if err := w.members.SetActiveParticipants(ctx, w.houseA.ID, nil, nil); err != nil {
			t.Fatalf("SetActiveParticipants failed: %v", err)
		}
		if err := w.members.SetActiveParticipants(ctx, w.houseB.ID, nil, nil); err != nil {
			t.Fatalf("SetActiveParticipants failed: %v", err)
		}

		amounts, err := svc.Allocate(ctx, proposal.ID)
		if err != nil {
			t.Fatalf("Allocate failed: %v", err)
		}
		for _, a := range amounts {
			if a.Amount != 0 {
				t.Errorf("%s amount = %v, want 0", a.SubgroupID, a.Amount)
			}
		}
	})

	t.Run("unknown proposal", func(t *testing.T) {
		if _, err := svc.Allocate(ctx, "nonexistent"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestAllocateFeatureDisabled(t *testing.T) {
	w := newTestWorld(t)
	svc := NewAllocationService(w.store)
	ctx := context.Background()

	event, err := w.members.CreateEvent(ctx, w.group.ID, "Voting Only", "2026-08-01", "2026-08-02",
		[]models.Feature{models.FeatureProposals})
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	proposals := NewProposalService(w.store, nil)
	proposal, err := proposals.CreateProposal(ctx, event.ID, "https://example.com/x", 100, w.anna.ID)
	if err != nil {
		t.Fatalf("CreateProposal failed: %v", err)
	}

	_, err = svc.Allocate(ctx, proposal.ID)
	if !errors.Is(err, ErrFeatureDisabled) {
		t.Errorf("expected ErrFeatureDisabled, got %v", err)
	}
}
