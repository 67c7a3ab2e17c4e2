package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/gatherhq/gather/internal/models"
	"github.com/gatherhq/gather/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// fixture builds a group with three adults (anna+ben partnered, cara
// admin), one child of anna, an event, and one subgroup containing
// everyone with everyone active.
type fixture struct {
	group    *models.Group
	anna     *models.Member
	ben      *models.Member
	cara     *models.Member
	child    *models.Child
	event    *models.Event
	subgroup *models.Subgroup
}

func newFixture(t *testing.T, store *SQLiteStore) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{}
	f.group = &models.Group{Name: "The Bakkers"}
	if err := store.CreateGroup(ctx, f.group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	f.cara = &models.Member{GroupID: f.group.ID, UserID: "u-cara", Name: "Cara", Role: models.RoleAdmin}
	f.anna = &models.Member{GroupID: f.group.ID, UserID: "u-anna", Name: "Anna"}
	f.ben = &models.Member{GroupID: f.group.ID, UserID: "u-ben", Name: "Ben"}
	for _, m := range []*models.Member{f.cara, f.anna, f.ben} {
		if err := store.AddMember(ctx, m); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}
	}
	if err := store.SetPartners(ctx, f.anna.ID, f.ben.ID); err != nil {
		t.Fatalf("SetPartners failed: %v", err)
	}

	f.child = &models.Child{GroupID: f.group.ID, Name: "Mila", BirthDate: "2019-04-02", ParentIDs: []string{f.anna.ID}}
	if err := store.AddChild(ctx, f.child); err != nil {
		t.Fatalf("AddChild failed: %v", err)
	}

	f.event = &models.Event{
		GroupID:   f.group.ID,
		Name:      "Summer House",
		StartDate: "2026-07-01",
		EndDate:   "2026-07-10",
		Features:  []models.Feature{models.FeaturePresence, models.FeatureProposals, models.FeatureAllocation},
	}
	if err := store.CreateEvent(ctx, f.event); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	f.subgroup = &models.Subgroup{
		EventID:        f.event.ID,
		Name:           "Bakker household",
		AdultIDs:       []string{f.anna.ID, f.ben.ID, f.cara.ID},
		ChildIDs:       []string{f.child.ID},
		ActiveAdultIDs: []string{f.anna.ID, f.ben.ID, f.cara.ID},
		ActiveChildIDs: []string{f.child.ID},
	}
	if err := store.CreateSubgroup(ctx, f.subgroup); err != nil {
		t.Fatalf("CreateSubgroup failed: %v", err)
	}
	return f
}

func TestSQLiteStoreMembership(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := newFixture(t, store)

	t.Run("CreateGroup generates ID", func(t *testing.T) {
		if f.group.ID == "" {
			t.Error("Expected group ID to be generated")
		}
		if f.group.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
	})

	t.Run("GetGroup round trip", func(t *testing.T) {
		got, err := store.GetGroup(ctx, f.group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if got.Name != "The Bakkers" {
			t.Errorf("Name = %s, want The Bakkers", got.Name)
		}
	})

	t.Run("GetGroup not found", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "nonexistent")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("partners are mutual", func(t *testing.T) {
		anna, err := store.GetMember(ctx, f.anna.ID)
		if err != nil {
			t.Fatalf("GetMember failed: %v", err)
		}
		ben, err := store.GetMember(ctx, f.ben.ID)
		if err != nil {
			t.Fatalf("GetMember failed: %v", err)
		}
		if anna.PartnerID != ben.ID || ben.PartnerID != anna.ID {
			t.Errorf("partnership not mutual: anna=%q ben=%q", anna.PartnerID, ben.PartnerID)
		}
	})

	t.Run("repartnering releases prior partner", func(t *testing.T) {
		if err := store.SetPartners(ctx, f.anna.ID, f.cara.ID); err != nil {
			t.Fatalf("SetPartners failed: %v", err)
		}
		ben, _ := store.GetMember(ctx, f.ben.ID)
		if ben.PartnerID != "" {
			t.Errorf("ben still partnered after anna repartnered: %q", ben.PartnerID)
		}
		// Restore for later subtests.
		if err := store.SetPartners(ctx, f.anna.ID, f.ben.ID); err != nil {
			t.Fatalf("SetPartners failed: %v", err)
		}
		if err := store.ClearPartner(ctx, f.cara.ID); err != nil {
			t.Fatalf("ClearPartner failed: %v", err)
		}
	})

	t.Run("ListChildren includes parents", func(t *testing.T) {
		children, err := store.ListChildren(ctx, f.group.ID)
		if err != nil {
			t.Fatalf("ListChildren failed: %v", err)
		}
		if len(children) != 1 {
			t.Fatalf("children count = %d, want 1", len(children))
		}
		if len(children[0].ParentIDs) != 1 || children[0].ParentIDs[0] != f.anna.ID {
			t.Errorf("ParentIDs = %v, want [%s]", children[0].ParentIDs, f.anna.ID)
		}
	})

	t.Run("event features round trip", func(t *testing.T) {
		event, err := store.GetEvent(ctx, f.event.ID)
		if err != nil {
			t.Fatalf("GetEvent failed: %v", err)
		}
		if !event.HasFeature(models.FeaturePresence) || event.HasFeature(models.FeatureExchange) {
			t.Errorf("features = %v", event.Features)
		}
	})

	t.Run("subgroup lists round trip", func(t *testing.T) {
		sg, err := store.GetSubgroup(ctx, f.subgroup.ID)
		if err != nil {
			t.Fatalf("GetSubgroup failed: %v", err)
		}
		if len(sg.AdultIDs) != 3 || len(sg.ActiveAdultIDs) != 3 {
			t.Errorf("adults = %d active = %d, want 3/3", len(sg.AdultIDs), len(sg.ActiveAdultIDs))
		}
		if len(sg.ChildIDs) != 1 || len(sg.ActiveChildIDs) != 1 {
			t.Errorf("children = %d active = %d, want 1/1", len(sg.ChildIDs), len(sg.ActiveChildIDs))
		}
	})

	t.Run("UpdateSubgroupActive shrinks selection", func(t *testing.T) {
		err := store.UpdateSubgroupActive(ctx, f.subgroup.ID, []string{f.anna.ID}, nil)
		if err != nil {
			t.Fatalf("UpdateSubgroupActive failed: %v", err)
		}
		sg, _ := store.GetSubgroup(ctx, f.subgroup.ID)
		if len(sg.ActiveAdultIDs) != 1 || sg.ActiveAdultIDs[0] != f.anna.ID {
			t.Errorf("ActiveAdultIDs = %v, want [%s]", sg.ActiveAdultIDs, f.anna.ID)
		}
		if len(sg.ActiveChildIDs) != 0 {
			t.Errorf("ActiveChildIDs = %v, want empty", sg.ActiveChildIDs)
		}
		// Membership lists are untouched.
		if len(sg.AdultIDs) != 3 || len(sg.ChildIDs) != 1 {
			t.Errorf("membership lists changed: adults=%d children=%d", len(sg.AdultIDs), len(sg.ChildIDs))
		}
	})
}

func TestSQLiteStorePresence(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := newFixture(t, store)

	record := &models.PresenceRecord{
		SubgroupID: f.subgroup.ID,
		EventID:    f.event.ID,
		Date:       "2026-07-02",
		Slot:       models.SlotDinner,
		Present:    true,
		Headcount:  4,
	}

	t.Run("upsert creates then replaces", func(t *testing.T) {
		if err := store.UpsertPresence(ctx, record); err != nil {
			t.Fatalf("UpsertPresence failed: %v", err)
		}

		record.Headcount = 6
		record.Overridden = true
		if err := store.UpsertPresence(ctx, record); err != nil {
			t.Fatalf("UpsertPresence failed: %v", err)
		}

		got, err := store.GetPresence(ctx, f.subgroup.ID, "2026-07-02", models.SlotDinner)
		if err != nil {
			t.Fatalf("GetPresence failed: %v", err)
		}
		if got.Headcount != 6 || !got.Overridden || !got.Present {
			t.Errorf("got %+v, want headcount=6 overridden present", got)
		}
	})

	t.Run("slots are independent records", func(t *testing.T) {
		_, err := store.GetPresence(ctx, f.subgroup.ID, "2026-07-02", models.SlotLunch)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound for lunch slot, got %v", err)
		}
	})

	t.Run("ListPresence returns event records", func(t *testing.T) {
		records, err := store.ListPresence(ctx, f.event.ID)
		if err != nil {
			t.Fatalf("ListPresence failed: %v", err)
		}
		if len(records) != 1 {
			t.Errorf("records = %d, want 1", len(records))
		}
	})
}

func TestSQLiteStoreVotes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := newFixture(t, store)

	proposal := &models.Proposal{EventID: f.event.ID, URL: "https://example.com/cabin", Amount: 900, CreatorID: f.anna.ID}
	if err := store.CreateProposal(ctx, proposal); err != nil {
		t.Fatalf("CreateProposal failed: %v", err)
	}

	t.Run("revoting replaces the prior value", func(t *testing.T) {
		if err := store.UpsertVote(ctx, models.Vote{ProposalID: proposal.ID, VoterID: f.anna.ID, Value: 1}); err != nil {
			t.Fatalf("UpsertVote failed: %v", err)
		}
		if err := store.UpsertVote(ctx, models.Vote{ProposalID: proposal.ID, VoterID: f.anna.ID, Value: -1}); err != nil {
			t.Fatalf("UpsertVote failed: %v", err)
		}

		votes, err := store.ListEventVotes(ctx, f.event.ID)
		if err != nil {
			t.Fatalf("ListEventVotes failed: %v", err)
		}
		if len(votes) != 1 {
			t.Fatalf("votes = %d, want exactly 1 row for the voter", len(votes))
		}
		if votes[0].Value != -1 {
			t.Errorf("value = %d, want -1 (latest vote)", votes[0].Value)
		}
	})

	t.Run("vote on missing proposal", func(t *testing.T) {
		err := store.UpsertVote(ctx, models.Vote{ProposalID: "nonexistent", VoterID: f.anna.ID, Value: 1})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("allocation settings round trip", func(t *testing.T) {
		_, err := store.GetAllocationSettings(ctx, f.event.ID)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound before configuration, got %v", err)
		}

		want := models.AllocationSettings{EventID: f.event.ID, AdultShare: 2.0, ChildShare: 1.0}
		if err := store.PutAllocationSettings(ctx, want); err != nil {
			t.Fatalf("PutAllocationSettings failed: %v", err)
		}
		got, err := store.GetAllocationSettings(ctx, f.event.ID)
		if err != nil {
			t.Fatalf("GetAllocationSettings failed: %v", err)
		}
		if got != want {
			t.Errorf("settings = %+v, want %+v", got, want)
		}
	})
}

func TestSQLiteStoreExchange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := newFixture(t, store)

	assignments := []models.Assignment{
		{GiverID: f.anna.ID, ReceiverID: f.cara.ID},
		{GiverID: f.cara.ID, ReceiverID: f.ben.ID},
		{GiverID: f.ben.ID, ReceiverID: f.anna.ID},
	}

	t.Run("create and read back one assignment", func(t *testing.T) {
		round := &models.ExchangeRound{GroupID: f.group.ID, Year: 2026}
		if err := store.CreateExchangeRound(ctx, round, assignments, false); err != nil {
			t.Fatalf("CreateExchangeRound failed: %v", err)
		}

		got, err := store.GetAssignment(ctx, f.group.ID, 2026, f.anna.ID)
		if err != nil {
			t.Fatalf("GetAssignment failed: %v", err)
		}
		if got.ReceiverID != f.cara.ID {
			t.Errorf("receiver = %s, want %s", got.ReceiverID, f.cara.ID)
		}
	})

	t.Run("second create without replace fails", func(t *testing.T) {
		round := &models.ExchangeRound{GroupID: f.group.ID, Year: 2026}
		err := store.CreateExchangeRound(ctx, round, assignments, false)
		if !errors.Is(err, storage.ErrRoundExists) {
			t.Errorf("expected ErrRoundExists, got %v", err)
		}
	})

	t.Run("replace swaps the round wholesale", func(t *testing.T) {
		flipped := []models.Assignment{
			{GiverID: f.anna.ID, ReceiverID: f.ben.ID},
			{GiverID: f.ben.ID, ReceiverID: f.cara.ID},
			{GiverID: f.cara.ID, ReceiverID: f.anna.ID},
		}
		round := &models.ExchangeRound{GroupID: f.group.ID, Year: 2026}
		if err := store.CreateExchangeRound(ctx, round, flipped, true); err != nil {
			t.Fatalf("CreateExchangeRound with replace failed: %v", err)
		}

		got, err := store.GetAssignment(ctx, f.group.ID, 2026, f.anna.ID)
		if err != nil {
			t.Fatalf("GetAssignment failed: %v", err)
		}
		if got.ReceiverID != f.ben.ID {
			t.Errorf("receiver = %s, want %s after replace", got.ReceiverID, f.ben.ID)
		}
		if got.RoundID != round.ID {
			t.Errorf("assignment still points at the old round")
		}
	})

	t.Run("different year is independent", func(t *testing.T) {
		round := &models.ExchangeRound{GroupID: f.group.ID, Year: 2027}
		if err := store.CreateExchangeRound(ctx, round, assignments, false); err != nil {
			t.Fatalf("CreateExchangeRound failed: %v", err)
		}
	})

	t.Run("missing round", func(t *testing.T) {
		_, err := store.GetExchangeRound(ctx, f.group.ID, 1999)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSQLiteStoreRemoveMember(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := newFixture(t, store)

	// Seed one auto-derived record and one overridden record.
	auto := &models.PresenceRecord{
		SubgroupID: f.subgroup.ID, EventID: f.event.ID,
		Date: "2026-07-03", Slot: models.SlotLunch,
		Present: true, Headcount: 4,
	}
	overridden := &models.PresenceRecord{
		SubgroupID: f.subgroup.ID, EventID: f.event.ID,
		Date: "2026-07-03", Slot: models.SlotDinner,
		Present: true, Headcount: 10, Overridden: true,
	}
	for _, r := range []*models.PresenceRecord{auto, overridden} {
		if err := store.UpsertPresence(ctx, r); err != nil {
			t.Fatalf("UpsertPresence failed: %v", err)
		}
	}

	t.Run("last admin cannot be removed", func(t *testing.T) {
		err := store.RemoveMember(ctx, f.group.ID, f.cara.ID)
		if !errors.Is(err, storage.ErrLastAdmin) {
			t.Fatalf("expected ErrLastAdmin, got %v", err)
		}
	})

	t.Run("sweep strips member and regenerates counts", func(t *testing.T) {
		if err := store.RemoveMember(ctx, f.group.ID, f.ben.ID); err != nil {
			t.Fatalf("RemoveMember failed: %v", err)
		}

		_, err := store.GetMember(ctx, f.ben.ID)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("member still present after removal: %v", err)
		}

		sg, err := store.GetSubgroup(ctx, f.subgroup.ID)
		if err != nil {
			t.Fatalf("GetSubgroup failed: %v", err)
		}
		for _, id := range sg.AdultIDs {
			if id == f.ben.ID {
				t.Errorf("removed member still referenced in subgroup adults")
			}
		}

		// Partner reference on the surviving side is gone.
		anna, _ := store.GetMember(ctx, f.anna.ID)
		if anna.PartnerID != "" {
			t.Errorf("anna still references removed partner: %q", anna.PartnerID)
		}

		// Auto-derived record re-derived: 2 active adults + 1 child = 3.
		got, err := store.GetPresence(ctx, f.subgroup.ID, "2026-07-03", models.SlotLunch)
		if err != nil {
			t.Fatalf("GetPresence failed: %v", err)
		}
		if got.Headcount != 3 {
			t.Errorf("auto headcount = %d, want 3 after sweep", got.Headcount)
		}

		// Overridden record stays sticky.
		got, err = store.GetPresence(ctx, f.subgroup.ID, "2026-07-03", models.SlotDinner)
		if err != nil {
			t.Fatalf("GetPresence failed: %v", err)
		}
		if got.Headcount != 10 {
			t.Errorf("overridden headcount = %d, want 10 (sticky)", got.Headcount)
		}
	})

	t.Run("removing the only parent removes the child", func(t *testing.T) {
		if err := store.RemoveMember(ctx, f.group.ID, f.anna.ID); err != nil {
			t.Fatalf("RemoveMember failed: %v", err)
		}

		children, err := store.ListChildren(ctx, f.group.ID)
		if err != nil {
			t.Fatalf("ListChildren failed: %v", err)
		}
		if len(children) != 0 {
			t.Errorf("orphaned child survived the sweep: %v", children)
		}

		sg, _ := store.GetSubgroup(ctx, f.subgroup.ID)
		if len(sg.ChildIDs) != 0 {
			t.Errorf("subgroup still references removed child: %v", sg.ChildIDs)
		}
	})

	t.Run("remove missing member", func(t *testing.T) {
		err := store.RemoveMember(ctx, f.group.ID, "nonexistent")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
