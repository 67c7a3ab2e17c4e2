package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gatherhq/gather/internal/models"
	"github.com/gatherhq/gather/internal/storage"
	"github.com/gatherhq/gather/internal/storage/sqlite"
)

// Services run against a real store on a throwaway database file; the
// tests exercise the full path down to SQL.
func newTestStore(t *testing.T) storage.Store {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// testWorld is a pre-seeded group with two households attending an
// event that has every planning feature enabled.
//
//	household A: anna + ben (partners) with child mila
//	household B: cara (the group admin)
type testWorld struct {
	store   storage.Store
	group   *models.Group
	anna    *models.Member
	ben     *models.Member
	cara    *models.Member
	child   *models.Child
	event   *models.Event
	houseA  *models.Subgroup
	houseB  *models.Subgroup
	members *MembershipService
}

func newTestWorld(t *testing.T) *testWorld {
	t.Helper()
	ctx := context.Background()

	w := &testWorld{store: newTestStore(t)}
	w.members = NewMembershipService(w.store)

	var err error
	w.group, w.cara, err = w.members.CreateGroup(ctx, "The Bakkers", "u-cara", "Cara")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if w.anna, err = w.members.AddMember(ctx, w.group.ID, "u-anna", "Anna", models.RoleMember); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if w.ben, err = w.members.AddMember(ctx, w.group.ID, "u-ben", "Ben", models.RoleMember); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if err = w.members.SetPartners(ctx, w.anna.ID, w.ben.ID); err != nil {
		t.Fatalf("SetPartners failed: %v", err)
	}
	if w.child, err = w.members.AddChild(ctx, w.group.ID, "Mila", "2019-04-02", []string{w.anna.ID, w.ben.ID}); err != nil {
		t.Fatalf("AddChild failed: %v", err)
	}

	w.event, err = w.members.CreateEvent(ctx, w.group.ID, "Summer House", "2026-07-01", "2026-07-10",
		[]models.Feature{models.FeaturePresence, models.FeatureProposals, models.FeatureAllocation, models.FeatureExchange})
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	w.houseA = &models.Subgroup{
		EventID:        w.event.ID,
		Name:           "Anna & Ben",
		AdultIDs:       []string{w.anna.ID, w.ben.ID},
		ChildIDs:       []string{w.child.ID},
		ActiveAdultIDs: []string{w.anna.ID, w.ben.ID},
		ActiveChildIDs: []string{w.child.ID},
	}
	if err = w.members.CreateSubgroup(ctx, w.houseA); err != nil {
		t.Fatalf("CreateSubgroup failed: %v", err)
	}
	w.houseB = &models.Subgroup{
		EventID:        w.event.ID,
		Name:           "Cara",
		AdultIDs:       []string{w.cara.ID},
		ActiveAdultIDs: []string{w.cara.ID},
	}
	if err = w.members.CreateSubgroup(ctx, w.houseB); err != nil {
		t.Fatalf("CreateSubgroup failed: %v", err)
	}
	return w
}
