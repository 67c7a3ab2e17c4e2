package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gatherhq/gather/internal/models"
	"github.com/gatherhq/gather/internal/storage"
)

// MembershipService owns the group/member/child/event/subgroup graph and
// the pure lookups the computation services build on.
type MembershipService struct {
	store storage.Store
}

// NewMembershipService creates a new MembershipService with the given storage backend.
func NewMembershipService(store storage.Store) *MembershipService {
	return &MembershipService{store: store}
}

// CreateGroup creates a group together with its founding admin member,
// satisfying the at-least-one-admin invariant from the first write.
func (s *MembershipService) CreateGroup(ctx context.Context, name, founderUserID, founderName string) (*models.Group, *models.Member, error) {
	group := &models.Group{Name: name}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, nil, err
	}

	founder := &models.Member{
		GroupID: group.ID,
		UserID:  founderUserID,
		Name:    founderName,
		Role:    models.RoleAdmin,
	}
	if err := s.store.AddMember(ctx, founder); err != nil {
		slog.Error("CreateGroup failed to add founder", "group_id", group.ID, "error", err)
		return nil, nil, err
	}

	slog.Info("Group created", "group_id", group.ID, "founder_id", founder.ID)
	return group, founder, nil
}

// AddMember adds a member to a group.
func (s *MembershipService) AddMember(ctx context.Context, groupID, userID, name string, role models.Role) (*models.Member, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	member := &models.Member{GroupID: groupID, UserID: userID, Name: name, Role: role}
	if err := s.store.AddMember(ctx, member); err != nil {
		slog.Error("AddMember failed", "group_id", groupID, "error", err)
		return nil, err
	}
	slog.Info("Member added", "group_id", groupID, "member_id", member.ID, "role", member.Role)
	return member, nil
}

// AddChild adds a child with its owning parents to a group.
func (s *MembershipService) AddChild(ctx context.Context, groupID, name, birthDate string, parentIDs []string) (*models.Child, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	child := &models.Child{GroupID: groupID, Name: name, BirthDate: birthDate, ParentIDs: parentIDs}
	if err := s.store.AddChild(ctx, child); err != nil {
		slog.Error("AddChild failed", "group_id", groupID, "error", err)
		return nil, err
	}
	slog.Info("Child added", "group_id", groupID, "child_id", child.ID)
	return child, nil
}

// RemoveMember removes a member from a group, sweeping every subgroup of
// every event so no list is left referencing the removed identity.
func (s *MembershipService) RemoveMember(ctx context.Context, groupID, memberID string) error {
	if err := s.store.RemoveMember(ctx, groupID, memberID); err != nil {
		if !errors.Is(err, storage.ErrNotFound) && !errors.Is(err, storage.ErrLastAdmin) {
			slog.Error("RemoveMember failed", "group_id", groupID, "member_id", memberID, "error", err)
		}
		return err
	}
	slog.Info("Member removed", "group_id", groupID, "member_id", memberID)
	return nil
}

// SetPartners records a mutual partnership between two members of the
// same group.
func (s *MembershipService) SetPartners(ctx context.Context, memberA, memberB string) error {
	if memberA == memberB {
		return fmt.Errorf("member cannot partner with themselves")
	}
	a, err := s.store.GetMember(ctx, memberA)
	if err != nil {
		return err
	}
	b, err := s.store.GetMember(ctx, memberB)
	if err != nil {
		return err
	}
	if a.GroupID != b.GroupID {
		return fmt.Errorf("partners must belong to the same group")
	}
	return s.store.SetPartners(ctx, memberA, memberB)
}

// ClearPartner dissolves a member's partnership on both sides.
func (s *MembershipService) ClearPartner(ctx context.Context, memberID string) error {
	return s.store.ClearPartner(ctx, memberID)
}

// CreateEvent creates an event under a group.
func (s *MembershipService) CreateEvent(ctx context.Context, groupID, name, startDate, endDate string, features []models.Feature) (*models.Event, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if err := validateDate(startDate); err != nil {
		return nil, err
	}
	if err := validateDate(endDate); err != nil {
		return nil, err
	}
	if endDate < startDate {
		return nil, fmt.Errorf("event end date %s precedes start date %s", endDate, startDate)
	}

	event := &models.Event{
		GroupID:   groupID,
		Name:      name,
		StartDate: startDate,
		EndDate:   endDate,
		Features:  features,
	}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		slog.Error("CreateEvent failed", "group_id", groupID, "error", err)
		return nil, err
	}
	slog.Info("Event created", "group_id", groupID, "event_id", event.ID)
	return event, nil
}

// CreateSubgroup creates a household unit under an event. The active
// lists must be subsets of the membership lists.
func (s *MembershipService) CreateSubgroup(ctx context.Context, subgroup *models.Subgroup) error {
	if _, err := s.store.GetEvent(ctx, subgroup.EventID); err != nil {
		return err
	}
	if !subset(subgroup.ActiveAdultIDs, subgroup.AdultIDs) || !subset(subgroup.ActiveChildIDs, subgroup.ChildIDs) {
		return ErrInvalidComposition
	}
	if err := s.store.CreateSubgroup(ctx, subgroup); err != nil {
		slog.Error("CreateSubgroup failed", "event_id", subgroup.EventID, "error", err)
		return err
	}
	slog.Info("Subgroup created", "event_id", subgroup.EventID, "subgroup_id", subgroup.ID)
	return nil
}

// SetActiveParticipants replaces a subgroup's active sub-selection.
func (s *MembershipService) SetActiveParticipants(ctx context.Context, subgroupID string, activeAdults, activeChildren []string) error {
	subgroup, err := s.store.GetSubgroup(ctx, subgroupID)
	if err != nil {
		return err
	}
	if !subset(activeAdults, subgroup.AdultIDs) || !subset(activeChildren, subgroup.ChildIDs) {
		return ErrInvalidComposition
	}
	return s.store.UpdateSubgroupActive(ctx, subgroupID, activeAdults, activeChildren)
}

// ListActiveParticipants returns the adult and child ids actually
// attending as part of a subgroup.
func (s *MembershipService) ListActiveParticipants(ctx context.Context, subgroupID string) (adultIDs, childIDs []string, err error) {
	subgroup, err := s.store.GetSubgroup(ctx, subgroupID)
	if err != nil {
		return nil, nil, err
	}
	return subgroup.ActiveAdultIDs, subgroup.ActiveChildIDs, nil
}

// ResolvePartner returns a member's declared partner id, or "" when the
// member has no partner. A missing member also resolves to "": stale ids
// are treated as already removed, not as a fatal error.
func (s *MembershipService) ResolvePartner(ctx context.Context, memberID string) (string, error) {
	member, err := s.store.GetMember(ctx, memberID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return member.PartnerID, nil
}

// IsMember reports whether a user belongs to a group.
func (s *MembershipService) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return false, err
	}
	for _, m := range members {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// validateDate checks YYYY-MM-DD form.
func validateDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid date %q: %w", date, err)
	}
	return nil
}

// subset reports whether every id in sub appears in super.
func subset(sub, super []string) bool {
	set := make(map[string]bool, len(super))
	for _, id := range super {
		set[id] = true
	}
	for _, id := range sub {
		if !set[id] {
			return false
		}
	}
	return true
}
