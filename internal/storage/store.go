// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/gatherhq/gather/internal/models"
)

// ErrNotFound is returned when a referenced entity does not exist.
// Callers treat missing ids as already removed, not as fatal errors.
var ErrNotFound = errors.New("not found")

// ErrLastAdmin is returned when a removal would leave a group without
// any admin member.
var ErrLastAdmin = errors.New("group must keep at least one admin")

// ErrRoundExists is returned when creating an exchange round for a
// (group, year) that already has one and replacement was not requested.
var ErrRoundExists = errors.New("exchange round already exists")

// Store defines the persistence port for the engine. Every service
// receives its Store explicitly; nothing imports a package-level client.
// Single-record writes are atomic with last-writer-wins semantics;
// CreateExchangeRound is the one multi-record transactional write.
type Store interface {
	// CreateGroup persists a new group, populating ID and CreatedAt.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group by id.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// AddMember persists a new member, populating ID and CreatedAt.
	AddMember(ctx context.Context, member *models.Member) error

	// GetMember retrieves a member by id.
	GetMember(ctx context.Context, memberID string) (*models.Member, error)

	// ListMembers returns a group's members in creation order.
	ListMembers(ctx context.Context, groupID string) ([]models.Member, error)

	// RemoveMember deletes a member and runs the membership-consistency
	// sweep in one transaction: the member is stripped from every
	// subgroup adult list across the group's events, partner references
	// to them are cleared, children left parentless are removed, and
	// non-overridden presence headcounts of affected subgroups are
	// re-derived. Returns ErrLastAdmin if the member is the group's only
	// admin.
	RemoveMember(ctx context.Context, groupID, memberID string) error

	// SetPartners records a mutual partnership between two members of
	// the same group, replacing any prior partnership on either side.
	SetPartners(ctx context.Context, memberA, memberB string) error

	// ClearPartner dissolves a member's partnership on both sides.
	ClearPartner(ctx context.Context, memberID string) error

	// AddChild persists a new child, populating ID and CreatedAt.
	AddChild(ctx context.Context, child *models.Child) error

	// ListChildren returns a group's children in creation order.
	ListChildren(ctx context.Context, groupID string) ([]models.Child, error)

	// CreateEvent persists a new event, populating ID and CreatedAt.
	CreateEvent(ctx context.Context, event *models.Event) error

	// GetEvent retrieves an event by id.
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)

	// CreateSubgroup persists a new subgroup with its membership and
	// active lists, populating ID.
	CreateSubgroup(ctx context.Context, subgroup *models.Subgroup) error

	// GetSubgroup retrieves a subgroup by id, including its lists.
	GetSubgroup(ctx context.Context, subgroupID string) (*models.Subgroup, error)

	// ListSubgroups returns an event's subgroups.
	ListSubgroups(ctx context.Context, eventID string) ([]models.Subgroup, error)

	// UpdateSubgroupActive replaces a subgroup's active adult/child
	// sub-selections.
	UpdateSubgroupActive(ctx context.Context, subgroupID string, activeAdults, activeChildren []string) error

	// GetPresence retrieves one presence record by its key.
	GetPresence(ctx context.Context, subgroupID, date string, slot models.Slot) (*models.PresenceRecord, error)

	// UpsertPresence writes one presence record by its key,
	// last-writer-wins.
	UpsertPresence(ctx context.Context, record *models.PresenceRecord) error

	// ListPresence returns all presence records of an event.
	ListPresence(ctx context.Context, eventID string) ([]models.PresenceRecord, error)

	// CreateProposal persists a new proposal, populating ID and CreatedAt.
	CreateProposal(ctx context.Context, proposal *models.Proposal) error

	// GetProposal retrieves a proposal by id.
	GetProposal(ctx context.Context, proposalID string) (*models.Proposal, error)

	// ListProposals returns an event's proposals in creation order.
	ListProposals(ctx context.Context, eventID string) ([]models.Proposal, error)

	// UpsertVote writes one voter's vote on a proposal, replacing any
	// prior value from the same voter.
	UpsertVote(ctx context.Context, vote models.Vote) error

	// ListEventVotes returns every vote on every proposal of an event.
	ListEventVotes(ctx context.Context, eventID string) ([]models.Vote, error)

	// GetAllocationSettings retrieves an event's allocation weights.
	// Returns ErrNotFound when the event was never configured; callers
	// fall back to models.DefaultAllocationSettings.
	GetAllocationSettings(ctx context.Context, eventID string) (models.AllocationSettings, error)

	// PutAllocationSettings writes an event's allocation weights.
	PutAllocationSettings(ctx context.Context, settings models.AllocationSettings) error

	// CreateExchangeRound writes a round and its full assignment set in
	// one transaction; partial sets are never visible. If a round exists
	// for the same (group, year) it returns ErrRoundExists, unless
	// replace is set, in which case the old round and its assignments
	// are deleted and recreated wholesale inside the same transaction.
	CreateExchangeRound(ctx context.Context, round *models.ExchangeRound, assignments []models.Assignment, replace bool) error

	// GetExchangeRound retrieves a round by its (group, year) key.
	GetExchangeRound(ctx context.Context, groupID string, year int) (*models.ExchangeRound, error)

	// GetAssignment retrieves one giver's assignment within a
	// (group, year) round. The full mapping is deliberately not exposed.
	GetAssignment(ctx context.Context, groupID string, year int, giverID string) (*models.Assignment, error)

	// Close releases any resources held by the store.
	Close() error
}
