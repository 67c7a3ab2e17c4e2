package service

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/gatherhq/gather/internal/calculator"
	"github.com/gatherhq/gather/internal/models"
	"github.com/gatherhq/gather/internal/storage"
)

// ExchangeService generates and reveals gift-exchange rounds.
//
// Generation runs entirely in memory before the single atomic write, so
// concurrent attempts for the same (group, year) race only at that write;
// the loser gets ErrAlreadyGenerated unless it asked to replace.
type ExchangeService struct {
	store storage.Store

	mu  sync.Mutex
	rng *rand.Rand
}

// NewExchangeService creates a new ExchangeService with the given storage backend.
func NewExchangeService(store storage.Store) *ExchangeService {
	return &ExchangeService{
		store: store,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewExchangeServiceWithRand is like NewExchangeService but with an
// injected random source, for deterministic tests.
func NewExchangeServiceWithRand(store storage.Store, rng *rand.Rand) *ExchangeService {
	return &ExchangeService{store: store, rng: rng}
}

// Generate draws a fresh assignment for a group's gift exchange year and
// persists it atomically. Participants are the group's adult members;
// nobody receives themselves or their declared partner.
//
// A round that already exists for (group, year) makes Generate fail with
// ErrAlreadyGenerated unless replace is set, in which case the old round
// is deleted and recreated wholesale — regeneration is never an
// incremental edit.
func (s *ExchangeService) Generate(ctx context.Context, groupID string, year int, replace bool) (*models.ExchangeRound, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}

	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	participants := make([]string, len(members))
	excluded := make(map[string]string, len(members))
	for i, m := range members {
		participants[i] = m.ID
		if m.PartnerID != "" {
			excluded[m.ID] = m.PartnerID
		}
	}

	s.mu.Lock()
	assignment, err := calculator.GenerateExchange(participants, excluded, s.rng)
	s.mu.Unlock()
	if err != nil {
		slog.Warn("Exchange generation failed",
			"group_id", groupID,
			"year", year,
			"participants", len(participants),
			"error", err,
		)
		return nil, err
	}

	round := &models.ExchangeRound{GroupID: groupID, Year: year}
	assignments := make([]models.Assignment, 0, len(assignment))
	// Deterministic insert order; the mapping itself is already random.
	givers := make([]string, 0, len(assignment))
	for giver := range assignment {
		givers = append(givers, giver)
	}
	sort.Strings(givers)
	for _, giver := range givers {
		assignments = append(assignments, models.Assignment{GiverID: giver, ReceiverID: assignment[giver]})
	}

	if err := s.store.CreateExchangeRound(ctx, round, assignments, replace); err != nil {
		if errors.Is(err, storage.ErrRoundExists) {
			return nil, ErrAlreadyGenerated
		}
		slog.Error("Exchange round write failed", "group_id", groupID, "year", year, "error", err)
		return nil, err
	}

	slog.Info("Exchange round generated",
		"group_id", groupID,
		"year", year,
		"round_id", round.ID,
		"participants", len(participants),
		"replaced", replace,
	)
	return round, nil
}

// MyAssignment reveals one participant's receiver for a (group, year)
// round. The full mapping is never exposed to a non-privileged caller;
// reveal is one assignment at a time.
func (s *ExchangeService) MyAssignment(ctx context.Context, groupID string, year int, participantID string) (string, error) {
	assignment, err := s.store.GetAssignment(ctx, groupID, year, participantID)
	if err != nil {
		return "", err
	}
	return assignment.ReceiverID, nil
}
