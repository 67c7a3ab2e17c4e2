package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gatherhq/gather/internal/calculator"
	"github.com/gatherhq/gather/internal/metadata"
	"github.com/gatherhq/gather/internal/models"
	"github.com/gatherhq/gather/internal/storage"
)

// RankedProposal is a proposal joined with its computed score and rank.
type RankedProposal struct {
	Proposal models.Proposal `json:"proposal"`
	Score    int             `json:"score"`
	Rank     int             `json:"rank"`
}

// ProposalService manages venue candidates and the votes on them.
type ProposalService struct {
	store   storage.Store
	fetcher metadata.Fetcher
}

// NewProposalService creates a new ProposalService with the given storage
// backend and metadata fetcher. fetcher may be nil, in which case
// proposals are created without display metadata.
func NewProposalService(store storage.Store, fetcher metadata.Fetcher) *ProposalService {
	return &ProposalService{store: store, fetcher: fetcher}
}

// CreateProposal records a venue candidate for an event. The title/image
// fetch is best-effort: a failure is logged and the fields stay empty.
func (s *ProposalService) CreateProposal(ctx context.Context, eventID, url string, amount float64, creatorID string) (*models.Proposal, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.HasFeature(models.FeatureProposals) {
		return nil, fmt.Errorf("proposals on event %s: %w", eventID, ErrFeatureDisabled)
	}
	if amount < 0 {
		return nil, fmt.Errorf("proposal amount cannot be negative: %v", amount)
	}

	proposal := &models.Proposal{
		EventID:   eventID,
		URL:       url,
		Amount:    amount,
		CreatorID: creatorID,
	}
	if s.fetcher != nil && url != "" {
		title, image, err := s.fetcher.Fetch(ctx, url)
		if err != nil {
			slog.Warn("Proposal metadata fetch failed", "url", url, "error", err)
		} else {
			proposal.Title = title
			proposal.Image = image
		}
	}

	if err := s.store.CreateProposal(ctx, proposal); err != nil {
		slog.Error("CreateProposal failed", "event_id", eventID, "error", err)
		return nil, err
	}
	slog.Info("Proposal created", "event_id", eventID, "proposal_id", proposal.ID, "amount", amount)
	return proposal, nil
}

// CastVote records one voter's signed vote on a proposal. Re-voting is a
// silent upsert: the prior value is replaced, never accumulated.
func (s *ProposalService) CastVote(ctx context.Context, proposalID, voterID string, value int) (*models.Vote, error) {
	if value != 1 && value != -1 {
		return nil, fmt.Errorf("vote %d on proposal %s: %w", value, proposalID, ErrInvalidVote)
	}

	vote := models.Vote{ProposalID: proposalID, VoterID: voterID, Value: value}
	if err := s.store.UpsertVote(ctx, vote); err != nil {
		return nil, err
	}
	slog.Debug("Vote cast", "proposal_id", proposalID, "voter_id", voterID, "value", value)
	return &vote, nil
}

// Rank orders an event's proposals by net vote score, descending. Ties
// keep creation order; ranking is advisory and always covers the full
// proposal set.
func (s *ProposalService) Rank(ctx context.Context, eventID string) ([]RankedProposal, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	proposals, err := s.store.ListProposals(ctx, eventID)
	if err != nil {
		return nil, err
	}
	votes, err := s.store.ListEventVotes(ctx, eventID)
	if err != nil {
		return nil, err
	}

	byProposal := make(map[string][]int, len(proposals))
	for _, v := range votes {
		byProposal[v.ProposalID] = append(byProposal[v.ProposalID], v.Value)
	}

	input := make([]calculator.ProposalVotes, len(proposals))
	index := make(map[string]models.Proposal, len(proposals))
	for i, p := range proposals {
		input[i] = calculator.ProposalVotes{ProposalID: p.ID, Votes: byProposal[p.ID]}
		index[p.ID] = p
	}

	ranked := calculator.Rank(input)
	results := make([]RankedProposal, len(ranked))
	for i, r := range ranked {
		results[i] = RankedProposal{Proposal: index[r.ProposalID], Score: r.Score, Rank: r.Rank}
	}
	return results, nil
}
