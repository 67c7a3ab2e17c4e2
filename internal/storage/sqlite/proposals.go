package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gatherhq/gather/internal/models"
	"github.com/gatherhq/gather/internal/storage"
)

// CreateProposal persists a new proposal.
func (s *SQLiteStore) CreateProposal(ctx context.Context, proposal *models.Proposal) error {
	if proposal.ID == "" {
		proposal.ID = uuid.New().String()
	}
	if proposal.CreatedAt == 0 {
		proposal.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO proposals (id, event_id, url, title, image, amount, creator_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		proposal.ID, proposal.EventID, proposal.URL, proposal.Title, proposal.Image,
		proposal.Amount, proposal.CreatorID, proposal.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert proposal: %w", err)
	}
	return nil
}

// GetProposal retrieves a proposal by ID.
func (s *SQLiteStore) GetProposal(ctx context.Context, proposalID string) (*models.Proposal, error) {
	proposal := &models.Proposal{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, event_id, url, title, image, amount, creator_id, created_at FROM proposals WHERE id = ?",
		proposalID,
	).Scan(&proposal.ID, &proposal.EventID, &proposal.URL, &proposal.Title, &proposal.Image,
		&proposal.Amount, &proposal.CreatorID, &proposal.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("proposal %s: %w", proposalID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}
	return proposal, nil
}

// ListProposals returns an event's proposals in creation order, which is
// the tie-break order the ranker preserves.
func (s *SQLiteStore) ListProposals(ctx context.Context, eventID string) ([]models.Proposal, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, event_id, url, title, image, amount, creator_id, created_at FROM proposals WHERE event_id = ? ORDER BY created_at, id",
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	defer rows.Close()

	var proposals []models.Proposal
	for rows.Next() {
		var p models.Proposal
		if err := rows.Scan(&p.ID, &p.EventID, &p.URL, &p.Title, &p.Image, &p.Amount, &p.CreatorID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate proposals: %w", err)
	}
	return proposals, nil
}

// UpsertVote writes one voter's vote on a proposal. Re-voting replaces
// the prior value; there is never more than one row per (proposal, voter).
func (s *SQLiteStore) UpsertVote(ctx context.Context, vote models.Vote) error {
	var exists string
	err := s.db.QueryRowContext(ctx, "SELECT id FROM proposals WHERE id = ?", vote.ProposalID).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("proposal %s: %w", vote.ProposalID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check proposal: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO votes (proposal_id, voter_id, value) VALUES (?, ?, ?)
		 ON CONFLICT (proposal_id, voter_id) DO UPDATE SET value = excluded.value`,
		vote.ProposalID, vote.VoterID, vote.Value,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert vote: %w", err)
	}
	return nil
}

// ListEventVotes returns every vote on every proposal of an event.
func (s *SQLiteStore) ListEventVotes(ctx context.Context, eventID string) ([]models.Vote, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT v.proposal_id, v.voter_id, v.value FROM votes v
		 JOIN proposals p ON p.id = v.proposal_id
		 WHERE p.event_id = ? ORDER BY v.proposal_id, v.voter_id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer rows.Close()

	var votes []models.Vote
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.ProposalID, &v.VoterID, &v.Value); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate votes: %w", err)
	}
	return votes, nil
}

// GetAllocationSettings retrieves an event's allocation weights.
func (s *SQLiteStore) GetAllocationSettings(ctx context.Context, eventID string) (models.AllocationSettings, error) {
	settings := models.AllocationSettings{}
	err := s.db.QueryRowContext(ctx,
		"SELECT event_id, adult_share, child_share FROM allocation_settings WHERE event_id = ?",
		eventID,
	).Scan(&settings.EventID, &settings.AdultShare, &settings.ChildShare)
	if err == sql.ErrNoRows {
		return settings, fmt.Errorf("allocation settings for event %s: %w", eventID, storage.ErrNotFound)
	}
	if err != nil {
		return settings, fmt.Errorf("failed to get allocation settings: %w", err)
	}
	return settings, nil
}

// PutAllocationSettings writes an event's allocation weights.
func (s *SQLiteStore) PutAllocationSettings(ctx context.Context, settings models.AllocationSettings) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO allocation_settings (event_id, adult_share, child_share) VALUES (?, ?, ?)
		 ON CONFLICT (event_id) DO UPDATE SET
		     adult_share = excluded.adult_share,
		     child_share = excluded.child_share`,
		settings.EventID, settings.AdultShare, settings.ChildShare,
	)
	if err != nil {
		return fmt.Errorf("failed to put allocation settings: %w", err)
	}
	return nil
}
