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

// CreateExchangeRound writes a round and its full assignment set in one
// transaction. Partial assignment sets are never visible: either the
// whole round commits or nothing does.
func (s *SQLiteStore) CreateExchangeRound(ctx context.Context, round *models.ExchangeRound, assignments []models.Assignment, replace bool) error {
	if round.ID == "" {
		round.ID = uuid.New().String()
	}
	if round.CreatedAt == 0 {
		round.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existingID string
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM exchange_rounds WHERE group_id = ? AND year = ?",
		round.GroupID, round.Year,
	).Scan(&existingID)
	switch {
	case err == nil:
		if !replace {
			return fmt.Errorf("group %s year %d: %w", round.GroupID, round.Year, storage.ErrRoundExists)
		}
		// Wholesale replacement: the old round and its assignments go
		// away together, inside this transaction.
		if _, err := tx.ExecContext(ctx, "DELETE FROM assignments WHERE round_id = ?", existingID); err != nil {
			return fmt.Errorf("failed to delete old assignments: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM exchange_rounds WHERE id = ?", existingID); err != nil {
			return fmt.Errorf("failed to delete old round: %w", err)
		}
	case err != sql.ErrNoRows:
		return fmt.Errorf("failed to check existing round: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO exchange_rounds (id, group_id, year, created_at) VALUES (?, ?, ?, ?)",
		round.ID, round.GroupID, round.Year, round.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert round: %w", err)
	}

	for _, a := range assignments {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO assignments (round_id, giver_id, receiver_id) VALUES (?, ?, ?)",
			round.ID, a.GiverID, a.ReceiverID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExchangeRound retrieves a round by its (group, year) key.
func (s *SQLiteStore) GetExchangeRound(ctx context.Context, groupID string, year int) (*models.ExchangeRound, error) {
	round := &models.ExchangeRound{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, group_id, year, created_at FROM exchange_rounds WHERE group_id = ? AND year = ?",
		groupID, year,
	).Scan(&round.ID, &round.GroupID, &round.Year, &round.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("exchange round %s/%d: %w", groupID, year, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange round: %w", err)
	}
	return round, nil
}

// GetAssignment retrieves one giver's assignment within a (group, year)
// round. There is deliberately no query returning the full mapping.
func (s *SQLiteStore) GetAssignment(ctx context.Context, groupID string, year int, giverID string) (*models.Assignment, error) {
	assignment := &models.Assignment{}
	err := s.db.QueryRowContext(ctx,
		`SELECT a.round_id, a.giver_id, a.receiver_id FROM assignments a
		 JOIN exchange_rounds r ON r.id = a.round_id
		 WHERE r.group_id = ? AND r.year = ? AND a.giver_id = ?`,
		groupID, year, giverID,
	).Scan(&assignment.RoundID, &assignment.GiverID, &assignment.ReceiverID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("assignment for %s in %s/%d: %w", giverID, groupID, year, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return assignment, nil
}
