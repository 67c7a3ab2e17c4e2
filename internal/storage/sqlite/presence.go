package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gatherhq/gather/internal/models"
	"github.com/gatherhq/gather/internal/storage"
)

// GetPresence retrieves one presence record by its key.
func (s *SQLiteStore) GetPresence(ctx context.Context, subgroupID, date string, slot models.Slot) (*models.PresenceRecord, error) {
	record := &models.PresenceRecord{}
	var present, overridden int
	err := s.db.QueryRowContext(ctx,
		"SELECT subgroup_id, event_id, date, slot, present, headcount, overridden FROM presence_records WHERE subgroup_id = ? AND date = ? AND slot = ?",
		subgroupID, date, slot,
	).Scan(&record.SubgroupID, &record.EventID, &record.Date, &record.Slot, &present, &record.Headcount, &overridden)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("presence %s/%s/%s: %w", subgroupID, date, slot, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get presence record: %w", err)
	}
	record.Present = present != 0
	record.Overridden = overridden != 0
	return record, nil
}

// UpsertPresence writes one presence record by its key. Concurrent
// writers on the same key race; the later write persists.
func (s *SQLiteStore) UpsertPresence(ctx context.Context, record *models.PresenceRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO presence_records (subgroup_id, event_id, date, slot, present, headcount, overridden)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (subgroup_id, date, slot) DO UPDATE SET
		     present = excluded.present,
		     headcount = excluded.headcount,
		     overridden = excluded.overridden`,
		record.SubgroupID, record.EventID, record.Date, record.Slot,
		boolToInt(record.Present), record.Headcount, boolToInt(record.Overridden),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert presence record: %w", err)
	}
	return nil
}

// ListPresence returns all presence records of an event, ordered by
// date, slot, then subgroup.
func (s *SQLiteStore) ListPresence(ctx context.Context, eventID string) ([]models.PresenceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT subgroup_id, event_id, date, slot, present, headcount, overridden FROM presence_records WHERE event_id = ? ORDER BY date, slot, subgroup_id",
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list presence records: %w", err)
	}
	defer rows.Close()

	var records []models.PresenceRecord
	for rows.Next() {
		var r models.PresenceRecord
		var present, overridden int
		if err := rows.Scan(&r.SubgroupID, &r.EventID, &r.Date, &r.Slot, &present, &r.Headcount, &overridden); err != nil {
			return nil, fmt.Errorf("failed to scan presence record: %w", err)
		}
		r.Present = present != 0
		r.Overridden = overridden != 0
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate presence records: %w", err)
	}
	return records, nil
}
