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

// CreateEvent persists a new event and its feature flags.
func (s *SQLiteStore) CreateEvent(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt == 0 {
		event.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO events (id, group_id, name, start_date, end_date, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		event.ID, event.GroupID, event.Name, event.StartDate, event.EndDate, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	for _, feature := range event.Features {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO event_features (event_id, feature) VALUES (?, ?)",
			event.ID, feature,
		)
		if err != nil {
			return fmt.Errorf("failed to insert event feature: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetEvent retrieves an event by ID, including its feature flags.
func (s *SQLiteStore) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event := &models.Event{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, group_id, name, start_date, end_date, created_at FROM events WHERE id = ?",
		eventID,
	).Scan(&event.ID, &event.GroupID, &event.Name, &event.StartDate, &event.EndDate, &event.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("event %s: %w", eventID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT feature FROM event_features WHERE event_id = ? ORDER BY feature",
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get event features: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("failed to scan event feature: %w", err)
		}
		event.Features = append(event.Features, models.Feature(f))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate event features: %w", err)
	}
	return event, nil
}

// CreateSubgroup persists a new subgroup with its membership and active lists.
func (s *SQLiteStore) CreateSubgroup(ctx context.Context, subgroup *models.Subgroup) error {
	if subgroup.ID == "" {
		subgroup.ID = uuid.New().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO subgroups (id, event_id, name) VALUES (?, ?, ?)",
		subgroup.ID, subgroup.EventID, subgroup.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to insert subgroup: %w", err)
	}

	activeAdults := toSet(subgroup.ActiveAdultIDs)
	for _, memberID := range subgroup.AdultIDs {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO subgroup_adults (subgroup_id, member_id, active) VALUES (?, ?, ?)",
			subgroup.ID, memberID, boolToInt(activeAdults[memberID]),
		)
		if err != nil {
			return fmt.Errorf("failed to insert subgroup adult: %w", err)
		}
	}

	activeChildren := toSet(subgroup.ActiveChildIDs)
	for _, childID := range subgroup.ChildIDs {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO subgroup_children (subgroup_id, child_id, active) VALUES (?, ?, ?)",
			subgroup.ID, childID, boolToInt(activeChildren[childID]),
		)
		if err != nil {
			return fmt.Errorf("failed to insert subgroup child: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetSubgroup retrieves a subgroup by ID, including its lists.
func (s *SQLiteStore) GetSubgroup(ctx context.Context, subgroupID string) (*models.Subgroup, error) {
	subgroup := &models.Subgroup{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, event_id, name FROM subgroups WHERE id = ?",
		subgroupID,
	).Scan(&subgroup.ID, &subgroup.EventID, &subgroup.Name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("subgroup %s: %w", subgroupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subgroup: %w", err)
	}
	if err := s.loadSubgroupLists(ctx, subgroup); err != nil {
		return nil, err
	}
	return subgroup, nil
}

// ListSubgroups returns an event's subgroups with their lists.
func (s *SQLiteStore) ListSubgroups(ctx context.Context, eventID string) ([]models.Subgroup, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, event_id, name FROM subgroups WHERE event_id = ? ORDER BY id",
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list subgroups: %w", err)
	}
	defer rows.Close()

	var subgroups []models.Subgroup
	for rows.Next() {
		var sg models.Subgroup
		if err := rows.Scan(&sg.ID, &sg.EventID, &sg.Name); err != nil {
			return nil, fmt.Errorf("failed to scan subgroup: %w", err)
		}
		subgroups = append(subgroups, sg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subgroups: %w", err)
	}

	for i := range subgroups {
		if err := s.loadSubgroupLists(ctx, &subgroups[i]); err != nil {
			return nil, err
		}
	}
	return subgroups, nil
}

// UpdateSubgroupActive replaces a subgroup's active sub-selections.
// Only ids already in the membership lists are marked; the caller
// validates subset-ness beforehand.
func (s *SQLiteStore) UpdateSubgroupActive(ctx context.Context, subgroupID string, activeAdults, activeChildren []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists string
	err = tx.QueryRowContext(ctx, "SELECT id FROM subgroups WHERE id = ?", subgroupID).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("subgroup %s: %w", subgroupID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check subgroup: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "UPDATE subgroup_adults SET active = 0 WHERE subgroup_id = ?", subgroupID); err != nil {
		return fmt.Errorf("failed to reset active adults: %w", err)
	}
	for _, memberID := range activeAdults {
		if _, err := tx.ExecContext(ctx,
			"UPDATE subgroup_adults SET active = 1 WHERE subgroup_id = ? AND member_id = ?",
			subgroupID, memberID,
		); err != nil {
			return fmt.Errorf("failed to mark active adult: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, "UPDATE subgroup_children SET active = 0 WHERE subgroup_id = ?", subgroupID); err != nil {
		return fmt.Errorf("failed to reset active children: %w", err)
	}
	for _, childID := range activeChildren {
		if _, err := tx.ExecContext(ctx,
			"UPDATE subgroup_children SET active = 1 WHERE subgroup_id = ? AND child_id = ?",
			subgroupID, childID,
		); err != nil {
			return fmt.Errorf("failed to mark active child: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// loadSubgroupLists fills a subgroup's adult/child and active lists.
func (s *SQLiteStore) loadSubgroupLists(ctx context.Context, subgroup *models.Subgroup) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT member_id, active FROM subgroup_adults WHERE subgroup_id = ? ORDER BY member_id",
		subgroup.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get subgroup adults: %w", err)
	}
	for rows.Next() {
		var memberID string
		var active int
		if err := rows.Scan(&memberID, &active); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan subgroup adult: %w", err)
		}
		subgroup.AdultIDs = append(subgroup.AdultIDs, memberID)
		if active != 0 {
			subgroup.ActiveAdultIDs = append(subgroup.ActiveAdultIDs, memberID)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate subgroup adults: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		"SELECT child_id, active FROM subgroup_children WHERE subgroup_id = ? ORDER BY child_id",
		subgroup.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get subgroup children: %w", err)
	}
	for rows.Next() {
		var childID string
		var active int
		if err := rows.Scan(&childID, &active); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan subgroup child: %w", err)
		}
		subgroup.ChildIDs = append(subgroup.ChildIDs, childID)
		if active != 0 {
			subgroup.ActiveChildIDs = append(subgroup.ActiveChildIDs, childID)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate subgroup children: %w", err)
	}
	return nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
