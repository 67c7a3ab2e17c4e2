// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/gatherhq/gather/internal/models"
	"github.com/gatherhq/gather/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; one pooled connection serializes
	// concurrent writes instead of surfacing SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateGroup persists a new group to the database.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO groups (id, name, created_at) VALUES (?, ?, ?)",
		group.ID, group.Name, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &group.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// AddMember persists a new member to the database.
func (s *SQLiteStore) AddMember(ctx context.Context, member *models.Member) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	if member.CreatedAt == 0 {
		member.CreatedAt = time.Now().Unix()
	}
	if member.Role == "" {
		member.Role = models.RoleMember
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO members (id, group_id, user_id, name, role, partner_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		member.ID, member.GroupID, member.UserID, member.Name, member.Role, member.PartnerID, member.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// GetMember retrieves a member by ID.
func (s *SQLiteStore) GetMember(ctx context.Context, memberID string) (*models.Member, error) {
	member := &models.Member{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, group_id, user_id, name, role, partner_id, created_at FROM members WHERE id = ?",
		memberID,
	).Scan(&member.ID, &member.GroupID, &member.UserID, &member.Name, &member.Role, &member.PartnerID, &member.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("member %s: %w", memberID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return member, nil
}

// ListMembers returns a group's members in creation order.
func (s *SQLiteStore) ListMembers(ctx context.Context, groupID string) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, group_id, user_id, name, role, partner_id, created_at FROM members WHERE group_id = ? ORDER BY created_at, id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.GroupID, &m.UserID, &m.Name, &m.Role, &m.PartnerID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// SetPartners records a mutual partnership between two members,
// dissolving any prior partnership on either side first.
func (s *SQLiteStore) SetPartners(ctx context.Context, memberA, memberB string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range []string{memberA, memberB} {
		var exists string
		err := tx.QueryRowContext(ctx, "SELECT id FROM members WHERE id = ?", id).Scan(&exists)
		if err == sql.ErrNoRows {
			return fmt.Errorf("member %s: %w", id, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check member: %w", err)
		}
	}

	// Release whoever was previously partnered with either side.
	if _, err := tx.ExecContext(ctx,
		"UPDATE members SET partner_id = '' WHERE partner_id IN (?, ?)",
		memberA, memberB,
	); err != nil {
		return fmt.Errorf("failed to clear prior partnerships: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "UPDATE members SET partner_id = ? WHERE id = ?", memberB, memberA); err != nil {
		return fmt.Errorf("failed to set partner: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE members SET partner_id = ? WHERE id = ?", memberA, memberB); err != nil {
		return fmt.Errorf("failed to set partner: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ClearPartner dissolves a member's partnership on both sides.
func (s *SQLiteStore) ClearPartner(ctx context.Context, memberID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE members SET partner_id = '' WHERE id = ? OR partner_id = ?",
		memberID, memberID,
	)
	if err != nil {
		return fmt.Errorf("failed to clear partner: %w", err)
	}
	return nil
}

// AddChild persists a new child and its parent links.
func (s *SQLiteStore) AddChild(ctx context.Context, child *models.Child) error {
	if len(child.ParentIDs) == 0 {
		return fmt.Errorf("child must have at least one parent")
	}
	if child.ID == "" {
		child.ID = uuid.New().String()
	}
	if child.CreatedAt == 0 {
		child.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO children (id, group_id, name, birth_date, created_at) VALUES (?, ?, ?, ?, ?)",
		child.ID, child.GroupID, child.Name, child.BirthDate, child.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert child: %w", err)
	}

	for _, parentID := range child.ParentIDs {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO child_parents (child_id, member_id) VALUES (?, ?)",
			child.ID, parentID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert child parent: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListChildren returns a group's children with their parent links.
func (s *SQLiteStore) ListChildren(ctx context.Context, groupID string) ([]models.Child, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, group_id, name, birth_date, created_at FROM children WHERE group_id = ? ORDER BY created_at, id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	defer rows.Close()

	var children []models.Child
	for rows.Next() {
		var c models.Child
		if err := rows.Scan(&c.ID, &c.GroupID, &c.Name, &c.BirthDate, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate children: %w", err)
	}

	for i := range children {
		parentRows, err := s.db.QueryContext(ctx,
			"SELECT member_id FROM child_parents WHERE child_id = ? ORDER BY member_id",
			children[i].ID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to get child parents: %w", err)
		}
		for parentRows.Next() {
			var parentID string
			if err := parentRows.Scan(&parentID); err != nil {
				parentRows.Close()
				return nil, fmt.Errorf("failed to scan child parent: %w", err)
			}
			children[i].ParentIDs = append(children[i].ParentIDs, parentID)
		}
		parentRows.Close()
		if err := parentRows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate child parents: %w", err)
		}
	}
	return children, nil
}

// RemoveMember deletes a member and runs the membership-consistency sweep
// in a single transaction. See storage.Store for the full contract.
func (s *SQLiteStore) RemoveMember(ctx context.Context, groupID, memberID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var role string
	err = tx.QueryRowContext(ctx,
		"SELECT role FROM members WHERE id = ? AND group_id = ?",
		memberID, groupID,
	).Scan(&role)
	if err == sql.ErrNoRows {
		return fmt.Errorf("member %s: %w", memberID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get member: %w", err)
	}

	if models.Role(role) == models.RoleAdmin {
		var admins int
		err = tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM members WHERE group_id = ? AND role = ?",
			groupID, models.RoleAdmin,
		).Scan(&admins)
		if err != nil {
			return fmt.Errorf("failed to count admins: %w", err)
		}
		if admins <= 1 {
			return storage.ErrLastAdmin
		}
	}

	// Collect the subgroups the member sits in; their presence counts
	// need re-deriving after the strip.
	affected, err := collectStrings(tx, ctx,
		`SELECT sa.subgroup_id FROM subgroup_adults sa
		 JOIN subgroups sg ON sg.id = sa.subgroup_id
		 JOIN events e ON e.id = sg.event_id
		 WHERE sa.member_id = ? AND e.group_id = ?`,
		memberID, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to collect affected subgroups: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM subgroup_adults WHERE member_id = ?", memberID); err != nil {
		return fmt.Errorf("failed to strip member from subgroups: %w", err)
	}

	// Dissolve the partnership from the surviving side.
	if _, err := tx.ExecContext(ctx, "UPDATE members SET partner_id = '' WHERE partner_id = ?", memberID); err != nil {
		return fmt.Errorf("failed to clear partner references: %w", err)
	}

	// Children the member parented: drop the link, and remove children
	// left with no parents at all (they are no longer reachable through
	// any member of the group).
	if _, err := tx.ExecContext(ctx, "DELETE FROM child_parents WHERE member_id = ?", memberID); err != nil {
		return fmt.Errorf("failed to remove child parent links: %w", err)
	}
	orphans, err := collectStrings(tx, ctx,
		`SELECT c.id FROM children c
		 WHERE c.group_id = ?
		   AND NOT EXISTS (SELECT 1 FROM child_parents cp WHERE cp.child_id = c.id)`,
		groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to collect orphaned children: %w", err)
	}
	for _, childID := range orphans {
		childSubgroups, err := collectStrings(tx, ctx,
			"SELECT subgroup_id FROM subgroup_children WHERE child_id = ?", childID)
		if err != nil {
			return fmt.Errorf("failed to collect child subgroups: %w", err)
		}
		affected = append(affected, childSubgroups...)
		if _, err := tx.ExecContext(ctx, "DELETE FROM subgroup_children WHERE child_id = ?", childID); err != nil {
			return fmt.Errorf("failed to strip child from subgroups: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM children WHERE id = ?", childID); err != nil {
			return fmt.Errorf("failed to remove orphaned child: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM members WHERE id = ?", memberID); err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}

	// Re-derive presence headcounts for affected subgroups. Opted-out
	// slots stay at zero and explicit overrides stay sticky.
	for _, subgroupID := range dedupe(affected) {
		_, err := tx.ExecContext(ctx,
			`UPDATE presence_records
			 SET headcount =
			     (SELECT COUNT(*) FROM subgroup_adults sa WHERE sa.subgroup_id = presence_records.subgroup_id AND sa.active = 1)
			   + (SELECT COUNT(*) FROM subgroup_children sc WHERE sc.subgroup_id = presence_records.subgroup_id AND sc.active = 1)
			 WHERE subgroup_id = ? AND present = 1 AND overridden = 0`,
			subgroupID,
		)
		if err != nil {
			return fmt.Errorf("failed to regenerate presence headcounts: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// collectStrings runs a single-column query inside a transaction and
// returns the values.
func collectStrings(tx *sql.Tx, ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// dedupe removes duplicate ids while preserving order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
