package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

// CreateGroup persists a new group.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO groups (id, name, created_by, trip_id, created_at) VALUES (?, ?, ?, ?, ?)",
		group.ID, group.Name, group.CreatedBy, nullable(group.TripID), group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	group := &models.Group{}
	var tripID sql.NullString

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_by, trip_id, created_at FROM groups WHERE id = ?", id,
	).Scan(&group.ID, &group.Name, &group.CreatedBy, &tripID, &group.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	group.TripID = tripID.String
	return group, nil
}

// ListGroupsByUser retrieves all groups where the user has a member row that
// is not rejected.
func (s *SQLiteStore) ListGroupsByUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.created_by, g.trip_id, g.created_at
		 FROM groups g
		 JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = ? AND m.status != ?
		 ORDER BY g.created_at DESC`,
		userID, string(models.MemberRejected),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups by user: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group := &models.Group{}
		var tripID sql.NullString
		if err := rows.Scan(&group.ID, &group.Name, &group.CreatedBy, &tripID, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		group.TripID = tripID.String
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

// DeleteGroupCascade applies account reversals and removes splits,
// transactions, members, and the group row, in that order, inside one
// database transaction. A crash mid-sequence can therefore never leave a
// split referencing a deleted transaction.
func (s *SQLiteStore) DeleteGroupCascade(ctx context.Context, groupID string, reversals []storage.AccountDelta) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, rev := range reversals {
		if err := adjustBalanceTx(ctx, tx, rev.AccountID, rev.Delta); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM splits WHERE transaction_id IN (SELECT id FROM transactions WHERE group_id = ?)",
		groupID,
	); err != nil {
		return fmt.Errorf("failed to delete group splits: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE group_id = ?", groupID); err != nil {
		return fmt.Errorf("failed to delete group transactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM group_members WHERE group_id = ?", groupID); err != nil {
		return fmt.Errorf("failed to delete group members: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// AddMember inserts a member row.
func (s *SQLiteStore) AddMember(ctx context.Context, member *models.Member) error {
	if member.CreatedAt == 0 {
		member.CreatedAt = time.Now().Unix()
	}
	if member.Role == "" {
		member.Role = models.RoleMember
	}
	if member.Status == "" {
		member.Status = models.MemberInvited
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO group_members (group_id, user_id, role, status, created_at) VALUES (?, ?, ?, ?, ?)",
		member.GroupID, member.UserID, string(member.Role), string(member.Status), member.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// GetMember retrieves a member row by group and user.
func (s *SQLiteStore) GetMember(ctx context.Context, groupID, userID string) (*models.Member, error) {
	member := &models.Member{}
	var role, status string

	err := s.db.QueryRowContext(ctx,
		"SELECT group_id, user_id, role, status, created_at FROM group_members WHERE group_id = ? AND user_id = ?",
		groupID, userID,
	).Scan(&member.GroupID, &member.UserID, &role, &status, &member.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("member %s in group %s: %w", userID, groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	member.Role = models.MemberRole(role)
	member.Status = models.MemberStatus(status)
	return member, nil
}

// ListMembers retrieves all member rows for a group.
func (s *SQLiteStore) ListMembers(ctx context.Context, groupID string) ([]*models.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT group_id, user_id, role, status, created_at FROM group_members WHERE group_id = ? ORDER BY created_at, user_id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		member := &models.Member{}
		var role, status string
		if err := rows.Scan(&member.GroupID, &member.UserID, &role, &status, &member.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		member.Role = models.MemberRole(role)
		member.Status = models.MemberStatus(status)
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// UpdateMemberStatus mutates a member's invite status.
func (s *SQLiteStore) UpdateMemberStatus(ctx context.Context, groupID, userID string, status models.MemberStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE group_members SET status = ? WHERE group_id = ? AND user_id = ?",
		string(status), groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update member status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("member %s in group %s: %w", userID, groupID, storage.ErrNotFound)
	}
	return nil
}
