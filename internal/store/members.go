package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrOwnerMember   = errors.New("owner cannot be a member of their own list")
	ErrAlreadyMember = errors.New("user is already a member")
)

// AddMember shares the list with userID. The owner can never be added.
func (s *ListStore) AddMember(ctx context.Context, listID, userID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var owner int64
	if err := tx.QueryRowContext(ctx, `SELECT owner_id FROM lists WHERE id = ?`, listID).Scan(&owner); err != nil {
		return fmt.Errorf("get list owner: %w", err)
	}
	if owner == userID {
		return ErrOwnerMember
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO list_members (list_id, user_id, created_at) VALUES (?, ?, ?)`,
		listID, userID, toMillis(s.now()),
	)
	if isUniqueViolation(err) {
		return ErrAlreadyMember
	}
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	if _, err := s.bump(ctx, tx, listID, 0); err != nil {
		return err
	}
	return tx.Commit()
}

// RemoveMember drops userID from the list. It reports whether a membership existed.
func (s *ListStore) RemoveMember(ctx context.Context, listID, userID int64) (bool, error) {
	n, err := s.removeMembers(ctx, listID, `DELETE FROM list_members WHERE list_id = ? AND user_id = ?`, listID, userID)
	return n > 0, err
}

// RemoveAllMembers unshares the list and returns how many memberships were dropped.
func (s *ListStore) RemoveAllMembers(ctx context.Context, listID int64) (int64, error) {
	return s.removeMembers(ctx, listID, `DELETE FROM list_members WHERE list_id = ?`, listID)
}

func (s *ListStore) removeMembers(ctx context.Context, listID int64, query string, args ...any) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("remove member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return 0, nil
	}
	if _, err := s.bump(ctx, tx, listID, 0); err != nil {
		return 0, err
	}
	return n, tx.Commit()
}
