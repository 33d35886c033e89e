package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/shoplist/internal/model"
)

type InviteStore struct {
	db *sql.DB
}

func NewInviteStore(db *sql.DB) *InviteStore {
	return &InviteStore{db: db}
}

const inviteCols = `code, list_id, created_by, created_at, expires_at`

func scanInvite(row scanner) (*model.InviteCode, error) {
	var c model.InviteCode
	var createdAt, expiresAt int64
	if err := row.Scan(&c.Code, &c.ListID, &c.CreatedBy, &createdAt, &expiresAt); err != nil {
		return nil, err
	}
	c.CreatedAt = fromMillis(createdAt)
	c.ExpiresAt = fromMillis(expiresAt)
	return &c, nil
}

// Create stores c. It returns ErrDuplicate when the code is taken or the creator already has
// an invite for the list.
func (s *InviteStore) Create(ctx context.Context, c *model.InviteCode) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invite_codes (`+inviteCols+`) VALUES (?, ?, ?, ?, ?)`,
		c.Code, c.ListID, c.CreatedBy, toMillis(c.CreatedAt), toMillis(c.ExpiresAt),
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert invite: %w", err)
	}
	return nil
}

func (s *InviteStore) GetByCode(ctx context.Context, code string) (*model.InviteCode, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+inviteCols+` FROM invite_codes WHERE code = ?`, code)
	c, err := scanInvite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invite: %w", err)
	}
	return c, nil
}

// GetByCreator returns the creator's outstanding invite for the list, expired or not.
func (s *InviteStore) GetByCreator(ctx context.Context, listID, createdBy int64) (*model.InviteCode, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+inviteCols+` FROM invite_codes WHERE list_id = ? AND created_by = ?`,
		listID, createdBy,
	)
	c, err := scanInvite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invite by creator: %w", err)
	}
	return c, nil
}

func (s *InviteStore) ListForList(ctx context.Context, listID int64) ([]model.InviteCode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+inviteCols+` FROM invite_codes WHERE list_id = ? ORDER BY created_at`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	defer rows.Close()

	var codes []model.InviteCode
	for rows.Next() {
		c, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invite: %w", err)
		}
		codes = append(codes, *c)
	}
	return codes, rows.Err()
}

// Delete removes the code and reports whether it existed. Callers use the result to
// consume a code exactly once.
func (s *InviteStore) Delete(ctx context.Context, code string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM invite_codes WHERE code = ?`, code)
	if err != nil {
		return false, fmt.Errorf("delete invite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *InviteStore) DeleteForList(ctx context.Context, listID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM invite_codes WHERE list_id = ?`, listID); err != nil {
		return fmt.Errorf("delete invites for list: %w", err)
	}
	return nil
}

func (s *InviteStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM invite_codes WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired invites: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
