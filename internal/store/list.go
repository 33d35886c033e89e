package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/shoplist/internal/model"
)

// ListStore persists lists together with their items, recipe attachments and members.
// Every write bumps the list's version and strictly increases its updated_at.
type ListStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewListStore(db *sql.DB) *ListStore {
	return &ListStore{db: db, now: time.Now}
}

const listCols = `id, owner_id, version, created_at, updated_at`

func scanList(row scanner) (*model.List, error) {
	var l model.List
	var createdAt, updatedAt int64
	if err := row.Scan(&l.ID, &l.Owner, &l.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	l.CreatedAt = fromMillis(createdAt)
	l.UpdatedAt = fromMillis(updatedAt)
	l.Items = []model.Item{}
	l.Recipes = []model.RecipeAttachment{}
	l.SharedWith = []int64{}
	return &l, nil
}

const itemCols = `id, name, quantity, unit, category, origin, recipe_id, active`

func scanItem(row scanner) (*model.Item, error) {
	var it model.Item
	var qty sql.NullFloat64
	var active int
	if err := row.Scan(&it.ID, &it.Name, &qty, &it.Unit, &it.Category, &it.Origin, &it.RecipeID, &active); err != nil {
		return nil, err
	}
	if qty.Valid {
		it.Quantity = model.Qty(qty.Float64)
	}
	it.Active = active != 0
	return &it, nil
}

const attachmentCols = `recipe_id, title, image, servings, ingredients_applied`

func scanAttachment(row scanner) (*model.RecipeAttachment, error) {
	var a model.RecipeAttachment
	var applied int
	if err := row.Scan(&a.ID, &a.Title, &a.Image, &a.Servings, &applied); err != nil {
		return nil, err
	}
	a.IngredientsApplied = applied != 0
	return &a, nil
}

// Create returns the owner's list, creating an empty one on first access.
func (s *ListStore) Create(ctx context.Context, ownerID int64) (*model.List, error) {
	now := toMillis(s.now())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lists (owner_id, version, created_at, updated_at) VALUES (?, 1, ?, ?)
		 ON CONFLICT(owner_id) DO NOTHING`,
		ownerID, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert list: %w", err)
	}
	return s.GetByOwner(ctx, ownerID)
}

func (s *ListStore) Get(ctx context.Context, id int64) (*model.List, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+listCols+` FROM lists WHERE id = ?`, id)
	l, err := scanList(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	if err := s.load(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *ListStore) GetByOwner(ctx context.Context, ownerID int64) (*model.List, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM lists WHERE owner_id = ?`, ownerID).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get list by owner: %w", err)
	}
	return s.Get(ctx, id)
}

// ListForUser returns every list the user owns or is a member of, owned list first.
func (s *ListStore) ListForUser(ctx context.Context, userID int64) ([]model.List, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM (
			SELECT id, 0 AS ord FROM lists WHERE owner_id = ?
			UNION
			SELECT list_id, 1 AS ord FROM list_members WHERE user_id = ?
		) ORDER BY ord, id`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan list id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}

	lists := make([]model.List, 0, len(ids))
	for _, id := range ids {
		l, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if l != nil {
			lists = append(lists, *l)
		}
	}
	return lists, nil
}

func (s *ListStore) load(ctx context.Context, l *model.List) error {
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemCols+` FROM list_items WHERE list_id = ? ORDER BY position`, l.ID)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			rows.Close()
			return fmt.Errorf("scan item: %w", err)
		}
		l.Items = append(l.Items, *it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list items: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT `+attachmentCols+` FROM list_recipes WHERE list_id = ? ORDER BY position`, l.ID)
	if err != nil {
		return fmt.Errorf("list recipes: %w", err)
	}
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			rows.Close()
			return fmt.Errorf("scan recipe: %w", err)
		}
		l.Recipes = append(l.Recipes, *a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list recipes: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT user_id FROM list_members WHERE list_id = ? ORDER BY created_at, user_id`, l.ID)
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var uid int64
		if err := rows.Scan(&uid); err != nil {
			return fmt.Errorf("scan member: %w", err)
		}
		l.SharedWith = append(l.SharedWith, uid)
	}
	return rows.Err()
}

// Save replaces the list's items and recipe attachments in one transaction. It fails with
// ErrConflict when l.Version no longer matches the stored version. On success l.Version and
// l.UpdatedAt are advanced.
func (s *ListStore) Save(ctx context.Context, l *model.List) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	updated, err := s.bump(ctx, tx, l.ID, l.Version)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM list_items WHERE list_id = ?`, l.ID); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	for i, it := range l.Items {
		var qty sql.NullFloat64
		if it.Quantity.Valid {
			qty = sql.NullFloat64{Float64: it.Quantity.Value, Valid: true}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO list_items (id, list_id, position, name, quantity, unit, category, origin, recipe_id, active)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			it.ID, l.ID, i, it.Name, qty, int64(it.Unit), int64(it.Category), string(it.Origin), it.RecipeID, boolInt(it.Active),
		)
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM list_recipes WHERE list_id = ?`, l.ID); err != nil {
		return fmt.Errorf("clear recipes: %w", err)
	}
	for i, a := range l.Recipes {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO list_recipes (list_id, recipe_id, position, title, image, servings, ingredients_applied)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			l.ID, a.ID, i, a.Title, a.Image, int64(a.Servings), boolInt(a.IngredientsApplied),
		)
		if err != nil {
			return fmt.Errorf("insert recipe: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit list: %w", err)
	}
	l.Version++
	l.UpdatedAt = fromMillis(updated)
	return nil
}

// bump advances version and updated_at. A non-zero expected version must match.
func (s *ListStore) bump(ctx context.Context, tx *sql.Tx, listID, expected int64) (int64, error) {
	var version, prev int64
	err := tx.QueryRowContext(ctx, `SELECT version, updated_at FROM lists WHERE id = ?`, listID).Scan(&version, &prev)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("list %d: %w", listID, sql.ErrNoRows)
	}
	if err != nil {
		return 0, fmt.Errorf("read list version: %w", err)
	}
	if expected != 0 && version != expected {
		return 0, ErrConflict
	}

	updated := nextUpdate(s.now(), prev)
	res, err := tx.ExecContext(ctx,
		`UPDATE lists SET version = version + 1, updated_at = ? WHERE id = ? AND version = ?`,
		updated, listID, version,
	)
	if err != nil {
		return 0, fmt.Errorf("update list: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return 0, ErrConflict
	}
	return updated, nil
}

// Delete removes the list and everything that hangs off it.
func (s *ListStore) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM list_items WHERE list_id = ?`,
		`DELETE FROM list_recipes WHERE list_id = ?`,
		`DELETE FROM list_members WHERE list_id = ?`,
		`DELETE FROM invite_codes WHERE list_id = ?`,
		`DELETE FROM lists WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("delete list: %w", err)
		}
	}
	return tx.Commit()
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
