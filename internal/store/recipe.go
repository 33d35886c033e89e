package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/shoplist/internal/model"
)

// RecipeStore is the local recipe catalog.
type RecipeStore struct {
	db *sql.DB
}

func NewRecipeStore(db *sql.DB) *RecipeStore {
	return &RecipeStore{db: db}
}

const recipeCols = `id, title, image, base_servings, source`

func scanRecipe(row scanner) (*model.Recipe, error) {
	var r model.Recipe
	if err := row.Scan(&r.ID, &r.Title, &r.Image, &r.BaseServings, &r.Source); err != nil {
		return nil, err
	}
	r.Ingredients = []model.Ingredient{}
	return &r, nil
}

// Save inserts or replaces the recipe and its ingredients.
func (s *RecipeStore) Save(ctx context.Context, r *model.Recipe) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO recipes (`+recipeCols+`) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET title = excluded.title, image = excluded.image,
		   base_servings = excluded.base_servings, source = excluded.source`,
		r.ID, r.Title, r.Image, int64(r.BaseServings), r.Source,
	)
	if err != nil {
		return fmt.Errorf("upsert recipe: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, r.ID); err != nil {
		return fmt.Errorf("clear ingredients: %w", err)
	}
	for i, ing := range r.Ingredients {
		var qty sql.NullFloat64
		if ing.Quantity.Valid {
			qty = sql.NullFloat64{Float64: ing.Quantity.Value, Valid: true}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_ingredients (recipe_id, position, name, quantity, unit, category) VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, i, ing.Name, qty, int64(ing.Unit), int64(ing.Category),
		)
		if err != nil {
			return fmt.Errorf("insert ingredient: %w", err)
		}
	}
	return tx.Commit()
}

func (s *RecipeStore) Get(ctx context.Context, id string) (*model.Recipe, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recipeCols+` FROM recipes WHERE id = ?`, id)
	r, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, quantity, unit, category FROM recipe_ingredients WHERE recipe_id = ? ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ing model.Ingredient
		var qty sql.NullFloat64
		if err := rows.Scan(&ing.Name, &qty, &ing.Unit, &ing.Category); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		if qty.Valid {
			ing.Quantity = model.Qty(qty.Float64)
		}
		r.Ingredients = append(r.Ingredients, ing)
	}
	return r, rows.Err()
}

// List returns catalog entries without their ingredients.
func (s *RecipeStore) List(ctx context.Context) ([]model.Recipe, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recipeCols+` FROM recipes ORDER BY title, id`)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []model.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, *r)
	}
	return recipes, rows.Err()
}

func (s *RecipeStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, id); err != nil {
		return fmt.Errorf("delete ingredients: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return tx.Commit()
}
