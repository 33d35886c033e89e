// Package aggregate rebuilds the recipe-derived items of a list from its recipe attachments.
package aggregate

import (
	"context"
	"log/slog"
	"slices"

	"github.com/dukerupert/shoplist/internal/grocery"
	"github.com/dukerupert/shoplist/internal/model"
	"github.com/dukerupert/shoplist/internal/recipe"
)

type Aggregator struct {
	resolver recipe.Resolver
	logger   *slog.Logger
}

func NewAggregator(resolver recipe.Resolver, logger *slog.Logger) *Aggregator {
	return &Aggregator{resolver: resolver, logger: logger}
}

// Recompute drops every recipe-origin item and rebuilds them from attachments, scaled by
// each attachment's servings. Manual items are kept as they are. Attachments whose recipe
// cannot be resolved are skipped and stay unapplied. Neither input slice is modified.
func (a *Aggregator) Recompute(ctx context.Context, listID int64, items []model.Item, attachments []model.RecipeAttachment) ([]model.Item, []model.RecipeAttachment, error) {
	base := slices.DeleteFunc(slices.Clone(items), func(it model.Item) bool {
		return it.Origin == model.OriginRecipe
	})
	out := slices.Clone(attachments)

	for i := range out {
		att := &out[i]
		res, err := a.resolver.Resolve(ctx, att.ID)
		if err != nil && ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		if err != nil || !res.Found {
			a.logger.Warn("skipping unresolvable recipe", "list_id", listID, "recipe_id", att.ID, "error", err)
			att.IngredientsApplied = false
			continue
		}

		if att.Title == "" {
			att.Title = res.Recipe.Title
		}
		if att.Image == "" {
			att.Image = res.Recipe.Image
		}

		var mismatches []grocery.Mismatch
		for _, in := range Scale(res.Recipe, att.ID, att.Servings) {
			var mm []grocery.Mismatch
			base, mm = grocery.Merge(base, in)
			mismatches = append(mismatches, mm...)
		}
		for _, m := range mismatches {
			a.logger.Warn("merged items disagree on category",
				"list_id", listID, "item_id", m.ItemID, "name", m.Name,
				"existing", m.Existing, "incoming", m.Incoming)
		}
		att.IngredientsApplied = true
	}
	return base, out, nil
}

// Scale turns the ingredients of r into recipe-origin items for servings. A recipe without a
// positive base serving count is treated as serving one.
func Scale(r model.Recipe, recipeID string, servings int) []grocery.Incoming {
	baseServings := r.BaseServings
	if baseServings <= 0 {
		baseServings = 1
	}
	factor := float64(servings) / float64(baseServings)

	out := make([]grocery.Incoming, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		out = append(out, grocery.Incoming{
			Name:     ing.Name,
			Quantity: ing.Quantity.Scale(factor),
			Unit:     ing.Unit,
			Category: ing.Category,
			Origin:   model.OriginRecipe,
			RecipeID: recipeID,
		})
	}
	return out
}
