package list

import (
	"context"
	"slices"
	"strings"

	"github.com/dukerupert/shoplist/internal/apperr"
	"github.com/dukerupert/shoplist/internal/model"
)

// AttachRecipe attaches a recipe at servings, or changes the servings of an attached one.
// The recipe items are rebuilt from scratch either way.
func (s *Service) AttachRecipe(ctx context.Context, userID, listID int64, recipeID string, servings int) (*model.List, error) {
	recipeID = strings.TrimSpace(recipeID)
	if recipeID == "" {
		return nil, apperr.Validation("recipe id is required")
	}
	if servings <= 0 {
		return nil, apperr.Validation("servings must be positive")
	}

	return s.mutate(ctx, userID, listID, func(l *model.List) error {
		idx := l.FindRecipe(recipeID)
		added := idx < 0
		if added {
			l.Recipes = append(l.Recipes, model.RecipeAttachment{ID: recipeID, Servings: servings})
			idx = len(l.Recipes) - 1
		} else {
			l.Recipes[idx].Servings = servings
		}
		if err := s.recompute(ctx, l); err != nil {
			return err
		}
		if added && !l.Recipes[idx].IngredientsApplied {
			return apperr.NotFound("recipe %s not found", recipeID)
		}
		return nil
	})
}

func (s *Service) DetachRecipe(ctx context.Context, userID, listID int64, recipeID string) (*model.List, error) {
	return s.mutate(ctx, userID, listID, func(l *model.List) error {
		idx := l.FindRecipe(recipeID)
		if idx < 0 {
			return apperr.NotFound("recipe %s is not attached", recipeID)
		}
		l.Recipes = slices.Delete(l.Recipes, idx, idx+1)
		return s.recompute(ctx, l)
	})
}

// DetachAll removes every recipe attachment and with them every recipe item.
func (s *Service) DetachAll(ctx context.Context, userID, listID int64) (*model.List, error) {
	return s.mutate(ctx, userID, listID, func(l *model.List) error {
		l.Recipes = []model.RecipeAttachment{}
		return s.recompute(ctx, l)
	})
}
