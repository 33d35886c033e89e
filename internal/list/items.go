package list

import (
	"context"
	"slices"
	"strings"

	"github.com/dukerupert/shoplist/internal/apperr"
	"github.com/dukerupert/shoplist/internal/grocery"
	"github.com/dukerupert/shoplist/internal/model"
	"github.com/dukerupert/shoplist/internal/parser"
)

// AddInput carries new items either as structured items or as freeform text or audio for the
// parser. Items take precedence.
type AddInput struct {
	Text      string             `json:"text,omitempty"`
	Audio     []byte             `json:"audio,omitempty"`
	AudioMIME string             `json:"audio_mime,omitempty"`
	Items     []grocery.Incoming `json:"items,omitempty"`
}

// ItemPatch lists the fields of an item to change. Nil fields are left alone. An empty
// string quantity clears it.
type ItemPatch struct {
	Name     *string         `json:"name,omitempty"`
	Quantity *model.Quantity `json:"quantity,omitempty"`
	Unit     *model.Unit     `json:"unit,omitempty"`
	Category *model.Category `json:"category,omitempty"`
	Active   *bool           `json:"active,omitempty"`
}

func (p ItemPatch) onlyActive() bool {
	return p.Name == nil && p.Quantity == nil && p.Unit == nil && p.Category == nil
}

// AddItems merges new items into the list.
func (s *Service) AddItems(ctx context.Context, userID, listID int64, in AddInput) (*model.List, error) {
	// Fail fast on access before spending a parser call.
	if _, err := s.load(ctx, userID, listID); err != nil {
		return nil, err
	}

	incoming := in.Items
	if len(incoming) == 0 {
		parsed, err := s.parser.Parse(ctx, parser.Input{Text: in.Text, Audio: in.Audio, AudioMIME: in.AudioMIME})
		if err != nil {
			return nil, err
		}
		if len(parsed) == 0 {
			return nil, apperr.Validation("no items found in input")
		}
		incoming = parsed
	}
	for i := range incoming {
		if err := validateIncoming(&incoming[i]); err != nil {
			return nil, err
		}
	}

	return s.mutate(ctx, userID, listID, func(l *model.List) error {
		items, mismatches := grocery.Merge(l.Items, incoming...)
		s.logMismatches(l.ID, mismatches)
		l.Items = items
		return nil
	})
}

func validateIncoming(in *grocery.Incoming) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return apperr.Validation("item name is required")
	}
	if in.Origin == model.OriginRecipe {
		return apperr.Validation("recipe items are managed through recipe attachments")
	}
	if in.Origin != "" && !in.Origin.Valid() {
		return apperr.Validation("unknown origin %q", in.Origin)
	}
	in.RecipeID = ""
	return validateFields(in.Quantity, in.Unit, in.Category)
}

func validateFields(q model.Quantity, u model.Unit, c model.Category) error {
	if !q.Finite() {
		return apperr.Validation("quantity must be a finite number")
	}
	if q.Valid && q.Value < 0 {
		return apperr.Validation("quantity must not be negative")
	}
	if !u.Valid() {
		return apperr.Validation("unknown unit %d", u)
	}
	if !c.Valid() {
		return apperr.Validation("unknown category %d", c)
	}
	return nil
}

// UpdateItem applies patch to one item. Recipe items can only be checked off or back on;
// their other fields follow the attached recipe.
func (s *Service) UpdateItem(ctx context.Context, userID, listID int64, itemID string, patch ItemPatch) (*model.List, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperr.Validation("item name is required")
		}
		patch.Name = &name
	}

	return s.mutate(ctx, userID, listID, func(l *model.List) error {
		idx := l.FindItem(itemID)
		if idx < 0 {
			return apperr.NotFound("item %s not found", itemID)
		}
		edited := l.Items[idx]
		if edited.Origin == model.OriginRecipe && !patch.onlyActive() {
			return apperr.Validation("recipe items can only be checked or unchecked")
		}
		if patch.Name != nil {
			edited.Name = *patch.Name
		}
		if patch.Quantity != nil {
			edited.Quantity = *patch.Quantity
		}
		if patch.Unit != nil {
			edited.Unit = *patch.Unit
		}
		if patch.Category != nil {
			edited.Category = *patch.Category
		}
		if patch.Active != nil {
			edited.Active = *patch.Active
		}
		if err := validateFields(edited.Quantity, edited.Unit, edited.Category); err != nil {
			return err
		}

		items, mismatches := grocery.Upsert(l.Items, idx, edited)
		s.logMismatches(l.ID, mismatches)
		l.Items = items
		return nil
	})
}

func (s *Service) DeleteItem(ctx context.Context, userID, listID int64, itemID string) (*model.List, error) {
	return s.mutate(ctx, userID, listID, func(l *model.List) error {
		idx := l.FindItem(itemID)
		if idx < 0 {
			return apperr.NotFound("item %s not found", itemID)
		}
		l.Items = slices.Delete(l.Items, idx, idx+1)
		return nil
	})
}

// DeleteAll empties the list: every item and every recipe attachment.
func (s *Service) DeleteAll(ctx context.Context, userID, listID int64) (*model.List, error) {
	return s.mutate(ctx, userID, listID, func(l *model.List) error {
		l.Items = []model.Item{}
		l.Recipes = []model.RecipeAttachment{}
		return nil
	})
}

// DeleteChecked removes every checked-off item.
func (s *Service) DeleteChecked(ctx context.Context, userID, listID int64) (*model.List, error) {
	return s.mutate(ctx, userID, listID, func(l *model.List) error {
		l.Items = slices.DeleteFunc(l.Items, func(it model.Item) bool { return !it.Active })
		return nil
	})
}
