package grocery

import (
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/dukerupert/shoplist/internal/model"
)

// Key is the identity under which two items combine. Category is deliberately not part of it.
type Key struct {
	Name   string
	Unit   model.Unit
	Origin model.Origin
}

// Incoming is an item offered to the merge engine, e.g. parser output or a scaled recipe ingredient.
// Zero values mean "use the default": a fresh id, an automatic category, manual origin and active.
type Incoming struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Quantity model.Quantity `json:"quantity"`
	Unit     model.Unit     `json:"unit"`
	Category model.Category `json:"category"`
	Origin   model.Origin   `json:"origin,omitempty"`
	RecipeID string         `json:"recipeId,omitempty"`
	Active   *bool          `json:"active,omitempty"`
}

// Mismatch reports a merge whose two sides disagreed on category. The existing category is kept.
type Mismatch struct {
	ItemID   string
	Name     string
	Existing model.Category
	Incoming model.Category
}

// NormalizeName folds a display name into its comparison form: NFC, Unicode case folding and
// collapsed whitespace.
func NormalizeName(name string) string {
	s := strings.Join(strings.Fields(norm.NFC.String(name)), " ")
	return norm.NFC.String(cases.Fold().String(s))
}

func KeyOf(it model.Item) Key {
	return Key{Name: NormalizeName(it.Name), Unit: it.Unit, Origin: originOrDefault(it.Origin)}
}

func (in Incoming) key() Key {
	return Key{Name: NormalizeName(in.Name), Unit: in.Unit, Origin: originOrDefault(in.Origin)}
}

func originOrDefault(o model.Origin) model.Origin {
	if o == "" {
		return model.OriginManual
	}
	return o
}

// Merge folds incoming into a copy of current and returns the result. current is never modified.
//
// An incoming item combines with the active item sharing its key: numeric quantities are summed,
// a single numeric side is kept, and two nulls stay null. Checked-off items are never merge
// targets. Anything unmatched is appended.
func Merge(current []model.Item, incoming ...Incoming) ([]model.Item, []Mismatch) {
	out := slices.Clone(current)
	var mismatches []Mismatch

	for _, in := range incoming {
		item := newItem(in, out)
		if item.Active {
			if idx := findActive(out, KeyOf(item), ""); idx >= 0 {
				if m, ok := combine(&out[idx], item, in.Category != model.CategoryUnset); ok {
					mismatches = append(mismatches, m)
				}
				continue
			}
		}
		out = append(out, item)
	}

	return out, mismatches
}

// Upsert replaces items[index] with edited and, when the edit makes it coincide with another
// active item, merges the two. The surviving item keeps the older entry's id.
func Upsert(items []model.Item, index int, edited model.Item) ([]model.Item, []Mismatch) {
	out := slices.Clone(items)
	edited.Origin = originOrDefault(edited.Origin)
	if edited.Category == model.CategoryUnset {
		edited.Category = Categorize(edited.Name)
	}
	out[index] = edited

	if !edited.Active {
		return out, nil
	}
	twin := findActive(out, KeyOf(edited), edited.ID)
	if twin < 0 {
		return out, nil
	}

	var mismatches []Mismatch
	if m, ok := combine(&out[twin], edited, true); ok {
		mismatches = append(mismatches, m)
	}
	return slices.Delete(out, index, index+1), mismatches
}

func combine(target *model.Item, in model.Item, explicitCategory bool) (Mismatch, bool) {
	target.Quantity = target.Quantity.Add(in.Quantity)
	if explicitCategory && in.Category != target.Category {
		return Mismatch{ItemID: target.ID, Name: target.Name, Existing: target.Category, Incoming: in.Category}, true
	}
	return Mismatch{}, false
}

func findActive(items []model.Item, key Key, skipID string) int {
	for i, it := range items {
		if it.Active && it.ID != skipID && KeyOf(it) == key {
			return i
		}
	}
	return -1
}

func newItem(in Incoming, existing []model.Item) model.Item {
	item := model.Item{
		ID:       in.ID,
		Name:     strings.TrimSpace(in.Name),
		Quantity: in.Quantity,
		Unit:     in.Unit,
		Category: in.Category,
		Origin:   originOrDefault(in.Origin),
		Active:   true,
	}
	if in.Active != nil {
		item.Active = *in.Active
	}
	if item.Origin == model.OriginRecipe {
		item.RecipeID = in.RecipeID
	}
	if item.Category == model.CategoryUnset {
		item.Category = Categorize(item.Name)
	}
	if item.ID == "" || slices.ContainsFunc(existing, func(it model.Item) bool { return it.ID == item.ID }) {
		item.ID = uuid.NewString()
	}
	return item
}
