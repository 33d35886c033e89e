package aggregate

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/shoplist/internal/model"
	"github.com/dukerupert/shoplist/internal/recipe"
)

type fakeResolver struct {
	recipes map[string]model.Recipe
	err     error
	calls   []string
}

func (f *fakeResolver) Resolve(_ context.Context, id string) (recipe.Result, error) {
	f.calls = append(f.calls, id)
	if f.err != nil {
		return recipe.Result{}, f.err
	}
	r, ok := f.recipes[id]
	if !ok {
		return recipe.Result{}, nil
	}
	return recipe.Result{Found: true, Source: "fake", Recipe: r}, nil
}

var pancakes = model.Recipe{
	ID:           "pancakes",
	Title:        "Pancakes",
	BaseServings: 2,
	Ingredients: []model.Ingredient{
		{Name: "Milk", Quantity: model.Qty(0.5), Unit: model.UnitLiter, Category: model.CategoryDairy},
		{Name: "Flour", Quantity: model.Qty(200), Unit: model.UnitGram},
		{Name: "Salt", Unit: model.UnitPinch},
	},
}

var crepes = model.Recipe{
	ID:           "crepes",
	Title:        "Crepes",
	BaseServings: 4,
	Ingredients: []model.Ingredient{
		{Name: "milk", Quantity: model.Qty(1), Unit: model.UnitLiter},
		{Name: "Eggs", Quantity: model.Qty(4), Unit: model.UnitPiece},
	},
}

func newAggregator(recipes ...model.Recipe) (*Aggregator, *fakeResolver) {
	f := &fakeResolver{recipes: map[string]model.Recipe{}}
	for _, r := range recipes {
		f.recipes[r.ID] = r
	}
	return NewAggregator(f, slog.Default()), f
}

func findItem(items []model.Item, name string, origin model.Origin) *model.Item {
	for i := range items {
		if items[i].Name == name && items[i].Origin == origin {
			return &items[i]
		}
	}
	return nil
}

func countRecipeItems(items []model.Item, recipeID string) int {
	n := 0
	for _, it := range items {
		if it.Origin == model.OriginRecipe && it.RecipeID == recipeID {
			n++
		}
	}
	return n
}

func TestRecomputeOriginKeepsItemsSeparate(t *testing.T) {
	agg, _ := newAggregator(pancakes)
	manual := []model.Item{{ID: "m1", Name: "Milk", Quantity: model.Qty(1), Unit: model.UnitLiter, Category: model.CategoryDairy, Origin: model.OriginManual, Active: true}}
	atts := []model.RecipeAttachment{{ID: "pancakes", Servings: 4}}

	items, outAtts, err := agg.Recompute(context.Background(), 1, manual, atts)
	require.NoError(t, err)

	m := findItem(items, "Milk", model.OriginManual)
	require.NotNil(t, m)
	assert.Equal(t, model.Qty(1), m.Quantity)

	r := findItem(items, "Milk", model.OriginRecipe)
	require.NotNil(t, r)
	assert.Equal(t, model.Qty(1), r.Quantity)
	assert.Equal(t, "pancakes", r.RecipeID)

	flour := findItem(items, "Flour", model.OriginRecipe)
	require.NotNil(t, flour)
	assert.Equal(t, model.Qty(400), flour.Quantity)

	salt := findItem(items, "Salt", model.OriginRecipe)
	require.NotNil(t, salt)
	assert.False(t, salt.Quantity.Valid, "null quantities stay null when scaled")

	require.Len(t, outAtts, 1)
	assert.True(t, outAtts[0].IngredientsApplied)
	assert.Equal(t, "Pancakes", outAtts[0].Title)
	assert.False(t, atts[0].IngredientsApplied, "input attachments must not be modified")
}

func TestRecomputeIsIdempotentOnServingChange(t *testing.T) {
	agg, _ := newAggregator(pancakes)
	ctx := context.Background()

	items, atts, err := agg.Recompute(ctx, 1, nil, []model.RecipeAttachment{{ID: "pancakes", Servings: 2}})
	require.NoError(t, err)

	atts[0].Servings = 6
	items, _, err = agg.Recompute(ctx, 1, items, atts)
	require.NoError(t, err)

	assert.Equal(t, 3, countRecipeItems(items, "pancakes"))
	flour := findItem(items, "Flour", model.OriginRecipe)
	require.NotNil(t, flour)
	assert.Equal(t, model.Qty(600), flour.Quantity, "scaled by the new servings only")
}

func TestRecomputeCombinesAcrossRecipes(t *testing.T) {
	agg, _ := newAggregator(pancakes, crepes)
	atts := []model.RecipeAttachment{{ID: "pancakes", Servings: 2}, {ID: "crepes", Servings: 4}}

	items, _, err := agg.Recompute(context.Background(), 1, nil, atts)
	require.NoError(t, err)

	var milk []model.Item
	for _, it := range items {
		if it.Origin == model.OriginRecipe && it.Unit == model.UnitLiter {
			milk = append(milk, it)
		}
	}
	require.Len(t, milk, 1)
	assert.Equal(t, model.Qty(1.5), milk[0].Quantity)
}

func TestRecomputeDetachRemovesRecipeItems(t *testing.T) {
	agg, _ := newAggregator(pancakes)
	ctx := context.Background()
	manual := model.Item{ID: "m1", Name: "Bread", Quantity: model.Qty(1), Unit: model.UnitPiece, Origin: model.OriginManual, Active: false}

	items, _, err := agg.Recompute(ctx, 1, []model.Item{manual}, []model.RecipeAttachment{{ID: "pancakes", Servings: 2}})
	require.NoError(t, err)
	require.Equal(t, 3, countRecipeItems(items, "pancakes"))

	items, _, err = agg.Recompute(ctx, 1, items, nil)
	require.NoError(t, err)
	assert.Equal(t, []model.Item{manual}, items)
}

func TestRecomputeSkipsUnresolvable(t *testing.T) {
	agg, f := newAggregator(pancakes)
	atts := []model.RecipeAttachment{{ID: "gone", Servings: 2}, {ID: "pancakes", Servings: 2}}

	items, out, err := agg.Recompute(context.Background(), 1, nil, atts)
	require.NoError(t, err)
	assert.Equal(t, []string{"gone", "pancakes"}, f.calls)
	assert.False(t, out[0].IngredientsApplied)
	assert.True(t, out[1].IngredientsApplied)
	assert.Equal(t, 3, countRecipeItems(items, "pancakes"))
}

func TestRecomputeResolverFailureIsSkip(t *testing.T) {
	agg, f := newAggregator()
	f.err = errors.New("upstream down")

	items, out, err := agg.Recompute(context.Background(), 1, nil, []model.RecipeAttachment{{ID: "pancakes", Servings: 2}})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.False(t, out[0].IngredientsApplied)
}

func TestRecomputeCancelled(t *testing.T) {
	agg, f := newAggregator()
	f.err = context.Canceled
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := agg.Recompute(ctx, 1, nil, []model.RecipeAttachment{{ID: "pancakes", Servings: 2}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScaleBaseServings(t *testing.T) {
	r := model.Recipe{Ingredients: []model.Ingredient{{Name: "Rice", Quantity: model.Qty(100), Unit: model.UnitGram}}}

	got := Scale(r, "rice", 3)
	require.Len(t, got, 1)
	assert.Equal(t, model.Qty(300), got[0].Quantity, "zero base servings counts as one")
	assert.Equal(t, model.OriginRecipe, got[0].Origin)
	assert.Equal(t, "rice", got[0].RecipeID)
}
