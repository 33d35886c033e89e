package model

import (
	"slices"
	"time"
)

// List is a user's shopping list together with its recipe attachments and members.
// UpdatedAt strictly increases on every successful write; clients use it to order pushes.
type List struct {
	ID         int64              `json:"id"`
	Owner      int64              `json:"owner"`
	Items      []Item             `json:"items"`
	Recipes    []RecipeAttachment `json:"recipes"`
	SharedWith []int64            `json:"sharedWith"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
	Version    int64              `json:"-"`
}

// RecipeAttachment records a recipe attached to a list at a chosen serving count.
// IngredientsApplied is set once the recipe's ingredients were folded into the items.
type RecipeAttachment struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Image              string `json:"image,omitempty"`
	Servings           int    `json:"servings"`
	IngredientsApplied bool   `json:"ingredientsApplied"`
}

func (l *List) IsOwner(userID int64) bool {
	return l.Owner == userID
}

func (l *List) IsMember(userID int64) bool {
	return slices.Contains(l.SharedWith, userID)
}

// CanAccess reports whether userID may read and edit the list.
func (l *List) CanAccess(userID int64) bool {
	return l.IsOwner(userID) || l.IsMember(userID)
}

// FindItem returns the index of the item with id, or -1.
func (l *List) FindItem(id string) int {
	return slices.IndexFunc(l.Items, func(it Item) bool { return it.ID == id })
}

// FindRecipe returns the index of the attachment with id, or -1.
func (l *List) FindRecipe(id string) int {
	return slices.IndexFunc(l.Recipes, func(r RecipeAttachment) bool { return r.ID == id })
}

// Clone returns a deep copy safe to mutate.
func (l *List) Clone() *List {
	c := *l
	c.Items = slices.Clone(l.Items)
	c.Recipes = slices.Clone(l.Recipes)
	c.SharedWith = slices.Clone(l.SharedWith)
	return &c
}
