package model

// Recipe is a catalog entry. BaseServings is the serving count the ingredient
// quantities are written for.
type Recipe struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Image        string       `json:"image,omitempty"`
	BaseServings int          `json:"baseServings"`
	Ingredients  []Ingredient `json:"ingredients"`
	Source       string       `json:"source,omitempty"`
}

type Ingredient struct {
	Name     string   `json:"name"`
	Quantity Quantity `json:"quantity"`
	Unit     Unit     `json:"unit"`
	Category Category `json:"category"`
}
