package grocery

import (
	"testing"

	"github.com/dukerupert/shoplist/internal/model"
)

func TestCategorizeExactMatch(t *testing.T) {
	tests := []struct {
		input string
		want  model.Category
	}{
		{"milk", model.CategoryDairy},
		{"chicken", model.CategoryMeatSeafood},
		{"bread", model.CategoryBakery},
		{"rice", model.CategoryPantry},
		{"ice cream", model.CategoryFrozen},
		{"coffee", model.CategoryBeverages},
		{"chips", model.CategorySnacks},
		{"paper towels", model.CategoryHousehold},
		{"shampoo", model.CategoryPersonalCare},
		{"apple", model.CategoryProduce},
		{"käse", model.CategoryDairy},
	}
	for _, tt := range tests {
		got := Categorize(tt.input)
		if got != tt.want {
			t.Errorf("Categorize(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestCategorizeSubstringMatch(t *testing.T) {
	tests := []struct {
		input string
		want  model.Category
	}{
		{"chicken breast", model.CategoryMeatSeafood},
		{"boneless chicken thighs", model.CategoryMeatSeafood},
		{"whole wheat bread", model.CategoryBakery},
		{"frozen pizza", model.CategoryFrozen},
		{"organic baby spinach", model.CategoryProduce},
		{"sparkling water bottles", model.CategoryBeverages},
		{"canned black beans", model.CategoryPantry},
		{"dish soap refill", model.CategoryHousehold},
		{"greek yogurt cups", model.CategoryDairy},
	}
	for _, tt := range tests {
		got := Categorize(tt.input)
		if got != tt.want {
			t.Errorf("Categorize(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestCategorizeCaseInsensitive(t *testing.T) {
	tests := []struct {
		input string
		want  model.Category
	}{
		{"MILK", model.CategoryDairy},
		{"Chicken", model.CategoryMeatSeafood},
		{"Frozen Pizza", model.CategoryFrozen},
		{"PAPER TOWELS", model.CategoryHousehold},
	}
	for _, tt := range tests {
		got := Categorize(tt.input)
		if got != tt.want {
			t.Errorf("Categorize(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestCategorizeEmptyString(t *testing.T) {
	got := Categorize("")
	if got != model.CategoryOther {
		t.Errorf("Categorize(%q) = %v, want %v", "", got, model.CategoryOther)
	}
}

func TestCategorizeWhitespace(t *testing.T) {
	got := Categorize("  milk  ")
	if got != model.CategoryDairy {
		t.Errorf("Categorize(%q) = %v, want %v", "  milk  ", got, model.CategoryDairy)
	}
}

func TestCategorizeUnknownItem(t *testing.T) {
	tests := []string{
		"widget",
		"xyz123",
		"random thing",
	}
	for _, input := range tests {
		got := Categorize(input)
		if got != model.CategoryOther {
			t.Errorf("Categorize(%q) = %v, want %v", input, got, model.CategoryOther)
		}
	}
}
