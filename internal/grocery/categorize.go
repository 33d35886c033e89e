package grocery

import (
	"strings"

	"github.com/dukerupert/shoplist/internal/model"
)

// Categorize returns the aisle category for the given item name.
// Matching is case-insensitive: exact match first, then substring match.
// Falls back to CategoryOther if nothing matches.
func Categorize(itemName string) model.Category {
	name := strings.ToLower(strings.TrimSpace(itemName))
	if name == "" {
		return model.CategoryOther
	}

	if cat, ok := exactMatch[name]; ok {
		return cat
	}

	// substring entries are ordered longer/more-specific first
	for _, entry := range substringMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.category
		}
	}

	return model.CategoryOther
}

var exactMatch = map[string]model.Category{
	// Produce
	"apple":        model.CategoryProduce,
	"apples":       model.CategoryProduce,
	"banana":       model.CategoryProduce,
	"bananas":      model.CategoryProduce,
	"orange":       model.CategoryProduce,
	"oranges":      model.CategoryProduce,
	"lemon":        model.CategoryProduce,
	"lemons":       model.CategoryProduce,
	"lime":         model.CategoryProduce,
	"limes":        model.CategoryProduce,
	"avocado":      model.CategoryProduce,
	"avocados":     model.CategoryProduce,
	"tomato":       model.CategoryProduce,
	"tomatoes":     model.CategoryProduce,
	"potato":       model.CategoryProduce,
	"potatoes":     model.CategoryProduce,
	"onion":        model.CategoryProduce,
	"onions":       model.CategoryProduce,
	"garlic":       model.CategoryProduce,
	"lettuce":      model.CategoryProduce,
	"spinach":      model.CategoryProduce,
	"kale":         model.CategoryProduce,
	"broccoli":     model.CategoryProduce,
	"carrots":      model.CategoryProduce,
	"celery":       model.CategoryProduce,
	"cucumber":     model.CategoryProduce,
	"cucumbers":    model.CategoryProduce,
	"peppers":      model.CategoryProduce,
	"mushrooms":    model.CategoryProduce,
	"corn":         model.CategoryProduce,
	"grapes":       model.CategoryProduce,
	"strawberries": model.CategoryProduce,
	"blueberries":  model.CategoryProduce,
	"raspberries":  model.CategoryProduce,
	"watermelon":   model.CategoryProduce,
	"pineapple":    model.CategoryProduce,
	"mango":        model.CategoryProduce,
	"peach":        model.CategoryProduce,
	"peaches":      model.CategoryProduce,
	"pear":         model.CategoryProduce,
	"pears":        model.CategoryProduce,
	"cilantro":     model.CategoryProduce,
	"basil":        model.CategoryProduce,
	"parsley":      model.CategoryProduce,
	"ginger":       model.CategoryProduce,
	"jalapeño":     model.CategoryProduce,
	"zucchini":     model.CategoryProduce,
	"asparagus":    model.CategoryProduce,
	"green beans":  model.CategoryProduce,

	// Dairy
	"käse":           model.CategoryDairy,
	"milch":          model.CategoryDairy,
	"milk":           model.CategoryDairy,
	"eggs":           model.CategoryDairy,
	"butter":         model.CategoryDairy,
	"cheese":         model.CategoryDairy,
	"yogurt":         model.CategoryDairy,
	"cream cheese":   model.CategoryDairy,
	"sour cream":     model.CategoryDairy,
	"heavy cream":    model.CategoryDairy,
	"half and half":  model.CategoryDairy,
	"cottage cheese": model.CategoryDairy,

	// Meat & Seafood
	"chicken":       model.CategoryMeatSeafood,
	"beef":          model.CategoryMeatSeafood,
	"pork":          model.CategoryMeatSeafood,
	"turkey":        model.CategoryMeatSeafood,
	"bacon":         model.CategoryMeatSeafood,
	"sausage":       model.CategoryMeatSeafood,
	"ham":           model.CategoryMeatSeafood,
	"steak":         model.CategoryMeatSeafood,
	"salmon":        model.CategoryMeatSeafood,
	"shrimp":        model.CategoryMeatSeafood,
	"tuna":          model.CategoryMeatSeafood,
	"fish":          model.CategoryMeatSeafood,
	"ground beef":   model.CategoryMeatSeafood,
	"ground turkey": model.CategoryMeatSeafood,
	"hot dogs":      model.CategoryMeatSeafood,
	"deli meat":     model.CategoryMeatSeafood,
	"lamb":          model.CategoryMeatSeafood,
	"crab":          model.CategoryMeatSeafood,
	"lobster":       model.CategoryMeatSeafood,
	"tilapia":       model.CategoryMeatSeafood,

	// Bakery
	"bread":      model.CategoryBakery,
	"bagels":     model.CategoryBakery,
	"tortillas":  model.CategoryBakery,
	"rolls":      model.CategoryBakery,
	"buns":       model.CategoryBakery,
	"muffins":    model.CategoryBakery,
	"croissants": model.CategoryBakery,
	"pita":       model.CategoryBakery,

	// Pantry
	"rice":            model.CategoryPantry,
	"pasta":           model.CategoryPantry,
	"flour":           model.CategoryPantry,
	"sugar":           model.CategoryPantry,
	"salt":            model.CategoryPantry,
	"pepper":          model.CategoryPantry,
	"oil":             model.CategoryPantry,
	"olive oil":       model.CategoryPantry,
	"vinegar":         model.CategoryPantry,
	"soy sauce":       model.CategoryPantry,
	"ketchup":         model.CategoryPantry,
	"mustard":         model.CategoryPantry,
	"mayonnaise":      model.CategoryPantry,
	"honey":           model.CategoryPantry,
	"peanut butter":   model.CategoryPantry,
	"jelly":           model.CategoryPantry,
	"jam":             model.CategoryPantry,
	"cereal":          model.CategoryPantry,
	"oatmeal":         model.CategoryPantry,
	"canned beans":    model.CategoryPantry,
	"canned tomatoes": model.CategoryPantry,
	"soup":            model.CategoryPantry,
	"broth":           model.CategoryPantry,
	"beans":           model.CategoryPantry,
	"lentils":         model.CategoryPantry,
	"nuts":            model.CategoryPantry,
	"almonds":         model.CategoryPantry,
	"spaghetti":       model.CategoryPantry,
	"noodles":         model.CategoryPantry,
	"maple syrup":     model.CategoryPantry,
	"hot sauce":       model.CategoryPantry,
	"salsa":           model.CategoryPantry,

	// Frozen
	"ice cream":      model.CategoryFrozen,
	"frozen pizza":   model.CategoryFrozen,
	"frozen veggies": model.CategoryFrozen,
	"frozen fruit":   model.CategoryFrozen,
	"frozen waffles": model.CategoryFrozen,
	"popsicles":      model.CategoryFrozen,

	// Beverages
	"water":           model.CategoryBeverages,
	"juice":           model.CategoryBeverages,
	"coffee":          model.CategoryBeverages,
	"tea":             model.CategoryBeverages,
	"soda":            model.CategoryBeverages,
	"beer":            model.CategoryBeverages,
	"wine":            model.CategoryBeverages,
	"kombucha":        model.CategoryBeverages,
	"lemonade":        model.CategoryBeverages,
	"sparkling water": model.CategoryBeverages,

	// Snacks
	"chips":        model.CategorySnacks,
	"crackers":     model.CategorySnacks,
	"cookies":      model.CategorySnacks,
	"popcorn":      model.CategorySnacks,
	"pretzels":     model.CategorySnacks,
	"granola bars": model.CategorySnacks,
	"trail mix":    model.CategorySnacks,
	"candy":        model.CategorySnacks,
	"chocolate":    model.CategorySnacks,
	"fruit snacks": model.CategorySnacks,

	// Household
	"paper towels":      model.CategoryHousehold,
	"toilet paper":      model.CategoryHousehold,
	"trash bags":        model.CategoryHousehold,
	"dish soap":         model.CategoryHousehold,
	"laundry detergent": model.CategoryHousehold,
	"sponges":           model.CategoryHousehold,
	"aluminum foil":     model.CategoryHousehold,
	"plastic wrap":      model.CategoryHousehold,
	"zip bags":          model.CategoryHousehold,
	"ziplock bags":      model.CategoryHousehold,
	"light bulbs":       model.CategoryHousehold,
	"batteries":         model.CategoryHousehold,
	"napkins":           model.CategoryHousehold,
	"cleaning spray":    model.CategoryHousehold,
	"bleach":            model.CategoryHousehold,

	// Personal Care
	"shampoo":     model.CategoryPersonalCare,
	"conditioner": model.CategoryPersonalCare,
	"soap":        model.CategoryPersonalCare,
	"body wash":   model.CategoryPersonalCare,
	"toothpaste":  model.CategoryPersonalCare,
	"toothbrush":  model.CategoryPersonalCare,
	"deodorant":   model.CategoryPersonalCare,
	"lotion":      model.CategoryPersonalCare,
	"sunscreen":   model.CategoryPersonalCare,
	"floss":       model.CategoryPersonalCare,
	"razors":      model.CategoryPersonalCare,
	"tissues":     model.CategoryPersonalCare,
	"band-aids":   model.CategoryPersonalCare,
}

type substringEntry struct {
	keyword  string
	category model.Category
}

// Ordered with longer/more-specific keywords first for deterministic priority.
var substringMatches = []substringEntry{
	// Meat & Seafood, longer phrases first
	{"chicken breast", model.CategoryMeatSeafood},
	{"chicken thigh", model.CategoryMeatSeafood},
	{"chicken wing", model.CategoryMeatSeafood},
	{"ground beef", model.CategoryMeatSeafood},
	{"ground turkey", model.CategoryMeatSeafood},
	{"deli meat", model.CategoryMeatSeafood},
	{"pork chop", model.CategoryMeatSeafood},
	{"hot dog", model.CategoryMeatSeafood},

	// Dairy
	{"cream cheese", model.CategoryDairy},
	{"sour cream", model.CategoryDairy},
	{"heavy cream", model.CategoryDairy},
	{"cottage cheese", model.CategoryDairy},
	{"half and half", model.CategoryDairy},
	{"greek yogurt", model.CategoryDairy},
	{"almond milk", model.CategoryDairy},
	{"oat milk", model.CategoryDairy},
	{"yogurt", model.CategoryDairy},
	{"cheese", model.CategoryDairy},
	{"milk", model.CategoryDairy},
	{"butter", model.CategoryDairy},
	{"cream", model.CategoryDairy},
	{"egg", model.CategoryDairy},

	// Produce
	{"salad mix", model.CategoryProduce},
	{"baby spinach", model.CategoryProduce},
	{"green onion", model.CategoryProduce},
	{"sweet potato", model.CategoryProduce},
	{"bell pepper", model.CategoryProduce},
	{"cherry tomato", model.CategoryProduce},
	{"romaine", model.CategoryProduce},
	{"arugula", model.CategoryProduce},
	{"cabbage", model.CategoryProduce},
	{"cauliflower", model.CategoryProduce},
	{"squash", model.CategoryProduce},
	{"melon", model.CategoryProduce},
	{"berry", model.CategoryProduce},
	{"berries", model.CategoryProduce},
	{"fruit", model.CategoryProduce},
	{"herb", model.CategoryProduce},
	{"lettuce", model.CategoryProduce},
	{"spinach", model.CategoryProduce},
	{"kale", model.CategoryProduce},
	{"apple", model.CategoryProduce},
	{"banana", model.CategoryProduce},
	{"tomato", model.CategoryProduce},
	{"potato", model.CategoryProduce},
	{"onion", model.CategoryProduce},
	{"pepper", model.CategoryProduce},
	{"carrot", model.CategoryProduce},
	{"celery", model.CategoryProduce},

	// Bakery
	{"sourdough", model.CategoryBakery},
	{"whole wheat", model.CategoryBakery},
	{"bread", model.CategoryBakery},
	{"bagel", model.CategoryBakery},
	{"tortilla", model.CategoryBakery},
	{"bun", model.CategoryBakery},
	{"roll", model.CategoryBakery},
	{"muffin", model.CategoryBakery},
	{"croissant", model.CategoryBakery},

	// Pantry
	{"peanut butter", model.CategoryPantry},
	{"olive oil", model.CategoryPantry},
	{"coconut oil", model.CategoryPantry},
	{"maple syrup", model.CategoryPantry},
	{"hot sauce", model.CategoryPantry},
	{"soy sauce", model.CategoryPantry},
	{"pasta sauce", model.CategoryPantry},
	{"tomato sauce", model.CategoryPantry},
	{"canned", model.CategoryPantry},
	{"cereal", model.CategoryPantry},
	{"oatmeal", model.CategoryPantry},
	{"granola", model.CategoryPantry},
	{"rice", model.CategoryPantry},
	{"pasta", model.CategoryPantry},
	{"noodle", model.CategoryPantry},
	{"flour", model.CategoryPantry},
	{"sugar", model.CategoryPantry},
	{"spice", model.CategoryPantry},
	{"seasoning", model.CategoryPantry},
	{"sauce", model.CategoryPantry},
	{"broth", model.CategoryPantry},
	{"stock", model.CategoryPantry},
	{"soup", model.CategoryPantry},
	{"bean", model.CategoryPantry},
	{"lentil", model.CategoryPantry},

	// Frozen
	{"frozen", model.CategoryFrozen},
	{"ice cream", model.CategoryFrozen},
	{"popsicle", model.CategoryFrozen},

	// Beverages
	{"sparkling water", model.CategoryBeverages},
	{"orange juice", model.CategoryBeverages},
	{"apple juice", model.CategoryBeverages},
	{"coffee", model.CategoryBeverages},
	{"tea", model.CategoryBeverages},
	{"juice", model.CategoryBeverages},
	{"soda", model.CategoryBeverages},
	{"water", model.CategoryBeverages},
	{"beer", model.CategoryBeverages},
	{"wine", model.CategoryBeverages},
	{"drink", model.CategoryBeverages},

	// Snacks
	{"granola bar", model.CategorySnacks},
	{"trail mix", model.CategorySnacks},
	{"fruit snack", model.CategorySnacks},
	{"chip", model.CategorySnacks},
	{"cracker", model.CategorySnacks},
	{"cookie", model.CategorySnacks},
	{"popcorn", model.CategorySnacks},
	{"pretzel", model.CategorySnacks},
	{"candy", model.CategorySnacks},
	{"chocolate", model.CategorySnacks},
	{"snack", model.CategorySnacks},

	// Household
	{"paper towel", model.CategoryHousehold},
	{"toilet paper", model.CategoryHousehold},
	{"trash bag", model.CategoryHousehold},
	{"garbage bag", model.CategoryHousehold},
	{"dish soap", model.CategoryHousehold},
	{"laundry", model.CategoryHousehold},
	{"detergent", model.CategoryHousehold},
	{"cleaner", model.CategoryHousehold},
	{"cleaning", model.CategoryHousehold},
	{"sponge", model.CategoryHousehold},
	{"foil", model.CategoryHousehold},
	{"plastic wrap", model.CategoryHousehold},
	{"ziplock", model.CategoryHousehold},
	{"battery", model.CategoryHousehold},
	{"light bulb", model.CategoryHousehold},

	// Personal Care
	{"body wash", model.CategoryPersonalCare},
	{"shampoo", model.CategoryPersonalCare},
	{"conditioner", model.CategoryPersonalCare},
	{"toothpaste", model.CategoryPersonalCare},
	{"toothbrush", model.CategoryPersonalCare},
	{"deodorant", model.CategoryPersonalCare},
	{"lotion", model.CategoryPersonalCare},
	{"sunscreen", model.CategoryPersonalCare},
	{"razor", model.CategoryPersonalCare},
	{"tissue", model.CategoryPersonalCare},
	{"band-aid", model.CategoryPersonalCare},
}
