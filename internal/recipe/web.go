package recipe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dukerupert/shoplist/internal/model"
	"github.com/dukerupert/shoplist/internal/parser"
)

// Saver stores recipes fetched from the web so later lookups hit the catalog.
type Saver interface {
	Save(ctx context.Context, r *model.Recipe) error
}

// WebProvider resolves http(s) recipe ids by reading the schema.org Recipe JSON-LD embedded
// in the page.
type WebProvider struct {
	client *http.Client
	cache  Saver
	logger *slog.Logger
}

// NewWebProvider creates a web provider. cache may be nil.
func NewWebProvider(client *http.Client, cache Saver, logger *slog.Logger) *WebProvider {
	return &WebProvider{client: client, cache: cache, logger: logger}
}

func (p *WebProvider) Name() string { return "web" }

func (p *WebProvider) Lookup(ctx context.Context, id string) (*model.Recipe, error) {
	u, err := url.Parse(id)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, id, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch recipe page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch recipe page: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse recipe page: %w", err)
	}

	r := extract(doc)
	if r == nil {
		return nil, nil
	}
	r.ID = id
	r.Source = p.Name()

	if p.cache != nil {
		if err := p.cache.Save(ctx, r); err != nil {
			p.logger.Warn("cache web recipe", "recipe_id", id, "error", err)
		}
	}
	return r, nil
}

type ldRecipe struct {
	Type        json.RawMessage   `json:"@type"`
	Graph       []json.RawMessage `json:"@graph"`
	Name        string            `json:"name"`
	Image       json.RawMessage   `json:"image"`
	Yield       json.RawMessage   `json:"recipeYield"`
	Ingredients []string          `json:"recipeIngredient"`
}

func extract(doc *goquery.Document) *model.Recipe {
	var found *model.Recipe
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found = findRecipe([]byte(s.Text()))
		return found == nil
	})
	return found
}

func findRecipe(data []byte) *model.Recipe {
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 {
		return nil
	}
	if data[0] == '[' {
		var nodes []json.RawMessage
		if err := json.Unmarshal(data, &nodes); err != nil {
			return nil
		}
		for _, n := range nodes {
			if r := findRecipe(n); r != nil {
				return r
			}
		}
		return nil
	}

	var node ldRecipe
	if err := json.Unmarshal(data, &node); err != nil {
		return nil
	}
	if isRecipeType(node.Type) {
		return toRecipe(node)
	}
	for _, n := range node.Graph {
		if r := findRecipe(n); r != nil {
			return r
		}
	}
	return nil
}

func isRecipeType(raw json.RawMessage) bool {
	var single string
	if json.Unmarshal(raw, &single) == nil {
		return single == "Recipe"
	}
	var many []string
	if json.Unmarshal(raw, &many) == nil {
		for _, t := range many {
			if t == "Recipe" {
				return true
			}
		}
	}
	return false
}

func toRecipe(n ldRecipe) *model.Recipe {
	r := &model.Recipe{
		Title:        strings.TrimSpace(n.Name),
		Image:        imageURL(n.Image),
		BaseServings: yield(n.Yield),
	}
	for _, line := range n.Ingredients {
		it, ok := parser.ParseLine(line)
		if !ok {
			continue
		}
		r.Ingredients = append(r.Ingredients, model.Ingredient{
			Name:     it.Name,
			Quantity: it.Quantity,
			Unit:     it.Unit,
		})
	}
	return r
}

func imageURL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj struct {
		URL string `json:"url"`
	}
	if json.Unmarshal(raw, &obj) == nil && obj.URL != "" {
		return obj.URL
	}
	var list []json.RawMessage
	if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
		return imageURL(list[0])
	}
	return ""
}

var leadingInt = regexp.MustCompile(`\d+`)

// yield reads recipeYield, which sites publish as a number, a string like "4 servings" or an
// array of either. Unknown yields count as one serving.
func yield(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 1
	}
	var n float64
	if json.Unmarshal(raw, &n) == nil && n >= 1 {
		return int(n)
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if m := leadingInt.FindString(s); m != "" {
			if v, err := strconv.Atoi(m); err == nil && v > 0 {
				return v
			}
		}
		return 1
	}
	var list []json.RawMessage
	if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
		return yield(list[0])
	}
	return 1
}
