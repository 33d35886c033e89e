package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dukerupert/shoplist/internal/grocery"
	"github.com/dukerupert/shoplist/internal/model"
)

// generator is the part of *genai.GenerativeModel the parser needs.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Gemini parses text and audio with a Gemini model that answers in JSON.
type Gemini struct {
	client *genai.Client
	model  generator
	logger *slog.Logger
}

// NewGemini creates a Gemini-backed parser. Call Close when done.
func NewGemini(ctx context.Context, apiKey, modelName string, logger *slog.Logger) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	m := client.GenerativeModel(modelName)
	m.ResponseMIMEType = "application/json"
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt())}}
	return &Gemini{client: client, model: m, logger: logger}, nil
}

func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func systemPrompt() string {
	var b strings.Builder
	b.WriteString("You extract shopping list items from user input, which may be text or speech in any language.\n")
	b.WriteString(`Answer with a JSON array only. Each element is {"name": string, "quantity": number or null, "unit": string, "category": number}.` + "\n")
	b.WriteString("Keep item names in the user's language. Use an empty unit when none is given.\nUnits:")
	for _, u := range model.Units() {
		fmt.Fprintf(&b, " %s", u.Symbol)
	}
	b.WriteString("\nCategories:")
	for _, c := range model.Categories() {
		fmt.Fprintf(&b, " %d=%s", c.ID, c.Name)
	}
	return b.String()
}

type geminiItem struct {
	Name     string          `json:"name"`
	Quantity model.Quantity  `json:"quantity"`
	Unit     json.RawMessage `json:"unit"`
	Category model.Category  `json:"category"`
}

func (g *Gemini) Parse(ctx context.Context, in Input) ([]grocery.Incoming, error) {
	var parts []genai.Part
	if len(in.Audio) > 0 {
		mime := in.AudioMIME
		if mime == "" {
			mime = "audio/ogg"
		}
		parts = append(parts, genai.Blob{MIMEType: mime, Data: in.Audio}, genai.Text("List the items mentioned in this recording."))
	} else {
		parts = append(parts, genai.Text(in.Text))
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no content generated")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("generated content is not text")
	}
	return g.decode(string(text))
}

func (g *Gemini) decode(text string) ([]grocery.Incoming, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var raw []geminiItem
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}

	items := make([]grocery.Incoming, 0, len(raw))
	for _, r := range raw {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}
		var unit model.Unit
		if len(r.Unit) > 0 {
			if err := json.Unmarshal(r.Unit, &unit); err != nil {
				g.logger.Debug("unknown unit from model", "unit", string(r.Unit), "item", name)
				unit = model.UnitPiece
			}
		}
		cat := r.Category
		if !cat.Valid() {
			cat = model.CategoryUnset
		}
		items = append(items, grocery.Incoming{Name: name, Quantity: r.Quantity, Unit: unit, Category: cat})
	}
	return items, nil
}
