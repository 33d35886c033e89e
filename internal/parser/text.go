package parser

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/dukerupert/shoplist/internal/grocery"
	"github.com/dukerupert/shoplist/internal/model"
)

// Text is a rule-based parser for lines like "2 l milk", "500g flour", "1 1/2 cups sugar" or
// "eggs x6". Entries are separated by newlines, semicolons or commas.
type Text struct{}

func (Text) Parse(_ context.Context, in Input) ([]grocery.Incoming, error) {
	var items []grocery.Incoming
	for _, entry := range splitEntries(in.Text) {
		if it, ok := ParseLine(entry); ok {
			items = append(items, it)
		}
	}
	return items, nil
}

var (
	bulletRe   = regexp.MustCompile(`^(?:[-*•·]|\[[ xX]?\]|\d+[.)](?:\s|$))\s*`)
	attachedRe = regexp.MustCompile(`^(\d+(?:[.,]\d+)?|\d+/\d+)([\p{L}]+)\.?$`)
	timesRe    = regexp.MustCompile(`^(?:[xX](\d+(?:[.,]\d+)?)|(\d+(?:[.,]\d+)?)[xX])$`)
)

var vulgarFractions = map[rune]float64{
	'½': 0.5, '⅓': 1.0 / 3, '⅔': 2.0 / 3, '¼': 0.25, '¾': 0.75,
	'⅕': 0.2, '⅛': 0.125,
}

// ParseLine parses a single entry. It returns false when no item name remains.
func ParseLine(line string) (grocery.Incoming, bool) {
	line = bulletRe.ReplaceAllString(strings.TrimSpace(line), "")
	tokens := strings.Fields(line)
	var it grocery.Incoming

	qty, unit, rest := leading(tokens)
	if !qty.Valid {
		qty, unit, rest = trailing(tokens)
	}
	it.Quantity = qty
	it.Unit = unit
	it.Name = strings.TrimSpace(strings.Join(rest, " "))
	if it.Name == "" {
		return grocery.Incoming{}, false
	}
	return it, true
}

func leading(tokens []string) (model.Quantity, model.Unit, []string) {
	if len(tokens) == 0 {
		return model.Quantity{}, model.UnitPiece, tokens
	}

	if m := attachedRe.FindStringSubmatch(tokens[0]); m != nil {
		if u, ok := model.ParseUnit(m[2]); ok {
			if n, ok := parseNumber(m[1]); ok {
				return model.Qty(n), u, skipOf(tokens[1:])
			}
		}
	}

	if m := timesRe.FindStringSubmatch(tokens[0]); m != nil && len(tokens) > 1 {
		n, _ := parseNumber(m[1] + m[2])
		return model.Qty(n), model.UnitPiece, tokens[1:]
	}

	n, ok := parseNumber(tokens[0])
	if !ok {
		return model.Quantity{}, model.UnitPiece, tokens
	}
	rest := tokens[1:]
	if len(rest) > 0 {
		if frac, ok := parseNumber(rest[0]); ok && frac < 1 {
			n += frac
			rest = rest[1:]
		}
	}
	if len(rest) > 1 {
		if u, ok := model.ParseUnit(rest[0]); ok {
			return model.Qty(n), u, skipOf(rest[1:])
		}
	}
	return model.Qty(n), model.UnitPiece, rest
}

func trailing(tokens []string) (model.Quantity, model.Unit, []string) {
	if len(tokens) < 2 {
		return model.Quantity{}, model.UnitPiece, tokens
	}
	last := tokens[len(tokens)-1]
	head := tokens[:len(tokens)-1]

	if m := attachedRe.FindStringSubmatch(last); m != nil {
		if u, ok := model.ParseUnit(m[2]); ok {
			if n, ok := parseNumber(m[1]); ok {
				return model.Qty(n), u, head
			}
		}
	}
	if m := timesRe.FindStringSubmatch(last); m != nil {
		n, _ := parseNumber(m[1] + m[2])
		return model.Qty(n), model.UnitPiece, head
	}
	return model.Quantity{}, model.UnitPiece, tokens
}

func skipOf(tokens []string) []string {
	if len(tokens) > 1 && strings.EqualFold(tokens[0], "of") {
		return tokens[1:]
	}
	return tokens
}

// parseNumber understands "2", "1.5", "1,5", "1/2", "½" and "1½".
func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	runes := []rune(s)
	if f, ok := vulgarFractions[runes[len(runes)-1]]; ok {
		if len(runes) == 1 {
			return f, true
		}
		whole, err := strconv.Atoi(string(runes[:len(runes)-1]))
		if err != nil {
			return 0, false
		}
		return float64(whole) + f, true
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		a, err1 := strconv.Atoi(num)
		b, err2 := strconv.Atoi(den)
		if err1 != nil || err2 != nil || b == 0 {
			return 0, false
		}
		return float64(a) / float64(b), true
	}
	if !unicode.IsDigit(runes[0]) {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// splitEntries splits on newlines, semicolons and commas, except commas used as a decimal mark.
func splitEntries(text string) []string {
	var out []string
	var cur strings.Builder
	runes := []rune(text)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	for i, r := range runes {
		switch r {
		case '\n', '\r', ';':
			flush()
			continue
		case ',':
			if i > 0 && i+1 < len(runes) && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]) {
				break
			}
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	flush()
	return out
}
