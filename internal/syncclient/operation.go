package syncclient

import (
	"slices"

	"github.com/dukerupert/shoplist/internal/grocery"
	"github.com/dukerupert/shoplist/internal/list"
	"github.com/dukerupert/shoplist/internal/model"
)

type OpKind string

const (
	OpCreate        OpKind = "create"
	OpUpdate        OpKind = "update"
	OpDelete        OpKind = "delete"
	OpToggle        OpKind = "toggle"
	OpDeleteChecked OpKind = "delete_checked"
	OpDeleteAll     OpKind = "delete_all"
)

// Operation is one local mutation. It carries the intended final state, e.g. the target
// active flag of a toggle, so replaying it later cannot flip a value twice.
type Operation struct {
	CorrelationID string            `json:"correlationId"`
	Kind          OpKind            `json:"kind"`
	ListID        int64             `json:"listId"`
	ItemID        string            `json:"itemId,omitempty"`
	Item          *grocery.Incoming `json:"item,omitempty"`
	Patch         *list.ItemPatch   `json:"patch,omitempty"`
	Active        bool              `json:"active,omitempty"`
}

// touches reports whether op affects the item with id.
func (op Operation) touches(id string) bool {
	switch op.Kind {
	case OpDeleteChecked, OpDeleteAll:
		return false
	}
	return op.ItemID == id
}

// applyLocal is the optimistic rendition of op on items. It mirrors what the server does
// closely enough for display; the server's answer replaces it once confirmed.
func applyLocal(items []model.Item, op Operation) []model.Item {
	idx := slices.IndexFunc(items, func(it model.Item) bool { return it.ID == op.ItemID })

	switch op.Kind {
	case OpCreate:
		if op.Item == nil {
			return items
		}
		in := *op.Item
		in.ID = op.ItemID
		out, _ := grocery.Merge(items, in)
		return out
	case OpUpdate:
		if idx < 0 || op.Patch == nil {
			return items
		}
		edited := items[idx]
		p := op.Patch
		if p.Name != nil {
			edited.Name = *p.Name
		}
		if p.Quantity != nil {
			edited.Quantity = *p.Quantity
		}
		if p.Unit != nil {
			edited.Unit = *p.Unit
		}
		if p.Category != nil {
			edited.Category = *p.Category
		}
		if p.Active != nil {
			edited.Active = *p.Active
		}
		out, _ := grocery.Upsert(items, idx, edited)
		return out
	case OpToggle:
		if idx < 0 {
			return items
		}
		out := slices.Clone(items)
		out[idx].Active = op.Active
		return out
	case OpDelete:
		if idx < 0 {
			return items
		}
		return slices.Delete(slices.Clone(items), idx, idx+1)
	case OpDeleteChecked:
		return slices.DeleteFunc(slices.Clone(items), func(it model.Item) bool { return !it.Active })
	case OpDeleteAll:
		return []model.Item{}
	}
	return items
}
