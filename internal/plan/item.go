package plan

import (
	"fmt"
	"strconv"
	"strings"
)

// ItemKey identifies an item reference within one day: "<itemId>_<block>_<order>".
type ItemKey string

// NewItemKey builds the canonical key for an item reference.
func NewItemKey(itemID int64, block, order int) ItemKey {
	return ItemKey(fmt.Sprintf("%d_%d_%d", itemID, block, order))
}

// ParseItemKey splits a composite legacy key. Keys with a non-positive item
// id, negative block/order or a wrong number of parts are rejected.
func ParseItemKey(s string) (itemID int64, block, order int, ok bool) {
	parts := strings.Split(strings.TrimSpace(s), "_")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, 0, 0, false
	}
	b, err := strconv.Atoi(parts[1])
	if err != nil || b < 0 {
		return 0, 0, 0, false
	}
	o, err := strconv.Atoi(parts[2])
	if err != nil || o < 0 {
		return 0, 0, 0, false
	}
	return id, b, o, true
}

// PlanItem is a canonical item reference inside a template day.
type PlanItem struct {
	ItemID   int64  `json:"itemId"`
	Block    int    `json:"block"`
	Order    int    `json:"order"`
	Category string `json:"category,omitempty"`
	Sets     int    `json:"sets,omitempty"`
	Reps     int    `json:"reps,omitempty"`
	Rest     string `json:"rest,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Key returns the item's canonical key.
func (p PlanItem) Key() ItemKey {
	return NewItemKey(p.ItemID, p.Block, p.Order)
}
