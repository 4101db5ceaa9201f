// Package plan turns stored plan templates into a canonical in-memory form.
//
// Day payloads have been written in several shapes over time:
//
//	{"exercises": [{"id": 12, "block": 1, "order": 1}, ...], "blockNames": [...]}
//	{"items": {"12_1_1": {"sets": 3}, ...}}
//	["12_1_1", {"id": 14, "block": 2, "order": 1}]
//	{"12_1_1": {"reps": 10}, "14_2_1": null, "blockCount": 2}
//
// Each shape has its own normaliser, chosen by inspecting the value. Anything
// that cannot be read is dropped; nothing here returns an error.
package plan

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

type shape int

const (
	shapeUnknown     shape = iota
	shapeWrappedList       // object holding an array of descriptors
	shapeWrappedMap        // object holding a map of descriptors
	shapeFlatList          // bare array of descriptors or composite keys
	shapeLegacyMap         // bare map keyed by composite keys
)

// containerFields are the field names that hold a day's items.
var containerFields = []string{"exercises", "items", "meals", "dishes"}

var reservedKeys = map[string]bool{
	"blockcount": true,
	"blocknames": true,
	"blocks":     true,
	"meta":       true,
	"version":    true,
}

// IsReservedKey reports whether k names day metadata rather than an item.
func IsReservedKey(k string) bool {
	k = strings.ToLower(strings.TrimSpace(k))
	return strings.HasPrefix(k, "_") || reservedKeys[k]
}

// Normalize converts a decoded day payload into canonical items keyed by
// "<itemId>_<block>_<order>". Unrecognised payloads yield an empty map.
func Normalize(raw any) map[ItemKey]PlanItem {
	out := make(map[ItemKey]PlanItem)
	kind, payload := detect(raw)
	switch kind {
	case shapeWrappedList:
		normalizeWrappedList(out, payload.([]any))
	case shapeWrappedMap:
		normalizeWrappedMap(out, payload.(map[string]any))
	case shapeFlatList:
		normalizeFlatList(out, payload.([]any))
	case shapeLegacyMap:
		normalizeLegacyMap(out, payload.(map[string]any))
	}
	return out
}

// NormalizeJSON decodes data and normalises it. Invalid JSON yields an empty map.
func NormalizeJSON(data []byte) map[ItemKey]PlanItem {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return map[ItemKey]PlanItem{}
	}
	return Normalize(raw)
}

func detect(raw any) (shape, any) {
	switch v := raw.(type) {
	case []any:
		return shapeFlatList, v
	case map[string]any:
		// An empty container does not hide a later, populated one.
		for _, name := range containerFields {
			switch c := v[name].(type) {
			case []any:
				if len(c) > 0 {
					return shapeWrappedList, c
				}
			case map[string]any:
				if len(c) > 0 {
					return shapeWrappedMap, c
				}
			}
		}
		return shapeLegacyMap, v
	}
	return shapeUnknown, nil
}

// normalizeWrappedList accepts the same entries as a bare array.
func normalizeWrappedList(out map[ItemKey]PlanItem, list []any) {
	normalizeFlatList(out, list)
}

func normalizeFlatList(out map[ItemKey]PlanItem, list []any) {
	for i, entry := range list {
		switch v := entry.(type) {
		case map[string]any:
			if item, ok := fromDescriptor(v, keyParts{}, i+1); ok {
				add(out, item)
			}
		case string:
			if id, block, order, ok := ParseItemKey(v); ok {
				add(out, PlanItem{ItemID: id, Block: block, Order: order})
			}
		}
	}
}

func normalizeWrappedMap(out map[ItemKey]PlanItem, m map[string]any) {
	fromKeyedMap(out, m)
}

func normalizeLegacyMap(out map[ItemKey]PlanItem, m map[string]any) {
	fromKeyedMap(out, m)
}

// fromKeyedMap reads maps whose keys are (usually) composite item keys and
// whose values are descriptors, true or null.
func fromKeyedMap(out map[ItemKey]PlanItem, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		if !IsReservedKey(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for i, k := range keys {
		var parts keyParts
		if id, block, order, ok := ParseItemKey(k); ok {
			parts = keyParts{itemID: id, block: block, order: order, set: true}
		}
		switch v := m[k].(type) {
		case map[string]any:
			if item, ok := fromDescriptor(v, parts, i+1); ok {
				add(out, item)
			}
		case nil:
			if parts.set {
				add(out, PlanItem{ItemID: parts.itemID, Block: parts.block, Order: parts.order})
			}
		case bool:
			if v && parts.set {
				add(out, PlanItem{ItemID: parts.itemID, Block: parts.block, Order: parts.order})
			}
		}
	}
}

type keyParts struct {
	itemID int64
	block  int
	order  int
	set    bool
}

var idFields = []string{"id", "itemId", "exerciseId", "mealId", "item_id", "exercise_id", "meal_id"}

// fromDescriptor reads one item descriptor. Values missing from the
// descriptor fall back to the composite key, then to block 1 and the
// entry's position.
func fromDescriptor(m map[string]any, parts keyParts, position int) (PlanItem, bool) {
	item := PlanItem{ItemID: parts.itemID, Block: parts.block, Order: parts.order}
	if !parts.set {
		item.Block = 1
		item.Order = position
	}

	for _, f := range idFields {
		v, present := m[f]
		if !present {
			continue
		}
		id, ok := toInt64(v)
		if !ok {
			return PlanItem{}, false
		}
		item.ItemID = id
		break
	}
	if item.ItemID <= 0 {
		return PlanItem{}, false
	}

	if v, present := m["block"]; present {
		b, ok := toInt64(v)
		if !ok || b < 0 {
			return PlanItem{}, false
		}
		item.Block = int(b)
	}
	for _, f := range []string{"order", "position"} {
		v, present := m[f]
		if !present {
			continue
		}
		o, ok := toInt64(v)
		if !ok || o < 0 {
			return PlanItem{}, false
		}
		item.Order = int(o)
		break
	}

	if s, ok := m["category"].(string); ok {
		item.Category = strings.ToLower(strings.TrimSpace(s))
	}
	if n, ok := toInt64(m["sets"]); ok {
		item.Sets = int(n)
	}
	if n, ok := toInt64(m["reps"]); ok {
		item.Reps = int(n)
	}
	switch r := m["rest"].(type) {
	case string:
		item.Rest = r
	case float64:
		item.Rest = strconv.FormatFloat(r, 'f', -1, 64)
	}
	if s, ok := m["notes"].(string); ok {
		item.Notes = s
	}
	return item, true
}

// add keeps the first item seen for a key.
func add(out map[ItemKey]PlanItem, item PlanItem) {
	k := item.Key()
	if _, exists := out[k]; exists {
		return
	}
	out[k] = item
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	}
	return 0, false
}
