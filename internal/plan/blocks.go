package plan

import (
	"fmt"
	"strings"

	"alcyxob/program-ledger/internal/domain"
)

// BlockNames reads the labels stored under a day payload's "blockNames"
// entry, either a list (block 1 first) or a map of block number to label.
func BlockNames(raw any) map[int]string {
	names := make(map[int]string)
	m, ok := raw.(map[string]any)
	if !ok {
		return names
	}
	var stored any
	for k, v := range m {
		if strings.EqualFold(k, "blockNames") {
			stored = v
			break
		}
	}
	switch v := stored.(type) {
	case []any:
		for i, label := range v {
			if s, ok := label.(string); ok && strings.TrimSpace(s) != "" {
				names[i+1] = strings.TrimSpace(s)
			}
		}
	case map[string]any:
		for k, label := range v {
			b, ok := toInt64(k)
			s, isStr := label.(string)
			if ok && b >= 0 && isStr && strings.TrimSpace(s) != "" {
				names[int(b)] = strings.TrimSpace(s)
			}
		}
	}
	return names
}

// DefaultBlockName is the label for a block without a stored name.
func DefaultBlockName(block int) string {
	return fmt.Sprintf("Block %d", block)
}

// DayBlockNames resolves the label of every block used on day of week.
// Stored names win; blocks that have items but no stored name get
// DefaultBlockName. Stored names for blocks without items are kept.
func DayBlockNames(week domain.PlanWeek, day int) map[int]string {
	names := make(map[int]string)
	for _, key := range sortedKeys(week.Days) {
		n, ok := ParseDay(key)
		if !ok || n != day {
			continue
		}
		payload := week.Days[key]
		for b, label := range BlockNames(payload) {
			if _, set := names[b]; !set {
				names[b] = label
			}
		}
		for _, item := range Normalize(payload) {
			if _, set := names[item.Block]; !set {
				names[item.Block] = DefaultBlockName(item.Block)
			}
		}
	}
	return names
}
