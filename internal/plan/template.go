package plan

import (
	"sort"
	"strconv"
	"strings"

	"alcyxob/program-ledger/internal/domain"
)

// DaysPerWeek is the number of day slots in a template week.
const DaysPerWeek = 7

var dayNames = map[string]int{
	"monday": 1, "mon": 1,
	"tuesday": 2, "tue": 2, "tues": 2,
	"wednesday": 3, "wed": 3,
	"thursday": 4, "thu": 4, "thurs": 4,
	"friday": 5, "fri": 5,
	"saturday": 6, "sat": 6,
	"sunday": 7, "sun": 7,
}

// ParseDay maps a stored day key to a day number 1..7. Day N is scheduled
// N-1 days after the start of its week.
func ParseDay(key string) (int, bool) {
	k := strings.ToLower(strings.TrimSpace(key))
	if n, ok := dayNames[k]; ok {
		return n, true
	}
	k = strings.TrimPrefix(k, "day")
	k = strings.TrimLeft(k, "_- ")
	n, err := strconv.Atoi(k)
	if err != nil || n < 1 || n > DaysPerWeek {
		return 0, false
	}
	return n, true
}

// Day is one template day with its items sorted by block, order, item id.
type Day struct {
	Number int
	Items  []PlanItem
}

// Week is one template week; Days is sorted by day number and never holds
// an empty day.
type Week struct {
	Number int
	Days   []Day
}

// Template is the normalised plan of an activity.
type Template struct {
	weeks     map[int]*Week
	weekCount int
}

// Compile normalises every day of every stored week. Weeks with a number
// below 1 and unknown day keys are skipped; the first document wins when
// two share a week number.
func Compile(weeks []domain.PlanWeek) *Template {
	t := &Template{weeks: make(map[int]*Week)}
	for _, pw := range weeks {
		if pw.WeekNumber < 1 {
			continue
		}
		if _, seen := t.weeks[pw.WeekNumber]; seen {
			continue
		}
		w := &Week{Number: pw.WeekNumber}
		byDay := make(map[int]map[ItemKey]PlanItem)
		for _, key := range sortedKeys(pw.Days) {
			n, ok := ParseDay(key)
			if !ok {
				continue
			}
			items := Normalize(pw.Days[key])
			if byDay[n] == nil {
				byDay[n] = make(map[ItemKey]PlanItem, len(items))
			}
			for k, it := range items {
				if _, dup := byDay[n][k]; !dup {
					byDay[n][k] = it
				}
			}
		}
		for n, items := range byDay {
			if len(items) == 0 {
				continue
			}
			w.Days = append(w.Days, Day{Number: n, Items: sortItems(items)})
		}
		sort.Slice(w.Days, func(i, j int) bool { return w.Days[i].Number < w.Days[j].Number })
		t.weeks[pw.WeekNumber] = w
		if pw.WeekNumber > t.weekCount {
			t.weekCount = pw.WeekNumber
		}
	}
	return t
}

// sortedKeys makes merging of aliased day keys ("1", "monday") deterministic.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortItems(items map[ItemKey]PlanItem) []PlanItem {
	out := make([]PlanItem, 0, len(items))
	for _, it := range items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Block != b.Block {
			return a.Block < b.Block
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ItemID < b.ItemID
	})
	return out
}

// WeekCount is the highest week number in the template, at least 1.
func (t *Template) WeekCount() int {
	if t == nil || t.weekCount < 1 {
		return 1
	}
	return t.weekCount
}

// HasWeeks reports whether any stored week was usable.
func (t *Template) HasWeeks() bool {
	return t != nil && len(t.weeks) > 0
}

// Week returns week n, or nil when the template has no such week.
func (t *Template) Week(n int) *Week {
	if t == nil {
		return nil
	}
	return t.weeks[n]
}

// DayItems returns the items of day d in week w.
func (t *Template) DayItems(w, d int) []PlanItem {
	week := t.Week(w)
	if week == nil {
		return nil
	}
	for _, day := range week.Days {
		if day.Number == d {
			return day.Items
		}
	}
	return nil
}

// ItemCount counts item references across all weeks and days.
func (t *Template) ItemCount() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, w := range t.weeks {
		for _, d := range w.Days {
			n += len(d.Items)
		}
	}
	return n
}

// ItemIDs returns the distinct item ids referenced by the template, sorted.
func (t *Template) ItemIDs() []int64 {
	if t == nil {
		return nil
	}
	seen := make(map[int64]bool)
	var ids []int64
	for _, w := range t.weeks {
		for _, d := range w.Days {
			for _, it := range d.Items {
				if !seen[it.ItemID] {
					seen[it.ItemID] = true
					ids = append(ids, it.ItemID)
				}
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
