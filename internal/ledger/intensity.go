package ledger

import "strings"

// Default intensity labels.
const (
	IntensityBeginner = "beginner"
	IntensityModerate = "moderate"
	IntensityRest     = "rest"
)

// IntensityTable maps an item category to the intensity label a freshly
// generated execution starts with.
type IntensityTable struct {
	Defaults map[string]string
	Fallback string
}

// DefaultIntensityTable is used when configuration does not provide one.
func DefaultIntensityTable() IntensityTable {
	return IntensityTable{
		Defaults: map[string]string{
			"strength": IntensityBeginner,
			"cardio":   IntensityModerate,
		},
		Fallback: IntensityRest,
	}
}

// NewIntensityTable builds a table from configuration. Category names are
// matched case-insensitively; an empty fallback becomes "rest".
func NewIntensityTable(defaults map[string]string, fallback string) IntensityTable {
	t := IntensityTable{Defaults: make(map[string]string, len(defaults)), Fallback: strings.TrimSpace(fallback)}
	for category, label := range defaults {
		category = strings.ToLower(strings.TrimSpace(category))
		label = strings.TrimSpace(label)
		if category == "" || label == "" {
			continue
		}
		t.Defaults[category] = label
	}
	if t.Fallback == "" {
		t.Fallback = IntensityRest
	}
	return t
}

// For returns the label for category.
func (t IntensityTable) For(category string) string {
	if label, ok := t.Defaults[strings.ToLower(strings.TrimSpace(category))]; ok {
		return label
	}
	if t.Fallback == "" {
		return IntensityRest
	}
	return t.Fallback
}
