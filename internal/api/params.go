package api

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used in query strings and events.
const DateLayout = "2006-01-02"

// parseDate accepts YYYY-MM-DD or RFC3339. A bare date is taken as UTC midnight.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}

// optionalDate parses s when it is not empty.
func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
