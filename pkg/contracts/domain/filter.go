package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateRange is a relative contest-date window resolved against "now".
type DateRange int

const (
	AllTime DateRange = iota
	Last30Days
	Last90Days
	Last180Days
	Last365Days
)

var dateRangeDays = map[DateRange]int{
	Last30Days:  30,
	Last90Days:  90,
	Last180Days: 180,
	Last365Days: 365,
}

// DateRanges lists every range in selector order.
func DateRanges() []DateRange {
	return []DateRange{AllTime, Last30Days, Last90Days, Last180Days, Last365Days}
}

// Days returns the window length, 0 for AllTime.
func (r DateRange) Days() int {
	return dateRangeDays[r]
}

// String returns the selector label.
func (r DateRange) String() string {
	if r == AllTime {
		return "All Time"
	}
	if d, ok := dateRangeDays[r]; ok {
		return fmt.Sprintf("Last %d Days", d)
	}
	return fmt.Sprintf("DateRange(%d)", int(r))
}

// Key returns the short query form, e.g. "30d".
func (r DateRange) Key() string {
	if d, ok := dateRangeDays[r]; ok {
		return fmt.Sprintf("%dd", d)
	}
	return "all"
}

// Cutoff returns the lower bound for the range. ok is false for AllTime.
func (r DateRange) Cutoff(now time.Time) (cutoff time.Time, ok bool) {
	d, ok := dateRangeDays[r]
	if !ok {
		return time.Time{}, false
	}
	return now.AddDate(0, 0, -d), true
}

// MarshalText implements encoding.TextMarshaler using the selector label.
func (r DateRange) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *DateRange) UnmarshalText(text []byte) error {
	parsed, err := ParseDateRange(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseDateRange accepts a selector label ("Last 90 Days") or a short key ("90d").
// Empty input means AllTime.
func ParseDateRange(s string) (DateRange, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	if norm == "" {
		return AllTime, nil
	}
	for _, r := range DateRanges() {
		if norm == strings.ToLower(r.String()) || norm == r.Key() {
			return r, nil
		}
	}
	return AllTime, fmt.Errorf("unknown date range %q", s)
}

// FilterCriteria is the active set of user-selected predicates.
type FilterCriteria struct {
	Sport     string    `json:"sport,omitempty"`
	DateRange DateRange `json:"date_range"`
	Search    string    `json:"search,omitempty"`
}

// IsZero reports whether no predicate is active.
func (c FilterCriteria) IsZero() bool {
	return c.Sport == "" && c.DateRange == AllTime && c.Search == ""
}
