package dataprocessing

import (
	"strings"
	"time"
	_ "time/tzdata" // contest exports are stamped in US Eastern time

	"github.com/araddon/dateparse"

	"contestlens/pkg/contracts/domain"
)

// DefaultTimezone is the zone naive contest timestamps are read in.
const DefaultTimezone = "America/New_York"

// LoadLocation resolves a zone name, falling back to UTC when it is unknown.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, err
	}
	return loc, nil
}

// ParseContestDate parses a contest timestamp permissively.
// Timestamps without an offset are interpreted in loc. Anything unparsable
// yields the invalid-date sentinel.
func ParseContestDate(raw string, loc *time.Location) domain.ContestDate {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.ContestDate{}
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return domain.ContestDate{}
	}
	return domain.NewContestDate(t)
}
