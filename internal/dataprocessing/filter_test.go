package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"contestlens/pkg/contracts/domain"
)

func filterFixture(now time.Time) []domain.Record {
	recent := rec("NFL", "10", "0", "5")
	recent.ContestDate = domain.NewContestDate(now.AddDate(0, 0, -10))
	recent.Fields["Game_Type"] = "Classic"

	old := rec("NFL", "0", "0", "5")
	old.ContestDate = domain.NewContestDate(now.AddDate(0, 0, -40))
	old.Fields["Game_Type"] = "Showdown Captain"

	nba := rec("NBA", "2", "0", "1")
	nba.ContestDate = domain.NewContestDate(now.AddDate(0, 0, -3))
	nba.Fields["Game_Type"] = "Classic"

	undated := rec("NFL", "0", "0", "1")
	undated.Fields["Game_Type"] = "Tiers"

	return []domain.Record{recent, old, nba, undated}
}

func ids(rows []domain.Row) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	records := filterFixture(now)

	tests := []struct {
		name     string
		criteria domain.FilterCriteria
		want     []int
	}{
		{name: "reset returns everything", criteria: domain.FilterCriteria{}, want: []int{0, 1, 2, 3}},
		{name: "sport", criteria: domain.FilterCriteria{Sport: "NFL"}, want: []int{0, 1, 3}},
		{name: "sport is case sensitive", criteria: domain.FilterCriteria{Sport: "nfl"}, want: []int{}},
		{name: "last 30 days", criteria: domain.FilterCriteria{DateRange: domain.Last30Days}, want: []int{0, 2}},
		{name: "last 90 days", criteria: domain.FilterCriteria{DateRange: domain.Last90Days}, want: []int{0, 1, 2}},
		{name: "search any field", criteria: domain.FilterCriteria{Search: "showdown"}, want: []int{1}},
		{name: "search amounts", criteria: domain.FilterCriteria{Search: "10.00"}, want: []int{0}},
		{name: "search invalid date text", criteria: domain.FilterCriteria{Search: "invalid date"}, want: []int{3}},
		{name: "whitespace search is a token", criteria: domain.FilterCriteria{Search: "   "}, want: []int{}},
		{name: "trailing space is not trimmed", criteria: domain.FilterCriteria{Search: "classic "}, want: []int{}},
		{name: "inner space matches", criteria: domain.FilterCriteria{Search: "showdown "}, want: []int{1}},
		{
			name:     "conjunction",
			criteria: domain.FilterCriteria{Sport: "NFL", Search: "classic"},
			want:     []int{0},
		},
		{
			name:     "conjunction with date",
			criteria: domain.FilterCriteria{Sport: "NFL", DateRange: domain.Last30Days, Search: "classic"},
			want:     []int{0},
		},
		{
			name:     "empty result",
			criteria: domain.FilterCriteria{Sport: "NBA", Search: "showdown"},
			want:     []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := Filter(records, tt.criteria, now)
			assert.NotNil(t, rows)
			assert.Equal(t, tt.want, ids(rows))
		})
	}
}

func TestFilterKeepsRecords(t *testing.T) {
	now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	records := filterFixture(now)

	rows := Filter(records, domain.FilterCriteria{}, now)
	for i, row := range rows {
		assert.Equal(t, records[i], row.Record)
	}
}
