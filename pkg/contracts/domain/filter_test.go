package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    DateRange
		wantErr bool
	}{
		{name: "empty is all time", input: "", want: AllTime},
		{name: "label", input: "Last 90 Days", want: Last90Days},
		{name: "label any case", input: "last 30 days", want: Last30Days},
		{name: "short key", input: "365d", want: Last365Days},
		{name: "all key", input: "ALL", want: AllTime},
		{name: "padded", input: "  180d ", want: Last180Days},
		{name: "unknown", input: "last week", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateRange(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateRangeLabels(t *testing.T) {
	labels := make([]string, 0, 5)
	for _, r := range DateRanges() {
		labels = append(labels, r.String())
	}
	assert.Equal(t, []string{"All Time", "Last 30 Days", "Last 90 Days", "Last 180 Days", "Last 365 Days"}, labels)
	assert.Equal(t, "30d", Last30Days.Key())
	assert.Equal(t, "all", AllTime.Key())
}

func TestDateRangeCutoff(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

	_, ok := AllTime.Cutoff(now)
	assert.False(t, ok)

	cutoff, ok := Last30Days.Cutoff(now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), cutoff)
}

func TestFilterCriteriaJSON(t *testing.T) {
	var c FilterCriteria
	require.NoError(t, json.Unmarshal([]byte(`{"sport":"NBA","date_range":"Last 90 Days"}`), &c))
	assert.Equal(t, FilterCriteria{Sport: "NBA", DateRange: Last90Days}, c)
	assert.False(t, c.IsZero())

	assert.True(t, FilterCriteria{}.IsZero())
	assert.False(t, FilterCriteria{Search: "   "}.IsZero())
}
