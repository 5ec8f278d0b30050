package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContestDate(t *testing.T) {
	ny, err := LoadLocation(DefaultTimezone)
	require.NoError(t, err)

	tests := []struct {
		name      string
		raw       string
		wantValid bool
		wantUTC   time.Time
	}{
		{
			name:      "iso without offset read in zone",
			raw:       "2024-09-08 13:00:00",
			wantValid: true,
			wantUTC:   time.Date(2024, 9, 8, 17, 0, 0, 0, time.UTC),
		},
		{
			name:      "us slash format",
			raw:       "9/8/2024 1:00 PM",
			wantValid: true,
			wantUTC:   time.Date(2024, 9, 8, 17, 0, 0, 0, time.UTC),
		},
		{
			name:      "explicit offset kept",
			raw:       "2024-09-08T13:00:00Z",
			wantValid: true,
			wantUTC:   time.Date(2024, 9, 8, 13, 0, 0, 0, time.UTC),
		},
		{name: "empty", raw: ""},
		{name: "garbage", raw: "TBD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseContestDate(tt.raw, ny)
			assert.Equal(t, tt.wantValid, got.Valid)
			if tt.wantValid {
				assert.True(t, tt.wantUTC.Equal(got.Time), "got %s", got.Time)
			}
		})
	}
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTimezone, loc.String())

	loc, err = LoadLocation("Mars/Olympus")
	assert.Error(t, err)
	assert.Equal(t, time.UTC, loc)
}
