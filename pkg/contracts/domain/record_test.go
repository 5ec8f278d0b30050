package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() Record {
	return Record{
		Sport:             "NFL",
		WinningsNonTicket: decimal.RequireFromString("12.5"),
		WinningsTicket:    decimal.Zero,
		EntryFee:          decimal.RequireFromString("3"),
		ContestDate:       NewContestDate(time.Date(2024, 9, 8, 13, 0, 0, 0, time.UTC)),
		Fields: map[string]string{
			"Game_Type": "Classic",
			"Entry_Key": "4412",
		},
	}
}

func TestRecordValue(t *testing.T) {
	r := sampleRecord()

	tests := []struct {
		column string
		want   string
	}{
		{FieldSport, "NFL"},
		{FieldWinningsNonTicket, "12.50"},
		{FieldWinningsTicket, "0.00"},
		{FieldEntryFee, "3.00"},
		{FieldContestDate, "2024-09-08T13:00:00"},
		{"Game_Type", "Classic"},
		{"Missing", ""},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Value(tt.column))
		})
	}
}

func TestRecordTexts(t *testing.T) {
	r := sampleRecord()
	assert.Equal(t,
		[]string{"NFL", "12.50", "0.00", "3.00", "2024-09-08T13:00:00", "4412", "Classic"},
		r.Texts())

	r.ContestDate = ContestDate{}
	assert.Contains(t, r.Texts(), InvalidDateText)
}

func TestRecordAmountWon(t *testing.T) {
	r := sampleRecord()
	r.WinningsTicket = decimal.RequireFromString("2.25")
	assert.True(t, decimal.RequireFromString("14.75").Equal(r.AmountWon()))
}

func TestRecordMarshalJSON(t *testing.T) {
	data, err := json.Marshal(sampleRecord())
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "NFL", got[FieldSport])
	assert.Equal(t, 12.5, got[FieldWinningsNonTicket])
	assert.Equal(t, 3.0, got[FieldEntryFee])
	assert.Equal(t, "2024-09-08T13:00:00", got[FieldContestDate])
	assert.Equal(t, "Classic", got["Game_Type"])

	invalid := sampleRecord()
	invalid.ContestDate = ContestDate{}
	data, err = json.Marshal(invalid)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Nil(t, got[FieldContestDate])
}

func TestContestDateAfter(t *testing.T) {
	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, NewContestDate(cutoff.Add(time.Second)).After(cutoff))
	assert.False(t, NewContestDate(cutoff).After(cutoff))
	assert.False(t, ContestDate{}.After(cutoff))
	assert.False(t, ContestDate{Time: cutoff.Add(time.Hour)}.After(cutoff), "invalid dates never pass")
}
