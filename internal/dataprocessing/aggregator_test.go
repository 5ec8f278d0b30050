package dataprocessing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contestlens/pkg/contracts/domain"
)

func rec(sport, nonTicket, ticket, fee string) domain.Record {
	amount := func(s string) decimal.Decimal {
		d, _ := ParseAmount(s)
		return d
	}
	return domain.Record{
		Sport:             sport,
		WinningsNonTicket: amount(nonTicket),
		WinningsTicket:    amount(ticket),
		EntryFee:          amount(fee),
		Fields:            map[string]string{},
	}
}

func TestAggregate(t *testing.T) {
	t.Run("won and total without entry fees", func(t *testing.T) {
		records := []domain.Record{
			rec("NFL", "$10", "$5", ""),
			rec("NFL", "$0", "abc", ""),
		}

		buckets := Aggregate(records)
		require.Len(t, buckets, 1)
		assert.Equal(t, domain.AggregateBucket{
			Sport:         "NFL",
			Entries:       2,
			TotalWinnings: 15.00,
			AmountSpent:   0,
			AmountWon:     15.00,
		}, buckets[0])
	})

	t.Run("first seen order", func(t *testing.T) {
		records := []domain.Record{
			rec("NBA", "1", "0", "2"),
			rec("NFL", "0", "0", "1"),
			rec("NBA", "3", "0", "1"),
			rec("MLB", "0", "0", "0"),
		}

		buckets := Aggregate(records)
		require.Len(t, buckets, 3)
		assert.Equal(t, []string{"NBA", "NFL", "MLB"}, []string{buckets[0].Sport, buckets[1].Sport, buckets[2].Sport})
		assert.Equal(t, 1.00, buckets[0].TotalWinnings)
		assert.Equal(t, 3.00, buckets[0].AmountSpent)
		assert.Equal(t, 4.00, buckets[0].AmountWon)
		assert.Equal(t, -1.00, buckets[1].TotalWinnings)
	})

	t.Run("exact sums then rounding", func(t *testing.T) {
		records := make([]domain.Record, 0, 10)
		for i := 0; i < 10; i++ {
			records = append(records, rec("PGA", "0.1", "0", "0.005"))
		}

		buckets := Aggregate(records)
		require.Len(t, buckets, 1)
		assert.Equal(t, 1.00, buckets[0].AmountWon)
		assert.Equal(t, 0.05, buckets[0].AmountSpent)
		assert.Equal(t, 0.95, buckets[0].TotalWinnings)
	})

	t.Run("half away from zero", func(t *testing.T) {
		buckets := Aggregate([]domain.Record{rec("NHL", "0", "0", "0.125")})
		assert.Equal(t, 0.13, buckets[0].AmountSpent)
		assert.Equal(t, -0.13, buckets[0].TotalWinnings)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Aggregate(nil))
	})

	t.Run("idempotent", func(t *testing.T) {
		records := []domain.Record{rec("NFL", "1", "2", "3"), rec("NBA", "4", "5", "6")}
		assert.Equal(t, Aggregate(records), Aggregate(records))
	})
}

func TestSports(t *testing.T) {
	records := []domain.Record{rec("NBA", "", "", ""), rec("NFL", "", "", ""), rec("NBA", "", "", "")}
	assert.Equal(t, []string{"NBA", "NFL"}, Sports(records))
	assert.Empty(t, Sports(nil))
}

func TestSummarize(t *testing.T) {
	early := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	late := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	a := rec("NFL", "30", "0", "10")
	a.ContestDate = domain.NewContestDate(late)
	b := rec("NBA", "0", "5", "10")
	b.ContestDate = domain.NewContestDate(early)
	c := rec("NBA", "0", "0", "5")

	summary := Summarize([]domain.Record{a, b, c})
	assert.Equal(t, 3, summary.Entries)
	assert.Equal(t, 2, summary.Sports)
	assert.Equal(t, 25.00, summary.AmountSpent)
	assert.Equal(t, 35.00, summary.AmountWon)
	assert.Equal(t, 10.00, summary.TotalWinnings)
	assert.Equal(t, 40.00, summary.ROIPercent)
	assert.Equal(t, 1, summary.InvalidDates)
	require.NotNil(t, summary.FirstContest)
	assert.True(t, early.Equal(*summary.FirstContest))
	assert.True(t, late.Equal(*summary.LastContest))

	empty := Summarize(nil)
	assert.Zero(t, empty.ROIPercent)
	assert.Nil(t, empty.FirstContest)
}
