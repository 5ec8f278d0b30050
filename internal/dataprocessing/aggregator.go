package dataprocessing

import (
	"time"

	"github.com/shopspring/decimal"

	"contestlens/pkg/contracts/domain"
)

var hundred = decimal.NewFromInt(100)

type sportTotals struct {
	sport   string
	entries int
	spent   decimal.Decimal
	won     decimal.Decimal
}

// Aggregate sums winnings and entry fees per sport.
// Buckets come out in the order each sport is first seen. Sums are exact and
// rounded to cents only when the bucket is emitted.
func Aggregate(records []domain.Record) []domain.AggregateBucket {
	index := make(map[string]int)
	totals := make([]sportTotals, 0)

	for _, r := range records {
		i, ok := index[r.Sport]
		if !ok {
			i = len(totals)
			index[r.Sport] = i
			totals = append(totals, sportTotals{sport: r.Sport})
		}
		totals[i].entries++
		totals[i].spent = totals[i].spent.Add(r.EntryFee)
		totals[i].won = totals[i].won.Add(r.AmountWon())
	}

	buckets := make([]domain.AggregateBucket, len(totals))
	for i, t := range totals {
		buckets[i] = domain.AggregateBucket{
			Sport:         t.sport,
			Entries:       t.entries,
			TotalWinnings: cents(t.won.Sub(t.spent)),
			AmountSpent:   cents(t.spent),
			AmountWon:     cents(t.won),
		}
	}
	return buckets
}

// Sports lists distinct sports in first-seen order.
func Sports(records []domain.Record) []string {
	seen := make(map[string]struct{})
	sports := make([]string, 0)
	for _, r := range records {
		if _, ok := seen[r.Sport]; ok {
			continue
		}
		seen[r.Sport] = struct{}{}
		sports = append(sports, r.Sport)
	}
	return sports
}

// Summarize computes whole-dataset totals and the contest date span.
func Summarize(records []domain.Record) domain.Summary {
	var (
		spent, won  decimal.Decimal
		first, last time.Time
		invalid     int
	)
	for _, r := range records {
		spent = spent.Add(r.EntryFee)
		won = won.Add(r.AmountWon())

		if !r.ContestDate.Valid {
			invalid++
			continue
		}
		if first.IsZero() || r.ContestDate.Time.Before(first) {
			first = r.ContestDate.Time
		}
		if last.IsZero() || r.ContestDate.Time.After(last) {
			last = r.ContestDate.Time
		}
	}

	net := won.Sub(spent)
	summary := domain.Summary{
		Entries:       len(records),
		Sports:        len(Sports(records)),
		AmountSpent:   cents(spent),
		AmountWon:     cents(won),
		TotalWinnings: cents(net),
		InvalidDates:  invalid,
	}
	if !spent.IsZero() {
		summary.ROIPercent = cents(net.Div(spent).Mul(hundred))
	}
	if !first.IsZero() {
		summary.FirstContest = &first
		summary.LastContest = &last
	}
	return summary
}

// cents rounds half away from zero to two decimals.
func cents(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
