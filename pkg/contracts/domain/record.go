package domain

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Header names that the core interprets. Every other column is carried verbatim.
const (
	FieldSport             = "Sport"
	FieldWinningsNonTicket = "Winnings_Non_Ticket"
	FieldWinningsTicket    = "Winnings_Ticket"
	FieldEntryFee          = "Entry_Fee"
	FieldContestDate       = "Contest_Date_EST"
)

// ContestDateLayout is the ISO-8601 text used when a contest date is rendered.
const ContestDateLayout = "2006-01-02T15:04:05"

// InvalidDateText is the rendering of a contest date that failed to parse.
const InvalidDateText = "Invalid Date"

// ContestDate is a contest timestamp as supplied by the export.
// The zero value is the invalid-date sentinel.
type ContestDate struct {
	Time  time.Time
	Valid bool
}

// NewContestDate wraps a parsed time.
func NewContestDate(t time.Time) ContestDate {
	return ContestDate{Time: t, Valid: true}
}

// After reports whether the date is valid and strictly after cutoff.
func (d ContestDate) After(cutoff time.Time) bool {
	return d.Valid && d.Time.After(cutoff)
}

// String renders the date as ISO-8601 wall-clock text.
func (d ContestDate) String() string {
	if !d.Valid {
		return InvalidDateText
	}
	return d.Time.Format(ContestDateLayout)
}

// MarshalJSON emits the ISO text, or null for an invalid date.
func (d ContestDate) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// Record is one parsed input row.
type Record struct {
	Sport             string
	WinningsNonTicket decimal.Decimal
	WinningsTicket    decimal.Decimal
	EntryFee          decimal.Decimal
	ContestDate       ContestDate

	// Fields holds every pass-through column keyed by header name.
	Fields map[string]string
}

// AmountWon is the sum of ticket and non-ticket winnings.
func (r Record) AmountWon() decimal.Decimal {
	return r.WinningsNonTicket.Add(r.WinningsTicket)
}

// Value returns the text form of a column.
func (r Record) Value(column string) string {
	switch column {
	case FieldSport:
		return r.Sport
	case FieldWinningsNonTicket:
		return FormatAmount(r.WinningsNonTicket)
	case FieldWinningsTicket:
		return FormatAmount(r.WinningsTicket)
	case FieldEntryFee:
		return FormatAmount(r.EntryFee)
	case FieldContestDate:
		return r.ContestDate.String()
	}
	return r.Fields[column]
}

// Texts returns the text form of every field the record carries, typed fields first.
func (r Record) Texts() []string {
	texts := make([]string, 0, len(r.Fields)+5)
	texts = append(texts,
		r.Sport,
		FormatAmount(r.WinningsNonTicket),
		FormatAmount(r.WinningsTicket),
		FormatAmount(r.EntryFee),
		r.ContestDate.String(),
	)
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		texts = append(texts, r.Fields[k])
	}
	return texts
}

// MarshalJSON flattens the record into a column-keyed object.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Fields)+5)
	for k, v := range r.Fields {
		out[k] = v
	}
	out[FieldSport] = r.Sport
	out[FieldWinningsNonTicket] = r.WinningsNonTicket.InexactFloat64()
	out[FieldWinningsTicket] = r.WinningsTicket.InexactFloat64()
	out[FieldEntryFee] = r.EntryFee.InexactFloat64()
	out[FieldContestDate] = r.ContestDate
	return json.Marshal(out)
}

// FormatAmount renders an amount with two fixed decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Row is a record annotated with its position in the parsed sequence.
type Row struct {
	ID     int    `json:"id"`
	Record Record `json:"record"`
}
