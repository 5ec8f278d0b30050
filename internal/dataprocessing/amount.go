package dataprocessing

import (
	"strings"

	"github.com/shopspring/decimal"
)

var currencySymbols = []string{"$", "€", "£"}

// ParseAmount coerces a monetary cell to a decimal.
// It accepts an optional sign and one leading currency symbol in either order
// ("-$5", "$-5"). The rest must be a plain decimal, so "1,234" is a failure.
// On any failure it returns zero and false.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}

	s, neg, signed := stripSign(s)
	s = stripCurrency(s)
	if !signed {
		s, neg, _ = stripSign(s)
	}

	if s == "" || s[0] == '-' || s[0] == '+' {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if neg {
		d = d.Neg()
	}
	return d, true
}

func stripSign(s string) (rest string, neg bool, found bool) {
	if s == "" {
		return s, false, false
	}
	switch s[0] {
	case '-':
		return strings.TrimSpace(s[1:]), true, true
	case '+':
		return strings.TrimSpace(s[1:]), false, true
	}
	return s, false, false
}

func stripCurrency(s string) string {
	for _, sym := range currencySymbols {
		if strings.HasPrefix(s, sym) {
			return strings.TrimSpace(strings.TrimPrefix(s, sym))
		}
	}
	return s
}
