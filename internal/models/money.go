package models

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a monetary amount. The backend sends amounts as JSON numbers or
// numeric strings; Money accepts both and always emits a JSON number.
type Money struct {
	decimal.Decimal
}

var nonNumeric = regexp.MustCompile(`[^0-9.\-]+`)

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

func MoneyFromFloat(f float64) Money {
	return Money{Decimal: decimal.NewFromFloat(f)}
}

// MustParseMoney parses s, returning zero when s is not a number.
func MustParseMoney(s string) Money {
	m, ok := ParseMoney(s)
	if !ok {
		return Money{}
	}
	return m
}

// ParseMoney parses a plain numeric string such as "750.00" or "5".
func ParseMoney(s string) (Money, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, false
	}
	return Money{Decimal: d}, true
}

// ParseCurrency strips every character that is not a digit, a dot or a minus
// sign before parsing, so "$1,250,000.50" parses as 1250000.50.
func ParseCurrency(s string) (Money, bool) {
	return ParseMoney(nonNumeric.ReplaceAllString(s, ""))
}

// Round2 rounds half away from zero to two decimal places.
func (m Money) Round2() Money {
	return Money{Decimal: m.Decimal.Round(2)}
}

// String renders the amount with two decimals.
func (m Money) String() string {
	return m.Decimal.StringFixed(2)
}

func (m Money) Equal(o Money) bool {
	return m.Decimal.Equal(o.Decimal)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		m.Decimal = decimal.Zero
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		// Unparseable strings ("", "NaN", "N/A") decode as zero.
		m.Decimal = MustParseMoney(s).Decimal
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		m.Decimal = decimal.Zero
		return nil
	}
	m.Decimal = d
	return nil
}

// Income is an amount as the applicant typed it, e.g. "$120,000". Typed text
// is kept as a JSON string; a plain decimal ("120000") is written as a JSON
// number, which is the form NormalizeIncome produces for submission.
type Income string

func (i *Income) UnmarshalJSON(data []byte) error {
	*i = Income(scalarString(data))
	return nil
}

func (i Income) MarshalJSON() ([]byte, error) {
	if d, err := decimal.NewFromString(string(i)); err == nil && d.String() == string(i) {
		return []byte(d.String()), nil
	}
	return json.Marshal(string(i))
}

func (i Income) String() string { return string(i) }

// Amount parses the income with ParseCurrency.
func (i Income) Amount() (Money, bool) {
	return ParseCurrency(strings.TrimSpace(string(i)))
}
