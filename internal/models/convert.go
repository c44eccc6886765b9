package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// StringToBoolean normalises the loosely typed booleans the backend returns.
// "true"/"1"/"yes" and "false"/"0"/"no" (any case), JSON booleans and
// numbers (non-zero is true) are understood; anything else is absent.
func StringToBoolean(value interface{}) (bool, bool) {
	switch v := value.(type) {
	case nil:
		return false, false
	case bool:
		return v, true
	case string:
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		}
	case float64:
		return v != 0, true
	case int:
		return v != 0, true
	case int64:
		return v != 0, true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return false, false
		}
		return f != 0, true
	}
	return false, false
}

// Bool is a tri-state boolean: unanswered questions and missing flags are
// distinct from false.
type Bool struct {
	Value bool
	Valid bool
}

func NewBool(v bool) Bool { return Bool{Value: v, Valid: true} }

// True reports a present, true value.
func (b Bool) True() bool { return b.Valid && b.Value }

func (b Bool) MarshalJSON() ([]byte, error) {
	if !b.Valid {
		return []byte("null"), nil
	}
	if b.Value {
		return []byte("true"), nil
	}
	return []byte("false"), nil
}

func (b *Bool) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	b.Value, b.Valid = StringToBoolean(raw)
	return nil
}

// Date is a calendar date decoded leniently: invalid or missing dates
// decode as the zero Date, never as an error.
type Date struct {
	time.Time
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
}

// ParseDate returns the parsed date and whether s held a valid date.
func ParseDate(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}, true
		}
	}
	return Date{}, false
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.UTC().Format(time.RFC3339))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil || s == nil {
		d.Time = time.Time{}
		return nil
	}
	parsed, _ := ParseDate(*s)
	d.Time = parsed.Time
	return nil
}

// USDate renders MM/DD/YYYY, the format the qualifier endpoint expects.
func (d Date) USDate() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("01/02/2006")
}

// FormatDate renders a date string as MM/DD/YYYY for review screens:
// "N/A" when empty and "Invalid Date" when unparseable.
func FormatDate(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	d, ok := ParseDate(s)
	if !ok {
		return "Invalid Date"
	}
	return d.USDate()
}

// Text is a string field the backend sometimes sends as a number.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = Text(scalarString(data))
	return nil
}

func (t Text) String() string { return string(t) }
