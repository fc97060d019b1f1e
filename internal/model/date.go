package model

import (
	"encoding/json"
	"strings"
	"time"
)

// dateLayouts are the layouts accepted for date fields, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
}

// Date is a calendar date read from the estimating platform. A Date is
// either missing (no raw value), invalid (raw value present but unparseable)
// or valid. The time component of a parsed value is discarded.
type Date struct {
	Raw   string
	t     time.Time
	valid bool
}

// ParseDate interprets raw as a calendar date. Blank input yields a missing
// Date; input that matches none of the accepted layouts yields an invalid one.
func ParseDate(raw string) Date {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Date{Raw: raw, t: civil(t), valid: true}
		}
	}
	return Date{Raw: raw}
}

// NewDate returns a valid Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{Raw: t.Format("2006-01-02"), t: t, valid: true}
}

// DateOf returns a valid Date for the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	c := civil(t)
	return Date{Raw: c.Format("2006-01-02"), t: c, valid: true}
}

// civil truncates t to midnight UTC of its calendar day in its own location.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Present reports whether the field carried any raw value.
func (d Date) Present() bool { return d.Raw != "" }

// Valid reports whether the field parsed as a calendar date.
func (d Date) Valid() bool { return d.valid }

// Invalid reports whether the field carried a value that did not parse.
func (d Date) Invalid() bool { return d.Present() && !d.valid }

// Time returns the date at midnight UTC. Zero when not valid.
func (d Date) Time() time.Time { return d.t }

// Year returns the calendar year, or 0 when not valid.
func (d Date) Year() int {
	if !d.valid {
		return 0
	}
	return d.t.Year()
}

// DaysUntil returns the whole number of days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.t.Sub(d.t).Hours() / 24)
}

// After reports whether d is strictly later than other. Both must be valid.
func (d Date) After(other Date) bool {
	return d.valid && other.valid && d.t.After(other.t)
}

// String returns the ISO form for valid dates and the raw text otherwise.
func (d Date) String() string {
	if d.valid {
		return d.t.Format("2006-01-02")
	}
	return d.Raw
}

// MarshalJSON encodes valid dates as "YYYY-MM-DD", others as their raw text
// or null when missing.
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Present() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a JSON string (or null) through ParseDate.
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*d = ParseDate(s)
	return nil
}

// MarshalYAML encodes the date the same way as MarshalJSON.
func (d Date) MarshalYAML() (any, error) {
	if !d.Present() {
		return nil, nil
	}
	return d.String(), nil
}
