package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		present bool
		valid   bool
		want    string
	}{
		{"blank", "   ", false, false, ""},
		{"iso", "2025-03-04", true, true, "2025-03-04"},
		{"rfc3339", "2025-03-04T22:10:00Z", true, true, "2025-03-04"},
		{"us slash", "03/04/2025", true, true, "2025-03-04"},
		{"us short", "3/4/2025", true, true, "2025-03-04"},
		{"garbage", "next tuesday", true, false, "next tuesday"},
		{"impossible day", "2025-02-30", true, false, "2025-02-30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := ParseDate(tt.raw)
			assert.Equal(t, tt.present, d.Present())
			assert.Equal(t, tt.valid, d.Valid())
			assert.Equal(t, tt.present && !tt.valid, d.Invalid())
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestDate_DaysUntil(t *testing.T) {
	t.Parallel()

	from := NewDate(2025, time.December, 31)
	assert.Equal(t, 1, from.DaysUntil(NewDate(2026, time.January, 1)))
	assert.Equal(t, -1, from.DaysUntil(NewDate(2025, time.December, 30)))
	assert.Equal(t, 0, from.DaysUntil(from))
	// Crosses a DST boundary in most zones; civil dates are unaffected.
	assert.Equal(t, 31, NewDate(2025, time.March, 1).DaysUntil(NewDate(2025, time.April, 1)))
}

func TestDateOf_UsesOwnLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC-8", -8*3600)
	late := time.Date(2025, time.June, 30, 23, 30, 0, 0, loc)
	assert.Equal(t, "2025-06-30", DateOf(late).String())
}

func TestDate_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		D Date `json:"d"`
	}

	b, err := json.Marshal(wrapper{D: NewDate(2024, time.July, 1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2024-07-01"}`, string(b))

	b, err = json.Marshal(wrapper{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":null}`, string(b))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"d":"not a date"}`), &w))
	assert.True(t, w.D.Invalid())
}
