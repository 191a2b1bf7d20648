package reconcile

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	row := Row{
		"id":     "",
		"mrs_id": json.Number("42"),
		"header": map[string]any{"status": "POSTED"},
		"items":  []any{map[string]any{"qty": 2}},
		"empty":  map[string]any{},
		"none":   nil,
	}

	v, ok := Lookup(row, "id", "mrs_id")
	require.True(t, ok)
	assert.Equal(t, json.Number("42"), v)

	v, ok = Lookup(row, "status", "header.status")
	require.True(t, ok)
	assert.Equal(t, "POSTED", v)

	v, ok = Lookup(row, "items.0.qty")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = Lookup(row, "items.3.qty", "items.x", "empty", "none", "missing.deeper")
	assert.False(t, ok)

	_, ok = Lookup(row, "")
	assert.False(t, ok)
}

func TestString(t *testing.T) {
	row := Row{
		"a": "   ",
		"b": map[string]any{"c": "x"},
		"n": json.Number("0012"),
		"f": 3.5,
	}

	s, ok := String(row, "a", "b", "n")
	require.True(t, ok)
	assert.Equal(t, "0012", s)

	s, ok = String(row, "f")
	require.True(t, ok)
	assert.Equal(t, "3.5", s)

	_, ok = String(row, "a", "b")
	assert.False(t, ok)
}

func TestDecimal(t *testing.T) {
	row := Row{
		"num":   json.Number("12.345"),
		"str":   "1,250.50",
		"bad":   "abc",
		"int":   7,
		"float": 0.1,
	}

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"num", "12.345", true},
		{"str", "1250.5", true},
		{"bad", "0", false},
		{"int", "7", true},
		{"float", "0.1", true},
		{"missing", "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			d, ok := Decimal(row, tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, d.Equal(decimal.RequireFromString(tt.want)), "got %s", d)
		})
	}

	d, ok := Decimal(row, "bad", "int")
	require.True(t, ok)
	assert.True(t, d.Equal(decimal.NewFromInt(7)))
}

func TestTime(t *testing.T) {
	row := Row{
		"rfc":    "2024-03-01T08:30:00Z",
		"space":  "2024-03-01 08:30:00",
		"date":   "2024-03-01",
		"us":     "03/01/2024",
		"millis": json.Number("1709281800000"),
		"secs":   json.Number("1709281800"),
		"bad":    "yesterday",
	}

	want := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	for _, key := range []string{"rfc", "space", "millis", "secs"} {
		got, found, err := Time(row, key)
		require.NoError(t, err, key)
		assert.True(t, found)
		assert.True(t, want.Equal(got), "%s: %s", key, got)
	}

	for _, key := range []string{"date", "us"} {
		got, found, err := Time(row, key)
		require.NoError(t, err, key)
		assert.True(t, found)
		assert.Equal(t, 2024, got.Year())
		assert.Equal(t, time.March, got.Month())
		assert.Equal(t, 1, got.Day())
	}

	_, found, err := Time(row, "bad")
	assert.True(t, found)
	assert.Error(t, err)

	_, found, err = Time(row, "missing")
	assert.False(t, found)
	assert.NoError(t, err)

	got, found, err := Time(row, "missing", "bad", "rfc")
	require.NoError(t, err, "a later parseable path wins over an unparseable one")
	assert.True(t, found)
	assert.True(t, want.Equal(got))

	_, found, err = Time(Row{"date_prepared": "N/A", "created_at": "not a date"}, "date_prepared", "created_at")
	assert.True(t, found)
	assert.ErrorContains(t, err, "N/A")
}

func TestListAndMap(t *testing.T) {
	row := Row{
		"items":   []any{},
		"details": []any{map[string]any{"qty": 1}},
		"header":  map[string]any{"id": "1"},
	}

	list, ok := List(row, "items", "details")
	require.True(t, ok)
	assert.Len(t, list, 1)

	m, ok := Map(row, "header")
	require.True(t, ok)
	assert.Equal(t, "1", m["id"])

	_, ok = Map(row, "details")
	assert.False(t, ok)
}
