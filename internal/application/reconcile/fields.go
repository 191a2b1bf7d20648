package reconcile

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one loosely-typed record exported by the legacy system
type Row map[string]any

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"01/02/2006 15:04",
}

// Lookup returns the value at the first dotted key-path that is present, non-nil
// and non-empty. Numeric segments index into arrays.
func Lookup(row Row, paths ...string) (any, bool) {
	for _, path := range paths {
		if v, ok := resolvePath(map[string]any(row), path); ok && isPresent(v) {
			return v, true
		}
	}
	return nil, false
}

// String returns the first path whose value is a non-blank scalar, as a trimmed string
func String(row Row, paths ...string) (string, bool) {
	for _, path := range paths {
		v, ok := Lookup(row, path)
		if !ok {
			continue
		}
		if s, ok := scalarString(v); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// Decimal returns the first path whose value parses as a number
func Decimal(row Row, paths ...string) (decimal.Decimal, bool) {
	for _, path := range paths {
		v, ok := Lookup(row, path)
		if !ok {
			continue
		}
		if d, ok := toDecimal(v); ok {
			return d, true
		}
	}
	return decimal.Zero, false
}

// Time returns the first present path that parses as a timestamp. When values are
// present but none parses, found is true and err holds the first parse failure.
func Time(row Row, paths ...string) (t time.Time, found bool, err error) {
	for _, path := range paths {
		v, ok := Lookup(row, path)
		if !ok {
			continue
		}
		parsed, perr := toTime(v)
		if perr == nil {
			return parsed, true, nil
		}
		if err == nil {
			err = perr
		}
		found = true
	}
	return time.Time{}, found, err
}

// List returns the first path holding a non-empty array
func List(row Row, paths ...string) ([]any, bool) {
	for _, path := range paths {
		v, ok := Lookup(row, path)
		if !ok {
			continue
		}
		if list, ok := v.([]any); ok {
			return list, true
		}
	}
	return nil, false
}

// AsRow converts a nested object into a Row
func AsRow(v any) (Row, bool) {
	switch m := v.(type) {
	case Row:
		return m, true
	case map[string]any:
		return Row(m), true
	}
	return nil, false
}

func resolvePath(v any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	cur := v
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case Row:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

func isPresent(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	case Row:
		return len(x) > 0
	}
	return true
}

func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x), true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		return d, err == nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(x), true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case string:
		s := strings.NewReplacer(",", "", " ", "").Replace(strings.TrimSpace(x))
		d, err := decimal.NewFromString(s)
		return d, err == nil
	}
	return decimal.Zero, false
}

func toTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("unrecognized timestamp %q", x.String())
		}
		return unixTime(n), nil
	case float64:
		return unixTime(int64(x)), nil
	case int64:
		return unixTime(x), nil
	case int:
		return unixTime(int64(x)), nil
	}
	return time.Time{}, fmt.Errorf("unsupported date value of type %T", v)
}

// unixTime accepts seconds or milliseconds since the epoch
func unixTime(n int64) time.Time {
	if n > 1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

// Map returns the first path holding a non-empty object
func Map(row Row, paths ...string) (Row, bool) {
	for _, path := range paths {
		v, ok := Lookup(row, path)
		if !ok {
			continue
		}
		if m, ok := AsRow(v); ok {
			return m, true
		}
	}
	return nil, false
}
