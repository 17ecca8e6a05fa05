package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ToInt converts numeric values, numeric strings, and json.Number to int64.
func ToInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// ToBool converts booleans, numbers, and "0"/"1"/"true"/"false" strings.
func ToBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		p, err := strconv.ParseBool(b)
		return p, err == nil
	}
	if i, ok := ToInt(v); ok {
		return i != 0, true
	}
	return false, false
}

// ToStrings converts a list value to strings. A scalar becomes a
// one-element list and nil becomes an empty list.
func ToStrings(v any) []string {
	switch l := v.(type) {
	case nil:
		return nil
	case []string:
		return l
	case []any:
		out := make([]string, 0, len(l))
		for _, e := range l {
			out = append(out, fmt.Sprint(e))
		}
		return out
	default:
		return []string{fmt.Sprint(l)}
	}
}

// ToList returns v as a list. A scalar becomes a one-element list and nil
// becomes an empty list.
func ToList(v any) []any {
	switch l := v.(type) {
	case nil:
		return nil
	case []any:
		return l
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out
	case []int64:
		out := make([]any, len(l))
		for i, n := range l {
			out[i] = n
		}
		return out
	default:
		return []any{l}
	}
}

// NormalizeJSON converts the json.Number values of a decoded JSON value to
// int64 when integral and float64 otherwise. Maps and lists are converted in
// place.
func NormalizeJSON(v any) any {
	switch c := v.(type) {
	case json.Number:
		if i, err := c.Int64(); err == nil {
			return i
		}
		f, _ := c.Float64()
		return f
	case map[string]any:
		for k, e := range c {
			c[k] = NormalizeJSON(e)
		}
		return c
	case []any:
		for i, e := range c {
			c[i] = NormalizeJSON(e)
		}
		return c
	default:
		return v
	}
}
