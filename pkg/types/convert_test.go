package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToInt(t *testing.T) {
	tests := []struct {
		in     any
		want   int64
		wantOK bool
	}{
		{2, 2, true},
		{int64(7), 7, true},
		{float64(3), 3, true},
		{float64(3.5), 0, false},
		{json.Number("12"), 12, true},
		{"42", 42, true},
		{" 5 ", 5, true},
		{"abc", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := ToInt(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ToInt(%#v) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestToBool(t *testing.T) {
	tests := []struct {
		in     any
		want   bool
		wantOK bool
	}{
		{true, true, true},
		{false, false, true},
		{int64(1), true, true},
		{int64(0), false, true},
		{"1", true, true},
		{"false", false, true},
		{"nope", false, false},
		{nil, false, false},
	}
	for _, tt := range tests {
		got, ok := ToBool(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ToBool(%#v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestToList(t *testing.T) {
	if got := ToList(nil); got != nil {
		t.Errorf("ToList(nil) = %v, want nil", got)
	}
	if got := ToList(int64(3)); len(got) != 1 || got[0] != int64(3) {
		t.Errorf("ToList(3) = %v, want [3]", got)
	}
	if got := ToList([]string{"a", "b"}); len(got) != 2 || got[1] != "b" {
		t.Errorf("ToList([a b]) = %v", got)
	}
}

func TestNormalizeJSON(t *testing.T) {
	in := map[string]any{
		"ids":   []any{json.Number("11"), json.Number("12")},
		"ratio": json.Number("0.5"),
		"name":  "x",
	}
	assert.Equal(t, map[string]any{
		"ids":   []any{int64(11), int64(12)},
		"ratio": 0.5,
		"name":  "x",
	}, NormalizeJSON(in))
}
