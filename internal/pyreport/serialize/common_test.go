package serialize

import (
	"reflect"
	"testing"
)

func TestFormatPct(t *testing.T) {
	cases := []struct {
		hits, lines int
		want        string
	}{
		{0, 10, "0"},
		{10, 10, "100"},
		{0, 0, "0"},
		{1, 3, "33.33333"},
		{2, 3, "66.66667"},
	}
	for _, c := range cases {
		if got := formatPct(c.hits, c.lines); got != c.want {
			t.Errorf("formatPct(%d, %d) = %q, want %q", c.hits, c.lines, got, c.want)
		}
	}
}

func TestTrimTrailingNulls(t *testing.T) {
	cases := []struct {
		name string
		in   []any
		want []any
	}{
		{"all trailing nil", []any{1, 2, nil, nil}, []any{1, 2}},
		{"no trailing nil", []any{1, nil, 2}, []any{1, nil, 2}},
		{"all nil", []any{nil, nil}, []any{}},
		{"none nil", []any{1, 2, 3}, []any{1, 2, 3}},
	}
	for _, c := range cases {
		got := trimTrailingNulls(c.in)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("%s: trimTrailingNulls(%v) = %v, want %v", c.name, c.in, got, c.want)
		}
	}
}
