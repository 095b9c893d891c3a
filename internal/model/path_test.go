package model

import "testing"

// TestPathString tests path rendering for all segment kinds.
func TestPathString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		path     Path
		expected string
	}{
		{"empty", Path{}, "(root)"},
		{"single key", Path{Key("version")}, "version"},
		{"key chain", Path{Key("data"), Index(2), Key("name")}, "data[2].name"},
		{"derived key", Path{Key("data"), Derived(String("x"))}, `data["x"]`},
		{"derived number", Path{Derived(Number(7))}, "[7]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.path.String(); got != tc.expected {
				t.Errorf("got %q, expected %q", got, tc.expected)
			}
		})
	}
}

// TestPathChildDoesNotAlias tests that sibling Child calls never share a
// backing array, which would corrupt recorded diff paths.
func TestPathChildDoesNotAlias(t *testing.T) {
	t.Parallel()

	base := Path{Key("data")}.Child(Index(0))
	first := base.Child(Key("name"))
	second := base.Child(Key("dump"))

	if first.String() != "data[0].name" {
		t.Errorf("first = %q, expected data[0].name", first.String())
	}
	if second.String() != "data[0].dump" {
		t.Errorf("second = %q, expected data[0].dump", second.String())
	}
}

// TestPathReplaceLast tests derived-key substitution at and below root.
func TestPathReplaceLast(t *testing.T) {
	t.Parallel()

	p := Path{Key("data"), Index(3)}
	replaced := p.ReplaceLast(Derived(String("x")))
	if replaced.String() != `data["x"]` {
		t.Errorf("got %q, expected data[\"x\"]", replaced.String())
	}
	// The original path must be untouched.
	if p.String() != "data[3]" {
		t.Errorf("original mutated to %q", p.String())
	}

	root := Path{}.ReplaceLast(Derived(String("k")))
	if root.String() != `["k"]` {
		t.Errorf("root replacement = %q, expected [\"k\"]", root.String())
	}
}

// TestSegmentEqual tests segment comparison across kinds.
func TestSegmentEqual(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		a, b     PathSegment
		expected bool
	}{
		{"same key", Key("a"), Key("a"), true},
		{"different key", Key("a"), Key("b"), false},
		{"same index", Index(1), Index(1), true},
		{"different index", Index(1), Index(2), false},
		{"key vs index", Key("1"), Index(1), false},
		{"same derived", Derived(String("x")), Derived(String("x")), true},
		{"different derived", Derived(String("x")), Derived(Number(1)), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.a.Equal(tc.b); got != tc.expected {
				t.Errorf("Equal() = %v, expected %v", got, tc.expected)
			}
		})
	}
}
