// Package sync tests for version tag comparison.
package sync

import "testing"

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.2.0", "1.10.0", -1}, // numeric, not lexicographic
		{"1.10.0", "1.2.0", 1},
		{"1.9.0", "1.10.0", -1},
		{"2.0.0", "1.99.99", 1},
		{"1.0", "1.0.0", -1}, // longer tag is newer when prefixes match
		{"1.0.1", "1.0", 1},
		{"0.9", "1.0", -1},
		{"10.0.0", "9.0.0", 1},
		{"1.0.0-beta", "1.0.0-alpha", 1}, // non-numeric fields compare as strings
		{"", "", 0},
	}

	for _, tt := range tests {
		if got := CompareVersions(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
