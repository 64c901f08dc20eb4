// SPDX-License-Identifier: MIT

package pschema

import "testing"

func TestWidthForBits(t *testing.T) {
	tests := []struct {
		total int
		want  int
	}{
		{1, 1}, {8, 1}, {9, 2}, {16, 2}, {17, 3}, {24, 3}, {25, 4}, {32, 4},
	}
	for _, tt := range tests {
		if got := widthForBits(tt.total); got != tt.want {
			t.Errorf("widthForBits(%d) = %d, want %d", tt.total, got, tt.want)
		}
	}
}

func TestLookupKind(t *testing.T) {
	if _, _, ok := lookupKind("uint16be"); !ok {
		t.Fatal("expected uint16be to be a known kind")
	}
	if _, _, ok := lookupKind("nope"); ok {
		t.Fatal("expected \"nope\" to be unknown")
	}
}

func TestResolveEndian(t *testing.T) {
	_, neutral, _ := lookupKind("uint16")
	if got := neutral.resolveEndian(LittleEndian); got != LittleEndian {
		t.Errorf("neutral kind should fall back to the schema default, got %v", got)
	}
	_, fixed, _ := lookupKind("uint16be")
	if got := fixed.resolveEndian(LittleEndian); got != BigEndian {
		t.Errorf("fixed-endian kind must ignore the fallback, got %v", got)
	}
}
