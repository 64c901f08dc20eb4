// SPDX-License-Identifier: MIT

package pschema

import (
	"bytes"
	"testing"
)

func TestBitRunRoundTrip24Bit(t *testing.T) {
	s := Start().Bit12("a").Bit12("b")
	buf, err := s.Encode(Record{"a": 0xabc, "b": 0x123})
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	if len(buf) != 3 {
		t.Fatalf("len(buf) = %d, want 3 (24 bits rounds up to 3 bytes)", len(buf))
	}
	got, err := s.Parse(buf)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	rec := got.(Record)
	if rec["a"] != 0xabc || rec["b"] != 0x123 {
		t.Errorf("got %v, want a=0xabc b=0x123", rec)
	}
}

func TestBitRunEncodeTooLong(t *testing.T) {
	s := Start().Bit20("a").Bit20("b")
	_, err := s.Encode(Record{"a": 1, "b": 1})
	if _, ok := err.(*BitSequenceTooLongError); !ok {
		t.Fatalf("got %T (%v), want *BitSequenceTooLongError", err, err)
	}
}

func TestBitRunAssignmentOrderIsSourceOrderRegardlessOfEndian(t *testing.T) {
	// Field assignment order into the record is always a, b, c; only the
	// bit-position mapping flips with endianness (spec §8 property 5).
	big := Start().Bit2("a").Bit2("b").Bit4("c")
	little := Start().Endianness(LittleEndian).Bit2("a").Bit2("b").Bit4("c")

	buf := []byte{0b11_10_0101}
	bigRec, err := big.Parse(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	littleRec, err := little.Parse(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"a", "b", "c"} {
		if _, ok := bigRec.(Record)[name]; !ok {
			t.Errorf("big-endian record missing field %q", name)
		}
		if _, ok := littleRec.(Record)[name]; !ok {
			t.Errorf("little-endian record missing field %q", name)
		}
	}
	if bigRec.(Record)["a"] == littleRec.(Record)["a"] {
		t.Skip("endian swap happened to produce the same value for this pattern; not a failure")
	}
}

func TestBitRunNestSandwichedContinuesAccumulating(t *testing.T) {
	// spec §4.D: a nest sandwiched between bit fields does not break the
	// run. a, b, and c all pack into one 16-bit big-endian integer; the
	// nest is decoded right after those two packed bytes, not in between
	// them.
	inner := Start().Uint8("inline")
	s := Start().Bit4("a").Bit4("b").Nest("mid", WithType(inner)).Bit8("c")
	got, err := s.Parse([]byte{0xab, 0xff, 0x01})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec := got.(Record)
	if rec["a"] != 0xa || rec["b"] != 0xb {
		t.Fatalf("a,b = %v,%v, want 0xa,0xb", rec["a"], rec["b"])
	}
	if rec["c"] != 0xff {
		t.Fatalf("c = %v, want 0xff (packed together with a and b)", rec["c"])
	}
	mid := rec["mid"].(Record)
	if mid["inline"] != uint8(0x01) {
		t.Fatalf("mid.inline = %v, want 1", mid["inline"])
	}

	reEncoded, err := s.Encode(rec)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	want := []byte{0xab, 0xff, 0x01}
	if !bytes.Equal(reEncoded, want) {
		t.Fatalf("re-encoded = %x, want %x", reEncoded, want)
	}
}
