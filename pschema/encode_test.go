// SPDX-License-Identifier: MIT

package pschema

import (
	"bytes"
	"testing"
)

func TestEncodePrimitiveRoundTrip(t *testing.T) {
	s := Start().Uint16BE("n")
	got, err := s.Encode(Record{"n": uint16(0x1234)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []byte{0x12, 0x34}; !bytes.Equal(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}
}

func TestEncodeBitPackingBigEndian(t *testing.T) {
	s := Start().Bit1("a").Bit3("b").Bit4("c")
	got, err := s.Encode(Record{"a": 1, "b": 3, "c": 6})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []byte{0b1_011_0110}; !bytes.Equal(got, want) {
		t.Errorf("got %08b, want %08b", got[0], want[0])
	}
}

func TestEncodeBitPackingLittleEndian(t *testing.T) {
	s := Start().Endianness(LittleEndian).Bit1("a").Bit3("b").Bit4("c")
	got, err := s.Encode(Record{"a": 0, "b": 3, "c": 11})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []byte{0b1_011_0110}; !bytes.Equal(got, want) {
		t.Errorf("got %08b, want %08b", got[0], want[0])
	}
}

func TestEncodeLengthPrefixedArray(t *testing.T) {
	s := Start().Uint8("n").Array("items", WithLength("n"), WithType("uint16le"))
	got, err := s.Encode(Record{"n": uint8(2), "items": []any{uint16(1), uint16(2)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x02, 0x01, 0x00, 0x02, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}
}

func TestEncodeStringFixedLengthPadsRight(t *testing.T) {
	s := Start().String("s", WithLength(5))
	got, err := s.Encode(Record{"s": "ab"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []byte("ab   "); !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEncodeStringFixedLengthPadsLeft(t *testing.T) {
	s := Start().String("s", WithLength(5), WithPadding("left"), WithPad('0'))
	got, err := s.Encode(Record{"s": "ab"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []byte("000ab"); !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEncodeStringTruncatesOverLength(t *testing.T) {
	s := Start().String("s", WithLength(3))
	got, err := s.Encode(Record{"s": "abcdef"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []byte("abc"); !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEncodeChoice(t *testing.T) {
	s := Start().Uint8("t").Choice("v", WithTag("t"), WithChoices(map[int]any{1: "uint8", 2: "uint16be"}))
	got, err := s.Encode(Record{"t": uint8(2), "v": uint16(0x0102)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x02, 0x01, 0x02}
	if !bytes.Equal(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}
}

func TestEncodeDictionaryArrayUnsupported(t *testing.T) {
	s := Start().Array("items", WithLength(1), WithType("uint8"), WithKey("id"))
	_, err := s.Encode(Record{"items": Record{"a": Record{"id": "a"}}})
	if _, ok := err.(*UnsupportedEncodingError); !ok {
		t.Fatalf("got %T (%v), want *UnsupportedEncodingError", err, err)
	}
}

func TestEncodePointerAndSaveOffsetAreNoOps(t *testing.T) {
	s := Start().
		SaveOffset("where").
		Pointer("target", WithOffset(0), WithType("uint8")).
		Uint8("after")
	got, err := s.Encode(Record{"where": 0, "target": uint8(9), "after": uint8(1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []byte{0x01}; !bytes.Equal(got, want) {
		t.Errorf("got %x, want %x (pointer/saveOffset must not emit bytes)", got, want)
	}
}

func TestEncodeEncoderRestoresOriginalValue(t *testing.T) {
	s := Start().
		Uint8("n", WithEncoder(func(value any, record Record) any {
			return value.(uint8) + 1
		})).
		Uint8("copy")
	rec := Record{"n": uint8(5), "copy": uint8(5)}
	got, err := s.Encode(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []byte{0x06, 0x05}; !bytes.Equal(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}
	if rec["n"] != uint8(5) {
		t.Errorf("encoder must restore the original value on rec, got %v", rec["n"])
	}
}

func TestEncodeStructTarget(t *testing.T) {
	type packet struct {
		N uint16
	}
	s := Start().Uint16BE("n")
	got, err := s.Encode(packet{N: 0x0102})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []byte{0x01, 0x02}; !bytes.Equal(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}
}
