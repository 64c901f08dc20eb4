// SPDX-License-Identifier: MIT

package pschema

import "testing"

func expectBuildPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected a build panic, got none")
		} else if _, ok := r.(*BuildError); !ok {
			t.Fatalf("expected *BuildError, got %T: %v", r, r)
		}
	}()
	fn()
}

func TestStringRequiresExactlyOneMode(t *testing.T) {
	expectBuildPanic(t, func() {
		Start().String("s")
	})
	expectBuildPanic(t, func() {
		Start().String("s", WithLength(4), WithGreedy())
	})
	// length + zeroTerminated together count as one mode.
	Start().String("s", WithLength(4), WithZeroTerminated())
}

func TestStringStripNullRequiresLengthOrGreedy(t *testing.T) {
	expectBuildPanic(t, func() {
		Start().String("s", WithZeroTerminated(), WithStripNull())
	})
	Start().String("s", WithLength(4), WithStripNull())
}

func TestStringUnknownEncodingIsBuildError(t *testing.T) {
	expectBuildPanic(t, func() {
		Start().String("s", WithLength(4), WithEncoding("shift-jis"))
	})
	Start().String("s", WithLength(4), WithEncoding("ascii"))
}

func TestBufferRequiresLengthOrReadUntil(t *testing.T) {
	expectBuildPanic(t, func() {
		Start().Buffer("b")
	})
	Start().Buffer("b", WithLength(4))
	Start().Buffer("b", WithReadUntil("eof"))
}

func TestArrayRequiresTerminatorAndType(t *testing.T) {
	expectBuildPanic(t, func() {
		Start().Array("a", WithLength(2))
	})
	expectBuildPanic(t, func() {
		Start().Array("a", WithType("uint8"))
	})
	// length and lengthInBytes may be combined; lengthInBytes decides on decode.
	Start().Array("a", WithLength(2), WithLengthInBytes(4), WithType("uint8"))
	Start().Array("a", WithLength(2), WithType("uint8"))
}

func TestChoiceRequiresTagAndChoices(t *testing.T) {
	expectBuildPanic(t, func() {
		Start().Choice("c", WithChoices(map[int]any{1: "uint8"}))
	})
	expectBuildPanic(t, func() {
		Start().Choice("c", WithTag("t"))
	})
	Start().Choice("c", WithTag("t"), WithChoices(map[int]any{1: "uint8"}))
}

func TestNestRejectsCatalogKindType(t *testing.T) {
	expectBuildPanic(t, func() {
		Start().Nest("n", WithType("uint8"))
	})
	Start().Nest("n", WithType(Start().Uint8("x")))
}

func TestPointerRequiresOffsetAndType(t *testing.T) {
	expectBuildPanic(t, func() {
		Start().Pointer("p", WithType("uint8"))
	})
	expectBuildPanic(t, func() {
		Start().Pointer("p", WithOffset(4))
	})
	Start().Pointer("p", WithOffset(4), WithType("uint8"))
}

func TestChainingReturnsSameSchema(t *testing.T) {
	s := Start().Uint8("a").Uint16BE("b")
	if s.head.name != "a" || s.head.next.name != "b" {
		t.Fatalf("expected chain a -> b, got %q -> %q", s.head.name, s.head.next.name)
	}
	if s.tail.name != "b" {
		t.Errorf("tail should be the last-appended node")
	}
}

func TestEndiannessAffectsSubsequentNeutralPrimitives(t *testing.T) {
	s := Start().Uint16("a").Endianness(LittleEndian).Uint16("b")
	if s.head.endian != BigEndian {
		t.Errorf("first field should keep the original default")
	}
	if s.head.next.endian != LittleEndian {
		t.Errorf("second field should observe the switched default")
	}
}
