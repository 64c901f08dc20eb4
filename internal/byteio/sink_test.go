// SPDX-License-Identifier: MIT

package byteio

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestSinkAppendRoundTrip(t *testing.T) {
	s := NewSink(0)
	s.AppendUint8(0xab)
	s.AppendUint16(0x0102, binary.BigEndian)
	s.AppendUint24(0x030405)
	s.AppendUint32(0x06070809, binary.LittleEndian)
	s.AppendText([]byte("hi"))

	want := []byte{0xab, 0x01, 0x02, 0x03, 0x04, 0x05, 0x09, 0x08, 0x07, 0x06, 'h', 'i'}
	if got := s.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}
}

func TestSinkTruncate(t *testing.T) {
	s := NewSink(0)
	s.AppendBytes([]byte{1, 2, 3, 4, 5})
	s.Truncate(3)
	if got := s.Bytes(); !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", got)
	}
	// truncating past the current length is a no-op
	s.Truncate(10)
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
}

func TestSinkAppendZeros(t *testing.T) {
	s := NewSink(0)
	s.AppendZeros(4)
	if got := s.Bytes(); !bytes.Equal(got, []byte{0, 0, 0, 0}) {
		t.Errorf("got %v, want four zero bytes", got)
	}
}

func TestSinkDefaultCapacity(t *testing.T) {
	s := NewSink(0)
	if cap(s.buf) != 256 {
		t.Errorf("capacity = %d, want default 256", cap(s.buf))
	}
}
