// SPDX-License-Identifier: MIT

package byteio

import (
	"encoding/binary"
	"math"
)

// Sink is a growable byte accumulator used by the encode planner. It
// mirrors the "growable buffer supporting append-bytes / append-text /
// snapshot-to-bytes" ByteIO contract from spec §6.
type Sink struct {
	buf []byte
}

// NewSink allocates a Sink with the given initial capacity hint
// (the schema's smartBufferSize option, default 256).
func NewSink(capacityHint int) *Sink {
	if capacityHint <= 0 {
		capacityHint = 256
	}
	return &Sink{buf: make([]byte, 0, capacityHint)}
}

func (s *Sink) AppendBytes(b []byte) {
	s.buf = append(s.buf, b...)
}

func (s *Sink) AppendZeros(n int) {
	for i := 0; i < n; i++ {
		s.buf = append(s.buf, 0)
	}
}

func (s *Sink) AppendUint8(v uint8) {
	s.buf = append(s.buf, v)
}

func (s *Sink) AppendUint16(v uint16, order binary.ByteOrder) {
	var tmp [2]byte
	order.PutUint16(tmp[:], v)
	s.buf = append(s.buf, tmp[:]...)
}

// AppendUint24 writes a 3-byte big-endian unsigned integer — see
// Reader.Uint24 for why this is always big-endian.
func (s *Sink) AppendUint24(v uint32) {
	s.buf = append(s.buf, byte(v>>16), byte(v>>8), byte(v))
}

func (s *Sink) AppendUint32(v uint32, order binary.ByteOrder) {
	var tmp [4]byte
	order.PutUint32(tmp[:], v)
	s.buf = append(s.buf, tmp[:]...)
}

func (s *Sink) AppendUint64(v uint64, order binary.ByteOrder) {
	var tmp [8]byte
	order.PutUint64(tmp[:], v)
	s.buf = append(s.buf, tmp[:]...)
}

func (s *Sink) AppendInt8(v int8)   { s.AppendUint8(uint8(v)) }
func (s *Sink) AppendInt16(v int16, order binary.ByteOrder) { s.AppendUint16(uint16(v), order) }
func (s *Sink) AppendInt32(v int32, order binary.ByteOrder) { s.AppendUint32(uint32(v), order) }
func (s *Sink) AppendInt64(v int64, order binary.ByteOrder) { s.AppendUint64(uint64(v), order) }

func (s *Sink) AppendFloat32(v float32, order binary.ByteOrder) {
	s.AppendUint32(math.Float32bits(v), order)
}

func (s *Sink) AppendFloat64(v float64, order binary.ByteOrder) {
	s.AppendUint64(math.Float64bits(v), order)
}

func (s *Sink) AppendText(text []byte) {
	s.buf = append(s.buf, text...)
}

// Bytes returns the accumulated bytes. The caller must not mutate the
// backing array after further writes to the Sink.
func (s *Sink) Bytes() []byte {
	return s.buf
}

func (s *Sink) Len() int { return len(s.buf) }

// Truncate shrinks the sink to the first n bytes, used to enforce
// lengthInBytes on array encoding.
func (s *Sink) Truncate(n int) {
	if n < len(s.buf) {
		s.buf = s.buf[:n]
	}
}
