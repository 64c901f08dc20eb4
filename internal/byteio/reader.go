// SPDX-License-Identifier: MIT

// Package byteio provides the fixed-width numeric readers and writers that
// the schema engine treats as an external ByteIO facility. It knows nothing
// about schemas, nodes or records: it only knows how to move bytes.
package byteio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ErrShortBuffer is returned when a read would run past the end of the
// underlying slice.
type ErrShortBuffer struct {
	Need   int
	Offset int
	Have   int
}

func (e *ErrShortBuffer) Error() string {
	return fmt.Sprintf("byteio: need %d byte(s) at offset %d, only %d remaining", e.Need, e.Offset, e.Have)
}

// Reader reads fixed-width values out of a fixed byte slice at an
// explicit offset. It never advances an internal cursor on its own —
// callers own offset bookkeeping, since the schema engine needs to jump
// around for pointer fields.
type Reader struct {
	Buf []byte
}

func NewReader(buf []byte) *Reader {
	return &Reader{Buf: buf}
}

func (r *Reader) require(offset, n int) error {
	if offset < 0 || offset+n > len(r.Buf) {
		have := len(r.Buf) - offset
		if have < 0 {
			have = 0
		}
		return &ErrShortBuffer{Need: n, Offset: offset, Have: have}
	}
	return nil
}

func (r *Reader) Bytes(offset, n int) ([]byte, error) {
	if err := r.require(offset, n); err != nil {
		return nil, err
	}
	return r.Buf[offset : offset+n], nil
}

func (r *Reader) Uint8(offset int) (uint8, error) {
	b, err := r.Bytes(offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Uint16(offset int, order binary.ByteOrder) (uint16, error) {
	b, err := r.Bytes(offset, 2)
	if err != nil {
		return 0, err
	}
	return order.Uint16(b), nil
}

// Uint24 reads a 3-byte big-endian unsigned integer. The schema engine's
// bit-packing path is the only caller that needs 24-bit widths, and the
// packed integer is always big-endian regardless of schema endianness
// (spec §4.D), so there is no little-endian variant.
func (r *Reader) Uint24(offset int) (uint32, error) {
	b, err := r.Bytes(offset, 3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
}

func (r *Reader) Uint32(offset int, order binary.ByteOrder) (uint32, error) {
	b, err := r.Bytes(offset, 4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(b), nil
}

func (r *Reader) Uint64(offset int, order binary.ByteOrder) (uint64, error) {
	b, err := r.Bytes(offset, 8)
	if err != nil {
		return 0, err
	}
	return order.Uint64(b), nil
}

func (r *Reader) Int8(offset int) (int8, error) {
	v, err := r.Uint8(offset)
	return int8(v), err
}

func (r *Reader) Int16(offset int, order binary.ByteOrder) (int16, error) {
	v, err := r.Uint16(offset, order)
	return int16(v), err
}

func (r *Reader) Int32(offset int, order binary.ByteOrder) (int32, error) {
	v, err := r.Uint32(offset, order)
	return int32(v), err
}

func (r *Reader) Int64(offset int, order binary.ByteOrder) (int64, error) {
	v, err := r.Uint64(offset, order)
	return int64(v), err
}

func (r *Reader) Float32(offset int, order binary.ByteOrder) (float32, error) {
	v, err := r.Uint32(offset, order)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *Reader) Float64(offset int, order binary.ByteOrder) (float64, error) {
	v, err := r.Uint64(offset, order)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// Len reports the size of the underlying buffer.
func (r *Reader) Len() int { return len(r.Buf) }
