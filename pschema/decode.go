// SPDX-License-Identifier: MIT

package pschema

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"strings"

	"github.com/badsaarow/binary-parser/internal/byteio"
	"github.com/badsaarow/binary-parser/internal/textcodec"
)

// Parse decodes buf against s, honoring s's root Constructor if one was
// supplied to Start/Create (spec §3.1). It is the "parse(bytes) → record"
// terminator from spec §6.
func (s *Schema) Parse(buf []byte) (any, error) {
	if buf == nil {
		return nil, &ArgumentError{Msg: "parse requires a non-nil buffer"}
	}
	r := byteio.NewReader(buf)
	val, _, err := decodeSchema(s, r, 0)
	if err != nil {
		return nil, err
	}
	return val, nil
}

// decodeSchema runs s's chain starting at offset into a fresh record,
// applying s's constructor if present.
func decodeSchema(s *Schema, r *byteio.Reader, offset int) (any, int, error) {
	rec := make(Record)
	newOffset, err := decodeChain(s.head, r, offset, rec)
	if err != nil {
		return nil, offset, err
	}
	if s.ctor != nil {
		return applyConstructor(s.ctor, rec), newOffset, nil
	}
	return rec, newOffset, nil
}

// applyConstructor case-insensitively copies rec's keys onto ctor()'s
// exported struct fields, dropping anything that doesn't match (spec
// §3.1). A constructor value that is not a struct (or pointer to one) is
// returned as constructed, with none of rec's fields copied onto it.
func applyConstructor(ctor func() any, rec Record) any {
	target := ctor()
	rv := reflect.ValueOf(target)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return target
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct || !rv.CanSet() {
		return target
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		for k, v := range rec {
			if !strings.EqualFold(k, f.Name) {
				continue
			}
			fv := rv.Field(i)
			vv := reflect.ValueOf(v)
			if vv.IsValid() && vv.Type().AssignableTo(fv.Type()) {
				fv.Set(vv)
			}
		}
	}
	return target
}

// decodeChain walks a Node chain in order, threading the offset and
// record through each field (spec §4.D "Traversal"). Bit Nodes are
// grouped into maximal runs broken only by a non-bit, non-nest
// successor: a nest sandwiched between bit fields does not flush the
// pack (see decodeBitRun).
func decodeChain(head *Node, r *byteio.Reader, offset int, rec Record) (int, error) {
	n := head
	for n != nil {
		if n.isBit() {
			newOffset, next, err := decodeBitRun(n, r, offset, rec)
			if err != nil {
				return offset, err
			}
			offset, n = newOffset, next
			continue
		}
		newOffset, err := decodeNode(n, r, offset, rec)
		if err != nil {
			return offset, err
		}
		offset, n = newOffset, n.next
	}
	return offset, nil
}

func decodeNode(n *Node, r *byteio.Reader, offset int, rec Record) (int, error) {
	switch n.kind {
	case kindPrimitive:
		val, newOffset, err := decodePrimitiveKind(n.prim, r, offset, n.endian)
		if err != nil {
			return offset, err
		}
		val, err = postProcess(n, rec, val, r, newOffset)
		if err != nil {
			return offset, err
		}
		assign(rec, n.name, val)
		return newOffset, nil
	case kindString:
		return decodeString(n, r, offset, rec)
	case kindBuffer:
		return decodeBuffer(n, r, offset, rec)
	case kindArray:
		return decodeArray(n, r, offset, rec)
	case kindChoice:
		return decodeChoice(n, r, offset, rec)
	case kindNest:
		return decodeNest(n, r, offset, rec)
	case kindSeek:
		length, err := n.opts.length.resolve(rec)
		if err != nil {
			return offset, err
		}
		return offset + length, nil
	case kindPointer:
		return decodePointer(n, r, offset, rec)
	case kindSaveOffset:
		assign(rec, n.name, offset)
		return offset, nil
	default:
		return offset, fmt.Errorf("pschema: unhandled node kind %v", n.kind)
	}
}

func assign(rec Record, name string, val any) {
	if name == "" {
		return
	}
	rec[name] = val
}

// postProcess applies formatter then assert, per spec §4.D.
func postProcess(n *Node, rec Record, val any, r *byteio.Reader, offset int) (any, error) {
	if n.opts.formatter != nil {
		val = n.opts.formatter(val, r.Buf, offset)
	}
	if n.opts.assert != nil {
		ok, expected := n.opts.assert.check(rec, val)
		if !ok {
			return val, &AssertError{Field: n.name, Expected: expected, Observed: val}
		}
	}
	return val, nil
}

// decodePrimitiveKind reads one catalog primitive at offset, resolving
// its endianness against fallback when the kind itself is neutral.
func decodePrimitiveKind(k Kind, r *byteio.Reader, offset int, fallback Endian) (any, int, error) {
	_, entry, ok := lookupKind(string(k))
	if !ok {
		return nil, offset, fmt.Errorf("pschema: unknown primitive kind %q", k)
	}
	order := entry.resolveEndian(fallback).byteOrder()
	switch entry.width {
	case 1:
		if entry.kind == numInt {
			v, err := r.Int8(offset)
			return v, offset + 1, err
		}
		v, err := r.Uint8(offset)
		return v, offset + 1, err
	case 2:
		if entry.kind == numInt {
			v, err := r.Int16(offset, order)
			return v, offset + 2, err
		}
		v, err := r.Uint16(offset, order)
		return v, offset + 2, err
	case 4:
		switch entry.kind {
		case numInt:
			v, err := r.Int32(offset, order)
			return v, offset + 4, err
		case numFloat:
			v, err := r.Float32(offset, order)
			return v, offset + 4, err
		default:
			v, err := r.Uint32(offset, order)
			return v, offset + 4, err
		}
	case 8:
		switch entry.kind {
		case numInt:
			v, err := r.Int64(offset, order)
			return v, offset + 8, err
		case numFloat:
			v, err := r.Float64(offset, order)
			return v, offset + 8, err
		default:
			v, err := r.Uint64(offset, order)
			return v, offset + 8, err
		}
	}
	return nil, offset, fmt.Errorf("pschema: unsupported primitive width %d", entry.width)
}

// decodeTypeRef resolves a TypeRef against a catalog kind, a registered
// alias, or an inline Schema (spec §4.D, shared by array/choice/nest/
// pointer).
func decodeTypeRef(t TypeRef, r *byteio.Reader, offset int, fallback Endian) (any, int, error) {
	switch {
	case t.isKind:
		return decodePrimitiveKind(t.kind, r, offset, fallback)
	case t.isAlias:
		s, ok := lookupAlias(t.alias)
		if !ok {
			return nil, offset, &UnknownAliasError{Alias: t.alias}
		}
		return decodeSchema(s, r, offset)
	case t.inline != nil:
		return decodeSchema(t.inline, r, offset)
	default:
		return nil, offset, fmt.Errorf("pschema: empty type reference")
	}
}

// decodeBitRun consumes a maximal run of bit Nodes starting at head as a
// single packed big-endian integer (spec §3, §4.D). The run is broken
// only by a non-bit, non-nest successor: a nest sandwiched between bit
// fields does not flush the pack — it is decoded, in its original
// order, once the packed integer has been read and its bit fields
// extracted. Returns the offset and the first non-bit, non-nest
// successor.
func decodeBitRun(head *Node, r *byteio.Reader, offset int, rec Record) (int, *Node, error) {
	var members []*Node
	var nests []*Node
	n := head
	for n != nil && (n.isBit() || n.kind == kindNest) {
		if n.isBit() {
			members = append(members, n)
		} else {
			nests = append(nests, n)
		}
		n = n.next
	}
	total := 0
	for _, m := range members {
		total += m.bitWidth
	}
	if total > 32 {
		return offset, nil, &BitSequenceTooLongError{Field: head.name, Bits: total}
	}
	width := widthForBits(total)
	var packed uint32
	switch width {
	case 1:
		v, err := r.Uint8(offset)
		if err != nil {
			return offset, nil, err
		}
		packed = uint32(v)
	case 2:
		v, err := r.Uint16(offset, binary.BigEndian)
		if err != nil {
			return offset, nil, err
		}
		packed = uint32(v)
	case 3:
		v, err := r.Uint24(offset)
		if err != nil {
			return offset, nil, err
		}
		packed = v
	case 4:
		v, err := r.Uint32(offset, binary.BigEndian)
		if err != nil {
			return offset, nil, err
		}
		packed = v
	}
	offset += width

	endian := head.endian
	cumulative := 0
	for _, m := range members {
		w := m.bitWidth
		var shift int
		if endian == BigEndian {
			shift = total - cumulative - w
		} else {
			shift = cumulative
		}
		mask := uint32(1)<<uint(w) - 1
		val := int((packed >> uint(shift)) & mask)
		pv, err := postProcess(m, rec, val, r, offset)
		if err != nil {
			return offset, nil, err
		}
		assign(rec, m.name, pv)
		cumulative += w
	}

	for _, nn := range nests {
		newOffset, err := decodeNode(nn, r, offset, rec)
		if err != nil {
			return offset, nil, err
		}
		offset = newOffset
	}
	return offset, n, nil
}

// decodeString implements the four modes from spec §4.D in priority
// order: length+zeroTerminated, length, zeroTerminated, greedy.
func decodeString(n *Node, r *byteio.Reader, offset int, rec Record) (int, error) {
	o := &n.opts
	start := offset
	var raw []byte
	var newOffset int

	switch {
	case o.hasLength && o.zeroTerminated:
		// spec §4.D mode 1 / §8: the offset advances by the number of
		// bytes actually consumed (up to and including the terminator),
		// not by the full declared length — "ab\0cd" with length=5
		// yields "ab" and advances by 3, mirroring the original's
		// while(buf[offset++]!==0 && offset-start<len) cursor.
		length, err := o.length.resolve(rec)
		if err != nil {
			return offset, err
		}
		limit := start + length
		end := start
		for end < limit {
			c, err := r.Uint8(end)
			if err != nil {
				return offset, err
			}
			if c == 0 {
				break
			}
			end++
		}
		b, err := r.Bytes(start, end-start)
		if err != nil {
			return offset, err
		}
		raw = b
		consumed := end - start
		if end < limit {
			consumed++ // include the terminator byte itself
		}
		newOffset = start + consumed
	case o.hasLength:
		length, err := o.length.resolve(rec)
		if err != nil {
			return offset, err
		}
		b, err := r.Bytes(start, length)
		if err != nil {
			return offset, err
		}
		raw = b
		newOffset = start + length
	case o.zeroTerminated:
		end := start
		for {
			c, err := r.Uint8(end)
			if err != nil {
				return offset, err
			}
			if c == 0 {
				break
			}
			end++
		}
		b, err := r.Bytes(start, end-start)
		if err != nil {
			return offset, err
		}
		raw = b
		newOffset = end + 1
	case o.greedy:
		b, err := r.Bytes(start, r.Len()-start)
		if err != nil {
			return offset, err
		}
		raw = b
		newOffset = r.Len()
	default:
		return offset, fmt.Errorf("pschema: string %q has no decode mode", n.name)
	}

	if o.stripNull {
		end := len(raw)
		for end > 0 && raw[end-1] == 0 {
			end--
		}
		raw = raw[:end]
	}

	codec, err := textcodec.Lookup(o.encoding)
	if err != nil {
		return offset, err
	}
	text, err := codec.Decode(raw)
	if err != nil {
		return offset, err
	}
	if o.trim {
		text = strings.TrimSpace(text)
	}

	val, err := postProcess(n, rec, any(text), r, newOffset)
	if err != nil {
		return offset, err
	}
	assign(rec, n.name, val)
	return newOffset, nil
}

// decodeBuffer implements spec §4.D's buffer modes: byte-predicate
// readUntil, eof, or an exact length.
func decodeBuffer(n *Node, r *byteio.Reader, offset int, rec Record) (int, error) {
	o := &n.opts
	start := offset
	var raw []byte
	var newOffset int

	switch {
	case o.readUntilByte != nil:
		pos := start
		for {
			c, err := r.Uint8(pos)
			if err != nil {
				return offset, err
			}
			remaining, err := r.Bytes(pos, r.Len()-pos)
			if err != nil {
				return offset, err
			}
			if o.readUntilByte(c, remaining) {
				break
			}
			pos++
		}
		b, err := r.Bytes(start, pos-start)
		if err != nil {
			return offset, err
		}
		raw = b
		newOffset = pos
	case o.readUntilEOF:
		b, err := r.Bytes(start, r.Len()-start)
		if err != nil {
			return offset, err
		}
		raw = b
		newOffset = r.Len()
	case o.hasLength:
		length, err := o.length.resolve(rec)
		if err != nil {
			return offset, err
		}
		b, err := r.Bytes(start, length)
		if err != nil {
			return offset, err
		}
		raw = b
		newOffset = start + length
	default:
		return offset, fmt.Errorf("pschema: buffer %q has no decode mode", n.name)
	}

	if o.clone {
		cp := make([]byte, len(raw))
		copy(cp, raw)
		raw = cp
	}

	val, err := postProcess(n, rec, any(raw), r, newOffset)
	if err != nil {
		return offset, err
	}
	assign(rec, n.name, val)
	return newOffset, nil
}

// decodeArray implements spec §4.D's four termination modes and the
// optional dictionary-keyed decode-only form.
func decodeArray(n *Node, r *byteio.Reader, offset int, rec Record) (int, error) {
	o := &n.opts
	start := offset
	pos := offset

	var items []any
	var dict Record
	if o.key != "" {
		dict = make(Record)
	}
	put := func(item any) {
		if dict != nil {
			if m, ok := item.(Record); ok {
				if kv, ok := m[o.key]; ok {
					dict[fmt.Sprint(kv)] = item
					return
				}
			}
		}
		items = append(items, item)
	}
	decodeOne := func(p int) (any, int, error) {
		return decodeTypeRef(o.typ, r, p, n.endian)
	}

	switch {
	case o.readUntilItem != nil:
		// do-while: decode at least one item even on an empty buffer,
		// per spec §9's stated at-least-one compatibility behavior.
		for {
			item, newPos, err := decodeOne(pos)
			if err != nil {
				return offset, err
			}
			pos = newPos
			put(item)
			remaining, err := r.Bytes(pos, r.Len()-pos)
			if err != nil {
				return offset, err
			}
			if o.readUntilItem(item, remaining) {
				break
			}
		}
	case o.readUntilEOF:
		for pos < r.Len() {
			item, newPos, err := decodeOne(pos)
			if err != nil {
				return offset, err
			}
			pos = newPos
			put(item)
		}
	case o.hasLenInBytes:
		limit, err := o.lengthInBytes.resolve(rec)
		if err != nil {
			return offset, err
		}
		for pos-start < limit {
			item, newPos, err := decodeOne(pos)
			if err != nil {
				return offset, err
			}
			pos = newPos
			put(item)
		}
	case o.hasLength:
		count, err := o.length.resolve(rec)
		if err != nil {
			return offset, err
		}
		for i := 0; i < count; i++ {
			item, newPos, err := decodeOne(pos)
			if err != nil {
				return offset, err
			}
			pos = newPos
			put(item)
		}
	default:
		return offset, fmt.Errorf("pschema: array %q has no decode mode", n.name)
	}

	var val any
	switch {
	case dict != nil:
		val = dict
	case items == nil:
		val = []any{}
	default:
		val = items
	}
	val, err := postProcess(n, rec, val, r, pos)
	if err != nil {
		return offset, err
	}
	assign(rec, n.name, val)
	return pos, nil
}

// decodeChoice dispatches on the resolved tag and decodes the matching
// (or default) branch (spec §4.D).
func decodeChoice(n *Node, r *byteio.Reader, offset int, rec Record) (int, error) {
	o := &n.opts
	tag, err := o.tag.resolve(rec)
	if err != nil {
		return offset, err
	}
	chosen, ok := o.choices[tag]
	if !ok {
		if !o.hasDef {
			return offset, &UndefinedTagError{Field: n.name, Tag: tag}
		}
		chosen = o.defChoice
	}
	val, newOffset, err := decodeTypeRef(chosen, r, offset, n.endian)
	if err != nil {
		return offset, err
	}
	val, err = postProcess(n, rec, val, r, newOffset)
	if err != nil {
		return offset, err
	}
	assign(rec, n.name, val)
	return newOffset, nil
}

// decodeNest decodes an inline or aliased subschema, merging it into the
// parent record when unnamed (spec §4.D).
func decodeNest(n *Node, r *byteio.Reader, offset int, rec Record) (int, error) {
	o := &n.opts
	val, newOffset, err := decodeTypeRef(o.typ, r, offset, n.endian)
	if err != nil {
		return offset, err
	}
	val, err = postProcess(n, rec, val, r, newOffset)
	if err != nil {
		return offset, err
	}
	if n.name == "" {
		if sub, ok := val.(Record); ok {
			for k, v := range sub {
				rec[k] = v
			}
		}
		return newOffset, nil
	}
	assign(rec, n.name, val)
	return newOffset, nil
}

// decodePointer saves the current offset, jumps to the resolved
// absolute offset, decodes type there, then restores the outer offset
// (spec §4.D — "the only node that may leave the offset unchanged").
func decodePointer(n *Node, r *byteio.Reader, offset int, rec Record) (int, error) {
	o := &n.opts
	abs, err := o.offset.resolve(rec)
	if err != nil {
		return offset, err
	}
	val, _, err := decodeTypeRef(o.typ, r, abs, n.endian)
	if err != nil {
		return offset, err
	}
	val, err = postProcess(n, rec, val, r, offset)
	if err != nil {
		return offset, err
	}
	assign(rec, n.name, val)
	return offset, nil
}
