// SPDX-License-Identifier: MIT

package pschema

import (
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/badsaarow/binary-parser/internal/byteio"
	"github.com/badsaarow/binary-parser/internal/textcodec"
)

// Encode serializes rec against s, the "encode(record) → bytes"
// terminator from spec §6. rec must be a Record or a struct/pointer
// whose exported fields are read by case-insensitive name, mirroring
// Parse's constructor convention in reverse.
func (s *Schema) Encode(rec any) ([]byte, error) {
	m, ok := toRecord(rec)
	if !ok {
		return nil, &ArgumentError{Msg: "encode requires a record or a struct"}
	}
	sink := byteio.NewSink(0)
	if err := encodeChain(s.head, sink, m); err != nil {
		return nil, err
	}
	return sink.Bytes(), nil
}

// toRecord accepts a Record directly, or reflects a struct/pointer's
// exported fields into one.
func toRecord(v any) (Record, bool) {
	if m, ok := v.(Record); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	out := make(Record, rv.NumField())
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		out[f.Name] = rv.Field(i).Interface()
	}
	return out, true
}

// encodeChain mirrors decodeChain: it walks the Node chain, grouping
// bit Nodes into packed writes across any nest sandwiched between them.
func encodeChain(head *Node, sink *byteio.Sink, rec Record) error {
	n := head
	for n != nil {
		if n.isBit() {
			next, err := encodeBitRun(n, sink, rec)
			if err != nil {
				return err
			}
			n = next
			continue
		}
		if err := encodeNode(n, sink, rec); err != nil {
			return err
		}
		n = n.next
	}
	return nil
}

// withEncoder applies n's encoder hook for the duration of fn, restoring
// rec[n.name] afterward so sibling fields observe the untransformed
// value (spec §4.E "Pre-transform").
func withEncoder(n *Node, rec Record, fn func(value any) error) error {
	value, had := recordGet(rec, n.name)
	if n.opts.encoder != nil {
		transformed := n.opts.encoder(value, rec)
		rec[n.name] = transformed
		defer func() {
			if had {
				rec[n.name] = value
			} else {
				delete(rec, n.name)
			}
		}()
		value = transformed
	}
	if n.opts.assert != nil {
		ok, expected := n.opts.assert.check(rec, value)
		if !ok {
			return &AssertError{Field: n.name, Expected: expected, Observed: value}
		}
	}
	return fn(value)
}

func encodeNode(n *Node, sink *byteio.Sink, rec Record) error {
	switch n.kind {
	case kindPrimitive:
		return withEncoder(n, rec, func(value any) error {
			return encodePrimitiveKind(n.prim, sink, value, n.endian)
		})
	case kindString:
		return encodeString(n, sink, rec)
	case kindBuffer:
		return encodeBuffer(n, sink, rec)
	case kindArray:
		return encodeArray(n, sink, rec)
	case kindChoice:
		return encodeChoice(n, sink, rec)
	case kindNest:
		return encodeNest(n, sink, rec)
	case kindSeek:
		length, err := n.opts.length.resolve(rec)
		if err != nil {
			return err
		}
		if length > 0 {
			sink.AppendZeros(length)
		}
		return nil
	case kindPointer, kindSaveOffset:
		// Unsupported on encode; the reference behavior is a zero-width
		// no-op (spec §4.E, §9).
		return nil
	default:
		return fmt.Errorf("pschema: unhandled node kind %v", n.kind)
	}
}

func encodePrimitiveKind(k Kind, sink *byteio.Sink, value any, fallback Endian) error {
	_, entry, ok := lookupKind(string(k))
	if !ok {
		return fmt.Errorf("pschema: unknown primitive kind %q", k)
	}
	order := entry.resolveEndian(fallback).byteOrder()
	f, fok := toFloat(value)
	switch entry.width {
	case 1:
		if !fok {
			return fmt.Errorf("pschema: cannot encode %v (%T) as %s", value, value, k)
		}
		if entry.kind == numInt {
			sink.AppendInt8(int8(f))
		} else {
			sink.AppendUint8(uint8(f))
		}
	case 2:
		if !fok {
			return fmt.Errorf("pschema: cannot encode %v (%T) as %s", value, value, k)
		}
		if entry.kind == numInt {
			sink.AppendInt16(int16(f), order)
		} else {
			sink.AppendUint16(uint16(f), order)
		}
	case 4:
		if !fok {
			return fmt.Errorf("pschema: cannot encode %v (%T) as %s", value, value, k)
		}
		switch entry.kind {
		case numInt:
			sink.AppendInt32(int32(f), order)
		case numFloat:
			sink.AppendFloat32(float32(f), order)
		default:
			sink.AppendUint32(uint32(f), order)
		}
	case 8:
		switch entry.kind {
		case numInt:
			iv, ok := toInt64(value)
			if !ok {
				return fmt.Errorf("pschema: cannot encode %v (%T) as %s", value, value, k)
			}
			sink.AppendInt64(iv, order)
		case numFloat:
			if !fok {
				return fmt.Errorf("pschema: cannot encode %v (%T) as %s", value, value, k)
			}
			sink.AppendFloat64(f, order)
		default:
			uv, ok := toUint64(value)
			if !ok {
				return fmt.Errorf("pschema: cannot encode %v (%T) as %s", value, value, k)
			}
			sink.AppendUint64(uv, order)
		}
	default:
		return fmt.Errorf("pschema: unsupported primitive width %d", entry.width)
	}
	return nil
}

// encodeTypeRef writes one value of a resolved TypeRef, shared by
// array/choice/nest (spec §4.E). Pointer never encodes a type through
// this path since Pointer itself is a no-op on encode.
func encodeTypeRef(t TypeRef, sink *byteio.Sink, value any, fallback Endian) error {
	switch {
	case t.isKind:
		return encodePrimitiveKind(t.kind, sink, value, fallback)
	case t.isAlias:
		s, ok := lookupAlias(t.alias)
		if !ok {
			return &UnknownAliasError{Alias: t.alias}
		}
		return encodeSchemaInto(s, sink, value)
	case t.inline != nil:
		return encodeSchemaInto(t.inline, sink, value)
	default:
		return fmt.Errorf("pschema: empty type reference")
	}
}

func encodeSchemaInto(s *Schema, sink *byteio.Sink, value any) error {
	m, ok := toRecord(value)
	if !ok {
		return fmt.Errorf("pschema: cannot encode %v (%T) as a nested record", value, value)
	}
	return encodeChain(s.head, sink, m)
}

// encodeBitRun mirrors decodeBitRun: it packs the named field values of a
// maximal run of bit Nodes starting at head with the same shift rules used
// at decode, and writes the rounded-up width as a single big-endian
// integer (spec §4.E). As in decodeBitRun, the run is
// broken only by a non-bit, non-nest successor: a nest sandwiched
// between bit fields does not flush the pack — it is encoded, in its
// original order, right after the packed integer is written.
func encodeBitRun(head *Node, sink *byteio.Sink, rec Record) (*Node, error) {
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
		return nil, &BitSequenceTooLongError{Field: head.name, Bits: total}
	}

	endian := head.endian
	var packed uint32
	cumulative := 0
	for _, m := range members {
		w := m.bitWidth
		raw, ok := recordGet(rec, m.name)
		if !ok {
			return nil, fmt.Errorf("pschema: field %q missing from record", m.name)
		}
		val, err := toInt(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", m.name, err)
		}
		if m.opts.assert != nil {
			ok, expected := m.opts.assert.check(rec, val)
			if !ok {
				return nil, &AssertError{Field: m.name, Expected: expected, Observed: val}
			}
		}
		var shift int
		if endian == BigEndian {
			shift = total - cumulative - w
		} else {
			shift = cumulative
		}
		mask := uint32(1)<<uint(w) - 1
		packed |= (uint32(val) & mask) << uint(shift)
		cumulative += w
	}

	width := widthForBits(total)
	switch width {
	case 1:
		sink.AppendUint8(uint8(packed))
	case 2:
		sink.AppendUint16(uint16(packed), binary.BigEndian)
	case 3:
		sink.AppendUint24(packed)
	case 4:
		sink.AppendUint32(packed, binary.BigEndian)
	}

	for _, nn := range nests {
		if err := encodeNode(nn, sink, rec); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// encodeString implements spec §4.E's fixed and variable-length string
// encoding, including padding and zero-termination.
func encodeString(n *Node, sink *byteio.Sink, rec Record) error {
	o := &n.opts
	return withEncoder(n, rec, func(value any) error {
		text, _ := value.(string)
		codec, err := textcodec.Lookup(o.encoding)
		if err != nil {
			return err
		}
		raw, err := codec.Encode(text)
		if err != nil {
			return err
		}

		if o.hasLength {
			length, err := o.length.resolve(rec)
			if err != nil {
				return err
			}
			if len(raw) > length {
				raw = raw[:length]
			} else if len(raw) < length {
				pad := make([]byte, length-len(raw))
				ch := o.padChar
				if ch == 0 {
					ch = ' '
				}
				for i := range pad {
					pad[i] = ch
				}
				if o.padding == "left" {
					raw = append(pad, raw...)
				} else {
					raw = append(raw, pad...)
				}
			}
			sink.AppendText(raw)
			if o.zeroTerminated {
				sink.AppendZeros(1)
			}
			return nil
		}

		sink.AppendText(raw)
		if o.zeroTerminated {
			sink.AppendZeros(1)
		}
		return nil
	})
}

// encodeBuffer writes a byte slice verbatim, no padding (spec §4.E).
func encodeBuffer(n *Node, sink *byteio.Sink, rec Record) error {
	return withEncoder(n, rec, func(value any) error {
		b, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("pschema: field %q: cannot encode %T as a buffer", n.name, value)
		}
		sink.AppendBytes(b)
		return nil
	})
}

// encodeArray implements spec §4.E: a temporary sink so lengthInBytes
// can post-truncate, and a write-loop terminator that mirrors decode's
// termination modes.
func encodeArray(n *Node, sink *byteio.Sink, rec Record) error {
	o := &n.opts
	return withEncoder(n, rec, func(value any) error {
		if _, isDict := value.(Record); isDict {
			return &UnsupportedEncodingError{Field: n.name, Msg: "dictionary-keyed arrays cannot be encoded"}
		}
		items, ok := toSlice(value)
		if !ok {
			return fmt.Errorf("pschema: field %q: cannot encode %T as an array", n.name, value)
		}

		count := len(items)
		if o.hasLength {
			want, err := o.length.resolve(rec)
			if err != nil {
				return err
			}
			if want < count {
				count = want
			}
		}

		tmp := byteio.NewSink(o.smartBufferSize)
		for i := 0; i < count; i++ {
			item := items[i]
			if err := encodeTypeRef(o.typ, tmp, item, n.endian); err != nil {
				return err
			}
			if o.encodeUntil != nil && o.encodeUntil(item, rec) {
				break
			}
			if o.readUntilItem != nil && o.readUntilItem(item, tmp.Bytes()) {
				break
			}
		}
		if o.hasLenInBytes {
			limit, err := o.lengthInBytes.resolve(rec)
			if err != nil {
				return err
			}
			tmp.Truncate(limit)
		}
		sink.AppendBytes(tmp.Bytes())
		return nil
	})
}

func toSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// encodeChoice dispatches on the resolved tag, mirroring decodeChoice.
func encodeChoice(n *Node, sink *byteio.Sink, rec Record) error {
	o := &n.opts
	return withEncoder(n, rec, func(value any) error {
		tag, err := o.tag.resolve(rec)
		if err != nil {
			return err
		}
		chosen, ok := o.choices[tag]
		if !ok {
			if !o.hasDef {
				return &UndefinedTagError{Field: n.name, Tag: tag}
			}
			chosen = o.defChoice
		}
		return encodeTypeRef(chosen, sink, value, n.endian)
	})
}

// encodeNest encodes an inline or aliased subrecord (spec §4.E). A named
// nest goes through the usual withEncoder hook; an unnamed nest reads
// its fields back out of the parent record instead of a single named
// value, so it applies encoder/assert to the whole record directly.
func encodeNest(n *Node, sink *byteio.Sink, rec Record) error {
	o := &n.opts
	if n.name != "" {
		return withEncoder(n, rec, func(value any) error {
			return encodeTypeRef(o.typ, sink, value, n.endian)
		})
	}
	value := any(rec)
	if n.opts.encoder != nil {
		value = n.opts.encoder(value, rec)
	}
	if n.opts.assert != nil {
		ok, expected := n.opts.assert.check(rec, value)
		if !ok {
			return &AssertError{Field: n.name, Expected: expected, Observed: value}
		}
	}
	return encodeTypeRef(o.typ, sink, value, n.endian)
}
