// SPDX-License-Identifier: MIT

package pschema

// Schema is a head/tail reference into a chain of Nodes (spec §3). The
// zero value is not usable; construct one with Start.
type Schema struct {
	head *Node
	tail *Node

	endian Endian
	alias  string
	ctor   func() any
}

// RootOptions configures the root Schema returned by Start.
type RootOptions struct {
	// Endian sets the schema's initial default endianness. Defaults to
	// BigEndian, matching spec §3's "Numeric primitives ... endianness
	// may be switched ... default is unspecified" being read as
	// big-endian-first, the network-byte-order convention the catalog's
	// *be methods are named after.
	Endian Endian
	// Constructor, if set, produces the target value that Parse
	// populates by field-name-matching reflection instead of returning
	// a bare Record.
	Constructor func() any
}

// Start returns a new root Schema. Appended nodes are never themselves
// valid roots (spec §4.B).
func Start(opts ...RootOptions) *Schema {
	s := &Schema{endian: BigEndian}
	if len(opts) > 0 {
		if opts[0].Endian == LittleEndian {
			s.endian = LittleEndian
		}
		s.ctor = opts[0].Constructor
	}
	return s
}

// append links a new Node onto the chain and returns the schema for
// further chaining.
func (s *Schema) append(n *Node) *Schema {
	if s.head == nil {
		s.head = n
		s.tail = n
		return s
	}
	s.tail.next = n
	s.tail = n
	return s
}

func (s *Schema) fail(field, msg string) {
	panic(&BuildError{Field: field, Msg: msg})
}

func (s *Schema) applyOptions(field string, o *Options, opts []Option) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			s.fail(field, err.Error())
		}
	}
}

// Endianness switches the schema's current default endianness; it
// affects endian-neutral primitive methods and bit-run extraction order
// for nodes appended afterward (spec §3).
func (s *Schema) Endianness(dir Endian) *Schema {
	s.endian = dir
	return s
}

// Namely registers s in the process-wide alias registry under name,
// enabling forward and recursive references (spec §4.B, §4.C).
func (s *Schema) Namely(name string) *Schema {
	namely(s, name)
	return s
}

// Create sets a constructor used at decode time to build the root's
// target value (spec §3, "optionally an instance of a user-supplied
// record constructor for the root").
func (s *Schema) Create(ctor func() any) *Schema {
	s.ctor = ctor
	return s
}

// -- primitive builder methods -----------------------------------------

func (s *Schema) appendPrimitive(name string, k Kind, fixedEndian *Endian, opts ...Option) *Schema {
	e := s.endian
	if fixedEndian != nil {
		e = *fixedEndian
	}
	var o Options
	s.applyOptions(name, &o, opts)
	return s.append(&Node{kind: kindPrimitive, prim: k, name: name, endian: e, opts: o})
}

func be(e Endian) *Endian { return &e }

func (s *Schema) Uint8(name string, opts ...Option) *Schema {
	return s.appendPrimitive(name, KindUint8, nil, opts...)
}
func (s *Schema) Int8(name string) *Schema  { return s.appendPrimitive(name, KindInt8, nil) }

func (s *Schema) Uint16(name string) *Schema   { return s.appendPrimitive(name, KindUint16, nil) }
func (s *Schema) Uint16BE(name string) *Schema { return s.appendPrimitive(name, KindUint16, be(BigEndian)) }
func (s *Schema) Uint16LE(name string) *Schema { return s.appendPrimitive(name, KindUint16, be(LittleEndian)) }
func (s *Schema) Int16(name string) *Schema    { return s.appendPrimitive(name, KindInt16, nil) }
func (s *Schema) Int16BE(name string) *Schema  { return s.appendPrimitive(name, KindInt16, be(BigEndian)) }
func (s *Schema) Int16LE(name string) *Schema  { return s.appendPrimitive(name, KindInt16, be(LittleEndian)) }

func (s *Schema) Uint32(name string) *Schema   { return s.appendPrimitive(name, KindUint32, nil) }
func (s *Schema) Uint32BE(name string) *Schema { return s.appendPrimitive(name, KindUint32, be(BigEndian)) }
func (s *Schema) Uint32LE(name string) *Schema { return s.appendPrimitive(name, KindUint32, be(LittleEndian)) }
func (s *Schema) Int32(name string) *Schema    { return s.appendPrimitive(name, KindInt32, nil) }
func (s *Schema) Int32BE(name string) *Schema  { return s.appendPrimitive(name, KindInt32, be(BigEndian)) }
func (s *Schema) Int32LE(name string) *Schema  { return s.appendPrimitive(name, KindInt32, be(LittleEndian)) }

func (s *Schema) Uint64(name string) *Schema   { return s.appendPrimitive(name, KindUint64, nil) }
func (s *Schema) Uint64BE(name string) *Schema { return s.appendPrimitive(name, KindUint64, be(BigEndian)) }
func (s *Schema) Uint64LE(name string) *Schema { return s.appendPrimitive(name, KindUint64, be(LittleEndian)) }
func (s *Schema) Int64(name string) *Schema    { return s.appendPrimitive(name, KindInt64, nil) }
func (s *Schema) Int64BE(name string) *Schema  { return s.appendPrimitive(name, KindInt64, be(BigEndian)) }
func (s *Schema) Int64LE(name string) *Schema  { return s.appendPrimitive(name, KindInt64, be(LittleEndian)) }

func (s *Schema) Float(name string) *Schema   { return s.appendPrimitive(name, KindFloat, nil) }
func (s *Schema) FloatBE(name string) *Schema { return s.appendPrimitive(name, KindFloat, be(BigEndian)) }
func (s *Schema) FloatLE(name string) *Schema { return s.appendPrimitive(name, KindFloat, be(LittleEndian)) }

func (s *Schema) Double(name string) *Schema   { return s.appendPrimitive(name, KindDouble, nil) }
func (s *Schema) DoubleBE(name string) *Schema { return s.appendPrimitive(name, KindDouble, be(BigEndian)) }
func (s *Schema) DoubleLE(name string) *Schema { return s.appendPrimitive(name, KindDouble, be(LittleEndian)) }

// -- bit fields -----------------------------------------------------------

func (s *Schema) appendBit(name string, width int) *Schema {
	return s.append(&Node{kind: kindBit, name: name, bitWidth: width, endian: s.endian})
}

func (s *Schema) Bit1(name string) *Schema  { return s.appendBit(name, 1) }
func (s *Schema) Bit2(name string) *Schema  { return s.appendBit(name, 2) }
func (s *Schema) Bit3(name string) *Schema  { return s.appendBit(name, 3) }
func (s *Schema) Bit4(name string) *Schema  { return s.appendBit(name, 4) }
func (s *Schema) Bit5(name string) *Schema  { return s.appendBit(name, 5) }
func (s *Schema) Bit6(name string) *Schema  { return s.appendBit(name, 6) }
func (s *Schema) Bit7(name string) *Schema  { return s.appendBit(name, 7) }
func (s *Schema) Bit8(name string) *Schema  { return s.appendBit(name, 8) }
func (s *Schema) Bit9(name string) *Schema  { return s.appendBit(name, 9) }
func (s *Schema) Bit10(name string) *Schema { return s.appendBit(name, 10) }
func (s *Schema) Bit11(name string) *Schema { return s.appendBit(name, 11) }
func (s *Schema) Bit12(name string) *Schema { return s.appendBit(name, 12) }
func (s *Schema) Bit13(name string) *Schema { return s.appendBit(name, 13) }
func (s *Schema) Bit14(name string) *Schema { return s.appendBit(name, 14) }
func (s *Schema) Bit15(name string) *Schema { return s.appendBit(name, 15) }
func (s *Schema) Bit16(name string) *Schema { return s.appendBit(name, 16) }
func (s *Schema) Bit17(name string) *Schema { return s.appendBit(name, 17) }
func (s *Schema) Bit18(name string) *Schema { return s.appendBit(name, 18) }
func (s *Schema) Bit19(name string) *Schema { return s.appendBit(name, 19) }
func (s *Schema) Bit20(name string) *Schema { return s.appendBit(name, 20) }
func (s *Schema) Bit21(name string) *Schema { return s.appendBit(name, 21) }
func (s *Schema) Bit22(name string) *Schema { return s.appendBit(name, 22) }
func (s *Schema) Bit23(name string) *Schema { return s.appendBit(name, 23) }
func (s *Schema) Bit24(name string) *Schema { return s.appendBit(name, 24) }
func (s *Schema) Bit25(name string) *Schema { return s.appendBit(name, 25) }
func (s *Schema) Bit26(name string) *Schema { return s.appendBit(name, 26) }
func (s *Schema) Bit27(name string) *Schema { return s.appendBit(name, 27) }
func (s *Schema) Bit28(name string) *Schema { return s.appendBit(name, 28) }
func (s *Schema) Bit29(name string) *Schema { return s.appendBit(name, 29) }
func (s *Schema) Bit30(name string) *Schema { return s.appendBit(name, 30) }
func (s *Schema) Bit31(name string) *Schema { return s.appendBit(name, 31) }
func (s *Schema) Bit32(name string) *Schema { return s.appendBit(name, 32) }

// -- string -----------------------------------------------------------------

// String appends a text field. Exactly one of {Length, ZeroTerminated,
// Greedy}, or the pair {Length, ZeroTerminated}, must be set; StripNull
// requires Length or Greedy (spec §4.B).
func (s *Schema) String(name string, opts ...Option) *Schema {
	var o Options
	s.applyOptions(name, &o, opts)

	modes := 0
	if o.hasLength {
		modes++
	}
	if o.zeroTerminated && !o.hasLength {
		modes++
	}
	if o.greedy {
		modes++
	}
	if modes != 1 {
		s.fail(name, "string requires exactly one of length, zeroTerminated, or greedy (length+zeroTerminated together count as one)")
	}
	if o.stripNull && !(o.hasLength || o.greedy) {
		s.fail(name, "stripNull requires length or greedy")
	}
	return s.append(&Node{kind: kindString, name: name, endian: s.endian, opts: o})
}

// -- buffer -------------------------------------------------------------

// Buffer appends a raw byte-slice field. One of {Length, ReadUntil} is
// required (spec §4.B).
func (s *Schema) Buffer(name string, opts ...Option) *Schema {
	var o Options
	s.applyOptions(name, &o, opts)
	if !o.hasLength && o.readUntilByte == nil && !o.readUntilEOF {
		s.fail(name, "buffer requires length or readUntil")
	}
	return s.append(&Node{kind: kindBuffer, name: name, endian: s.endian, opts: o})
}

// -- array ----------------------------------------------------------------

// Array appends a repeated-item field. One of {Length, LengthInBytes,
// ReadUntil} and Type are required (spec §4.B).
func (s *Schema) Array(name string, opts ...Option) *Schema {
	var o Options
	s.applyOptions(name, &o, opts)

	terminators := 0
	if o.hasLength {
		terminators++
	}
	if o.hasLenInBytes {
		terminators++
	}
	if o.readUntilItem != nil || o.readUntilEOF {
		terminators++
	}
	if terminators == 0 {
		s.fail(name, "array requires one of length, lengthInBytes, or readUntil")
	}
	if !o.hasType {
		s.fail(name, "array requires a type")
	}
	return s.append(&Node{kind: kindArray, name: name, endian: s.endian, opts: o})
}

// -- choice -----------------------------------------------------------------

// Choice appends a discriminated-union field. Tag and Choices are
// required; every choices key parses as an integer by construction
// (map[int]any), and every value must be a valid type (spec §4.B).
func (s *Schema) Choice(name string, opts ...Option) *Schema {
	var o Options
	s.applyOptions(name, &o, opts)
	if !o.hasTag {
		s.fail(name, "choice requires a tag")
	}
	if len(o.choices) == 0 {
		s.fail(name, "choice requires choices")
	}
	return s.append(&Node{kind: kindChoice, name: name, endian: s.endian, opts: o})
}

// -- nest -------------------------------------------------------------------

// Nest appends a nested-schema field. Type is required and must be a
// Schema or an alias name (spec §4.B). If name is empty the decoded
// subrecord merges into the parent instead of nesting under a field.
func (s *Schema) Nest(name string, opts ...Option) *Schema {
	var o Options
	s.applyOptions(name, &o, opts)
	if !o.hasType {
		s.fail(name, "nest requires a type")
	}
	if o.typ.isKind {
		s.fail(name, "nest type must be a Schema or an alias, not a catalog kind")
	}
	return s.append(&Node{kind: kindNest, name: name, endian: s.endian, opts: o})
}

// -- seek / skip --------------------------------------------------------

// Seek advances the offset by length bytes (may be negative on decode;
// spec §4.D). Skip is an alias kept for readability at call sites.
func (s *Schema) Seek(length int) *Schema {
	o := Options{length: intLiteral(length), hasLength: true}
	return s.append(&Node{kind: kindSeek, endian: s.endian, opts: o})
}

func (s *Schema) Skip(length int) *Schema { return s.Seek(length) }

// -- pointer ----------------------------------------------------------------

// Pointer appends an absolute-offset redirection field. Offset and Type
// are required (spec §4.B). Encoding a pointer is unsupported (spec §1,
// §4.E); Encode emits a zero-width no-op for it.
func (s *Schema) Pointer(name string, opts ...Option) *Schema {
	var o Options
	s.applyOptions(name, &o, opts)
	if !o.hasOffset {
		s.fail(name, "pointer requires an offset")
	}
	if !o.hasType {
		s.fail(name, "pointer requires a type")
	}
	return s.append(&Node{kind: kindPointer, name: name, endian: s.endian, opts: o})
}

// -- saveOffset -------------------------------------------------------------

// SaveOffset stores the current offset into name without consuming
// bytes. Encoding it is a zero-width no-op (spec §4.E).
func (s *Schema) SaveOffset(name string) *Schema {
	return s.append(&Node{kind: kindSaveOffset, name: name, endian: s.endian})
}
