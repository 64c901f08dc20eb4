// SPDX-License-Identifier: MIT

package pschema

// Kind names a primitive field type in the field catalog.
type Kind string

const (
	KindUint8 Kind = "uint8"
	KindInt8  Kind = "int8"

	KindUint16   Kind = "uint16"
	KindUint16BE Kind = "uint16be"
	KindUint16LE Kind = "uint16le"
	KindInt16    Kind = "int16"
	KindInt16BE  Kind = "int16be"
	KindInt16LE  Kind = "int16le"

	KindUint32   Kind = "uint32"
	KindUint32BE Kind = "uint32be"
	KindUint32LE Kind = "uint32le"
	KindInt32    Kind = "int32"
	KindInt32BE  Kind = "int32be"
	KindInt32LE  Kind = "int32le"

	KindUint64   Kind = "uint64"
	KindUint64BE Kind = "uint64be"
	KindUint64LE Kind = "uint64le"
	KindInt64    Kind = "int64"
	KindInt64BE  Kind = "int64be"
	KindInt64LE  Kind = "int64le"

	KindFloat   Kind = "float"
	KindFloatBE Kind = "floatbe"
	KindFloatLE Kind = "floatle"

	KindDouble   Kind = "double"
	KindDoubleBE Kind = "doublebe"
	KindDoubleLE Kind = "doublele"
)

// numKind classifies the arithmetic family of a catalog entry.
type numKind int

const (
	numUint numKind = iota
	numInt
	numFloat
)

type catalogEntry struct {
	width  int // bytes
	kind   numKind
	endian Endian // fixed endianness; neutral entries carry endianNeutral
}

const endianNeutral Endian = -1

var catalog = map[Kind]catalogEntry{
	KindUint8: {1, numUint, endianNeutral},
	KindInt8:  {1, numInt, endianNeutral},

	KindUint16:   {2, numUint, endianNeutral},
	KindUint16BE: {2, numUint, BigEndian},
	KindUint16LE: {2, numUint, LittleEndian},
	KindInt16:    {2, numInt, endianNeutral},
	KindInt16BE:  {2, numInt, BigEndian},
	KindInt16LE:  {2, numInt, LittleEndian},

	KindUint32:   {4, numUint, endianNeutral},
	KindUint32BE: {4, numUint, BigEndian},
	KindUint32LE: {4, numUint, LittleEndian},
	KindInt32:    {4, numInt, endianNeutral},
	KindInt32BE:  {4, numInt, BigEndian},
	KindInt32LE:  {4, numInt, LittleEndian},

	KindUint64:   {8, numUint, endianNeutral},
	KindUint64BE: {8, numUint, BigEndian},
	KindUint64LE: {8, numUint, LittleEndian},
	KindInt64:    {8, numInt, endianNeutral},
	KindInt64BE:  {8, numInt, BigEndian},
	KindInt64LE:  {8, numInt, LittleEndian},

	KindFloat:   {4, numFloat, endianNeutral},
	KindFloatBE: {4, numFloat, BigEndian},
	KindFloatLE: {4, numFloat, LittleEndian},

	KindDouble:   {8, numFloat, endianNeutral},
	KindDoubleBE: {8, numFloat, BigEndian},
	KindDoubleLE: {8, numFloat, LittleEndian},
}

// lookupKind reports whether name is a catalog primitive kind.
func lookupKind(name string) (Kind, catalogEntry, bool) {
	k := Kind(name)
	e, ok := catalog[k]
	return k, e, ok
}

// resolveEndian picks the byte order for a primitive node: its own fixed
// suffix (be/le) if the catalog entry has one, otherwise the schema's
// current default at the point the node was appended.
func (e catalogEntry) resolveEndian(fallback Endian) Endian {
	if e.endian == endianNeutral {
		return fallback
	}
	return e.endian
}

// widthForBits returns how many bytes are needed to hold a packed bit
// run of the given total width, rounded up to 8/16/24/32 per spec §4.D.
func widthForBits(total int) int {
	return roundup(total, 8) / 8
}
