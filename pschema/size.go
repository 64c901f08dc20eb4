// SPDX-License-Identifier: MIT

package pschema

// SizeOf returns the static byte width of s's chain, and false if any
// node makes the size input-dependent (spec §4.F). It is purely
// advisory: decode/encode never consult it.
func (s *Schema) SizeOf() (int, bool) {
	return chainSize(s.head)
}

func chainSize(head *Node) (int, bool) {
	total := 0
	n := head
	for n != nil {
		if n.isBit() {
			return 0, false
		}
		sz, ok := nodeSize(n)
		if !ok {
			return 0, false
		}
		total += sz
		n = n.next
	}
	return total, true
}

func nodeSize(n *Node) (int, bool) {
	switch n.kind {
	case kindPrimitive:
		_, entry, ok := lookupKind(string(n.prim))
		if !ok {
			return 0, false
		}
		return entry.width, true
	case kindSeek:
		if n.opts.length.literal == nil {
			return 0, false
		}
		return *n.opts.length.literal, true
	case kindString:
		o := &n.opts
		if o.zeroTerminated {
			return 0, false
		}
		if o.greedy {
			return 0, false
		}
		if o.hasLength && o.length.literal != nil {
			return *o.length.literal, true
		}
		return 0, false
	case kindBuffer:
		o := &n.opts
		if o.hasLength && o.length.literal != nil {
			return *o.length.literal, true
		}
		return 0, false
	case kindArray:
		o := &n.opts
		if !o.hasLength || o.length.literal == nil || o.hasLenInBytes || o.readUntilItem != nil || o.readUntilEOF {
			return 0, false
		}
		elemSize, ok := typeRefSize(o.typ)
		if !ok {
			return 0, false
		}
		return *o.length.literal * elemSize, true
	case kindNest:
		return typeRefSize(n.opts.typ)
	case kindChoice, kindPointer, kindSaveOffset:
		// spec §4.F: choice, pointer, and saveOffset all make the size
		// undeterminable, saveOffset included despite writing no bytes.
		return 0, false
	default:
		return 0, false
	}
}

func typeRefSize(t TypeRef) (int, bool) {
	switch {
	case t.isKind:
		_, entry, ok := lookupKind(string(t.kind))
		if !ok {
			return 0, false
		}
		return entry.width, true
	case t.isAlias:
		s, ok := lookupAlias(t.alias)
		if !ok {
			return 0, false
		}
		return chainSize(s.head)
	case t.inline != nil:
		return chainSize(t.inline.head)
	default:
		return 0, false
	}
}
