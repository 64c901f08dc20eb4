// SPDX-License-Identifier: MIT

package pschema

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/badsaarow/binary-parser/internal/textcodec"
)

// Endian selects byte order for endian-neutral primitives and governs
// bit-extraction order within a packed bit run (spec §3, §4.D).
type Endian int

const (
	BigEndian Endian = iota
	LittleEndian
)

func (e Endian) String() string {
	if e == LittleEndian {
		return "little"
	}
	return "big"
}

// byteOrder adapts Endian to the standard library's binary.ByteOrder.
func (e Endian) byteOrder() binary.ByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Record is the nested field-name-to-value mapping produced by decode and
// consumed by encode (spec §3, "Decoded record").
type Record = map[string]any

// recordGet looks up name in rec, falling back to a case-insensitive
// match so a record built by reflecting a Go struct's exported fields
// (Encode's struct-input convenience) still resolves lowercase
// schema field names.
func recordGet(rec Record, name string) (any, bool) {
	if v, ok := rec[name]; ok {
		return v, true
	}
	for k, v := range rec {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

// resolveDotted looks a dotted field path ("a.b.c") up in rec, per §3's
// "qualified name is the dotted concatenation of the path".
func resolveDotted(rec Record, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = rec
	for _, p := range parts {
		m, ok := cur.(Record)
		if !ok {
			return nil, false
		}
		v, ok := recordGet(m, p)
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// IntSource is a late-bound option that resolves to an integer against
// the enclosing record: a literal, a field name, or a predicate (spec
// §6, "late-bound").
type IntSource struct {
	literal   *int
	fieldName string
	fn        func(Record) (int, error)
}

func intLiteral(n int) IntSource { return IntSource{literal: &n} }

// toIntSource accepts an int, a string field name, or a
// func(Record) (int, error) / func(Record) int, mirroring the "integer,
// field name (late-bound), or predicate" shape used throughout §3.
func toIntSource(raw any) (IntSource, error) {
	switch v := raw.(type) {
	case int:
		return intLiteral(v), nil
	case string:
		if v == "" {
			return IntSource{}, fmt.Errorf("field name option must not be empty")
		}
		return IntSource{fieldName: v}, nil
	case func(Record) (int, error):
		return IntSource{fn: v}, nil
	case func(Record) int:
		return IntSource{fn: func(r Record) (int, error) { return v(r), nil }}, nil
	default:
		return IntSource{}, fmt.Errorf("unsupported option value of type %T, want int, string, or func(Record) int", raw)
	}
}

func (s IntSource) resolve(rec Record) (int, error) {
	if s.literal != nil {
		return *s.literal, nil
	}
	if s.fieldName != "" {
		v, ok := resolveDotted(rec, s.fieldName)
		if !ok {
			return 0, fmt.Errorf("field %q not found in record", s.fieldName)
		}
		return toInt(v)
	}
	if s.fn != nil {
		return s.fn(rec)
	}
	return 0, fmt.Errorf("late-bound option was never set")
}

func (s IntSource) isZero() bool {
	return s.literal == nil && s.fieldName == "" && s.fn == nil
}

// TypeRef names the target of a nest/array/choice/pointer field: a
// catalog primitive, a registered alias (looked up lazily when decode or
// encode reaches the field),
// or an inline Schema.
type TypeRef struct {
	kind    Kind
	isKind  bool
	alias   string
	isAlias bool
	inline  *Schema
}

// toTypeRef accepts a string (catalog kind name or alias name) or a
// *Schema, resolving catalog names eagerly since they can never be
// ambiguous with a forward-referenced alias.
func toTypeRef(raw any) (TypeRef, error) {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return TypeRef{}, fmt.Errorf("type name must not be empty")
		}
		if k, _, ok := lookupKind(v); ok {
			return TypeRef{kind: k, isKind: true}, nil
		}
		return TypeRef{alias: v, isAlias: true}, nil
	case *Schema:
		if v == nil {
			return TypeRef{}, fmt.Errorf("inline schema type must not be nil")
		}
		return TypeRef{inline: v}, nil
	default:
		return TypeRef{}, fmt.Errorf("unsupported type value of type %T, want string or *Schema", raw)
	}
}

func (t TypeRef) String() string {
	switch {
	case t.isKind:
		return string(t.kind)
	case t.isAlias:
		return t.alias
	case t.inline != nil:
		return "<inline schema>"
	default:
		return "<empty type>"
	}
}

// AssertSpec is the validated form of the assert option: a literal value
// to compare for equality, or a predicate.
type AssertSpec struct {
	literal any
	fn      func(record Record, value any) bool
}

func toAssertSpec(raw any) (*AssertSpec, error) {
	switch v := raw.(type) {
	case func(record Record, value any) bool:
		return &AssertSpec{fn: v}, nil
	case int, string, int64, float64:
		return &AssertSpec{literal: v}, nil
	default:
		return nil, fmt.Errorf("unsupported assert value of type %T, want int, string, or func(Record, any) bool", raw)
	}
}

func (a *AssertSpec) check(rec Record, value any) (bool, any) {
	if a.fn != nil {
		return a.fn(rec, value), nil
	}
	switch want := a.literal.(type) {
	case string:
		got, _ := value.(string)
		return got == want, want
	default:
		wf, wok := toFloat(a.literal)
		gf, gok := toFloat(value)
		if wok && gok {
			return wf == gf, a.literal
		}
		return false, a.literal
	}
}

// FieldKind tags the shape of a Node beyond the primitive catalog.
type FieldKind int

const (
	kindEmpty FieldKind = iota
	kindPrimitive
	kindBit
	kindString
	kindBuffer
	kindArray
	kindChoice
	kindNest
	kindSeek
	kindPointer
	kindSaveOffset
)

// Options holds the per-node options record (spec §3). Only the subset
// relevant to the node's FieldKind is ever populated; builder methods
// enforce which subset is legal for which kind.
type Options struct {
	length         IntSource
	hasLength      bool
	lengthInBytes  IntSource
	hasLenInBytes  bool
	zeroTerminated bool
	greedy         bool
	stripNull      bool
	trim           bool
	encoding       string

	// readUntil is a single option surfaced through WithReadUntil: for
	// buffer fields it fires per byte, for array fields it fires per
	// decoded/encoded item. The same predicate value serves both decode
	// (called with the remaining bytes) and encode (called with the
	// sink-so-far snapshot) of an array (spec §4.D, §4.E).
	readUntilEOF   bool
	readUntilByte  func(b byte, remaining []byte) bool
	readUntilItem  func(item any, bytes []byte) bool
	encodeUntil    func(item any, record Record) bool

	typ     TypeRef
	hasType bool
	key     string

	tag       IntSource
	hasTag    bool
	choices   map[int]TypeRef
	defChoice TypeRef
	hasDef    bool

	offset    IntSource
	hasOffset bool

	formatter func(value any, buffer []byte, offset int) any
	encoder   func(value any, record Record) any
	assert    *AssertSpec

	padChar         byte
	padding         string
	clone           bool
	smartBufferSize int
}

// Option mutates a node's Options record; constructors below build the
// options enumerated in spec §3.
type Option func(*Options) error

func WithLength(v any) Option {
	return func(o *Options) error {
		s, err := toIntSource(v)
		if err != nil {
			return fmt.Errorf("length: %w", err)
		}
		o.length, o.hasLength = s, true
		return nil
	}
}

func WithLengthInBytes(v any) Option {
	return func(o *Options) error {
		s, err := toIntSource(v)
		if err != nil {
			return fmt.Errorf("lengthInBytes: %w", err)
		}
		o.lengthInBytes, o.hasLenInBytes = s, true
		return nil
	}
}

func WithZeroTerminated() Option {
	return func(o *Options) error { o.zeroTerminated = true; return nil }
}

func WithGreedy() Option {
	return func(o *Options) error { o.greedy = true; return nil }
}

func WithStripNull() Option {
	return func(o *Options) error { o.stripNull = true; return nil }
}

func WithTrim() Option {
	return func(o *Options) error { o.trim = true; return nil }
}

// WithEncoding validates name against the textcodec registry immediately,
// so an unknown encoding is a BuildError at schema-build time rather than
// surfacing only when a decode/encode eventually reaches this field.
func WithEncoding(name string) Option {
	return func(o *Options) error {
		if _, err := textcodec.Lookup(name); err != nil {
			return err
		}
		o.encoding = name
		return nil
	}
}

// WithReadUntil accepts the sentinel "eof", a func(byte, []byte) bool for
// buffer fields, or a func(any, []byte) bool for array fields, mirroring
// spec §3's "either the sentinel eof, or a predicate".
func WithReadUntil(v any) Option {
	return func(o *Options) error {
		switch fn := v.(type) {
		case string:
			if fn != "eof" {
				return fmt.Errorf("readUntil: unsupported sentinel %q, want \"eof\"", fn)
			}
			o.readUntilEOF = true
		case func(byte, []byte) bool:
			o.readUntilByte = fn
		case func(any, []byte) bool:
			o.readUntilItem = fn
		default:
			return fmt.Errorf("readUntil: unsupported value of type %T", v)
		}
		return nil
	}
}

func WithEncodeUntil(fn func(item any, record Record) bool) Option {
	return func(o *Options) error { o.encodeUntil = fn; return nil }
}

func WithType(v any) Option {
	return func(o *Options) error {
		t, err := toTypeRef(v)
		if err != nil {
			return fmt.Errorf("type: %w", err)
		}
		o.typ, o.hasType = t, true
		return nil
	}
}

func WithKey(field string) Option {
	return func(o *Options) error { o.key = field; return nil }
}

func WithTag(v any) Option {
	return func(o *Options) error {
		s, err := toIntSource(v)
		if err != nil {
			return fmt.Errorf("tag: %w", err)
		}
		o.tag, o.hasTag = s, true
		return nil
	}
}

func WithChoices(m map[int]any) Option {
	return func(o *Options) error {
		out := make(map[int]TypeRef, len(m))
		for k, v := range m {
			t, err := toTypeRef(v)
			if err != nil {
				return fmt.Errorf("choices[%d]: %w", k, err)
			}
			out[k] = t
		}
		o.choices = out
		return nil
	}
}

func WithDefaultChoice(v any) Option {
	return func(o *Options) error {
		t, err := toTypeRef(v)
		if err != nil {
			return fmt.Errorf("defaultChoice: %w", err)
		}
		o.defChoice, o.hasDef = t, true
		return nil
	}
}

func WithOffset(v any) Option {
	return func(o *Options) error {
		s, err := toIntSource(v)
		if err != nil {
			return fmt.Errorf("offset: %w", err)
		}
		o.offset, o.hasOffset = s, true
		return nil
	}
}

func WithFormatter(fn func(value any, buffer []byte, offset int) any) Option {
	return func(o *Options) error { o.formatter = fn; return nil }
}

func WithEncoder(fn func(value any, record Record) any) Option {
	return func(o *Options) error { o.encoder = fn; return nil }
}

func WithAssert(v any) Option {
	return func(o *Options) error {
		a, err := toAssertSpec(v)
		if err != nil {
			return fmt.Errorf("assert: %w", err)
		}
		o.assert = a
		return nil
	}
}

func WithPad(ch byte) Option {
	return func(o *Options) error { o.padChar = ch; return nil }
}

func WithPadding(dir string) Option {
	return func(o *Options) error {
		if dir != "left" && dir != "right" {
			return fmt.Errorf("padding must be %q or %q, got %q", "left", "right", dir)
		}
		o.padding = dir
		return nil
	}
}

func WithClone() Option {
	return func(o *Options) error { o.clone = true; return nil }
}

func WithSmartBufferSize(n int) Option {
	return func(o *Options) error { o.smartBufferSize = n; return nil }
}

// Node is one element of a schema chain (spec §3).
type Node struct {
	kind     FieldKind
	prim     Kind
	bitWidth int
	name     string
	endian   Endian
	opts     Options
	next     *Node
}

func (n *Node) isBit() bool { return n.kind == kindBit }

func parseBitKind(name string) (int, bool) {
	if !strings.HasPrefix(name, "bit") {
		return 0, false
	}
	n, err := strconv.Atoi(name[3:])
	if err != nil || n < 1 || n > 32 {
		return 0, false
	}
	return n, true
}
