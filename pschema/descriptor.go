// SPDX-License-Identifier: MIT

package pschema

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// descriptorField is a thin YAML projection of a Node/Options pair
// (spec_full §4.I): the data-valued builder options have a same-named
// YAML key ("eof" readUntil is the boolean readUntilEOF), function-valued
// options and assert have none, and "kind" picks which builder method the
// field compiles to.
type descriptorField struct {
	Name  string `yaml:"name"`
	Kind  string `yaml:"kind"`
	Type  string `yaml:"type"`
	Bits  int    `yaml:"bits"`
	Alias string `yaml:"alias"`

	Length         any    `yaml:"length"`
	LengthInBytes  any    `yaml:"lengthInBytes"`
	ZeroTerminated bool   `yaml:"zeroTerminated"`
	Greedy         bool   `yaml:"greedy"`
	StripNull      bool   `yaml:"stripNull"`
	Trim           bool   `yaml:"trim"`
	Encoding       string `yaml:"encoding"`
	ReadUntilEOF   bool   `yaml:"readUntilEOF"`

	Tag           any               `yaml:"tag"`
	Choices       map[string]string `yaml:"choices"`
	DefaultChoice string            `yaml:"defaultChoice"`

	Offset any    `yaml:"offset"`
	Key    string `yaml:"key"`

	Clone           bool   `yaml:"clone"`
	Pad             string `yaml:"pad"`
	Padding         string `yaml:"padding"`
	SmartBufferSize int    `yaml:"smartBufferSize"`

	Fields []descriptorField `yaml:"fields"`
}

type descriptorDoc struct {
	Endian string            `yaml:"endian"`
	Alias  string            `yaml:"alias"`
	Fields []descriptorField `yaml:"fields"`
}

// LoadDescriptor compiles a YAML schema description into the exact same
// *Schema chain the chain builder produces (spec_full §4.I), so decode,
// encode, and SizeOf behave identically regardless of which surface
// built the schema.
func LoadDescriptor(data []byte) (*Schema, error) {
	var doc descriptorDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("pschema: descriptor: %w", err)
	}
	return buildDescriptorSchema(doc.Endian, doc.Alias, doc.Fields)
}

func buildDescriptorSchema(endian, alias string, fields []descriptorField) (s *Schema, err error) {
	defer func() {
		if r := recover(); r != nil {
			if be, ok := r.(*BuildError); ok {
				err = be
				return
			}
			panic(r)
		}
	}()
	s = Start()
	if endian == "little" {
		s.Endianness(LittleEndian)
	}
	for _, f := range fields {
		if applyErr := applyDescriptorField(s, f); applyErr != nil {
			return nil, applyErr
		}
	}
	if alias != "" {
		s.Namely(alias)
	}
	return s, nil
}

func applyDescriptorField(s *Schema, f descriptorField) error {
	kind := f.Kind
	if kind == "" {
		switch {
		case f.Bits > 0:
			kind = "bit"
		case len(f.Fields) > 0:
			kind = "nest"
		default:
			kind = "primitive"
		}
	}

	switch kind {
	case "primitive":
		k, _, ok := lookupKind(f.Type)
		if !ok {
			return fmt.Errorf("pschema: descriptor field %q: unknown primitive type %q", f.Name, f.Type)
		}
		s.appendPrimitive(f.Name, k, nil)
		return nil

	case "bit":
		if f.Bits < 1 || f.Bits > 32 {
			return fmt.Errorf("pschema: descriptor field %q: bits must be 1..32", f.Name)
		}
		s.appendBit(f.Name, f.Bits)
		return nil

	case "string":
		opts, err := descriptorStringOptions(f)
		if err != nil {
			return err
		}
		return callBuild(func() { s.String(f.Name, opts...) })

	case "buffer":
		opts, err := descriptorBufferOptions(f)
		if err != nil {
			return err
		}
		return callBuild(func() { s.Buffer(f.Name, opts...) })

	case "array":
		opts, err := descriptorArrayOptions(f)
		if err != nil {
			return err
		}
		return callBuild(func() { s.Array(f.Name, opts...) })

	case "choice":
		opts, err := descriptorChoiceOptions(f)
		if err != nil {
			return err
		}
		return callBuild(func() { s.Choice(f.Name, opts...) })

	case "nest":
		typeOpt, err := descriptorNestType(f)
		if err != nil {
			return err
		}
		return callBuild(func() { s.Nest(f.Name, typeOpt) })

	case "seek":
		length, err := descriptorIntLiteral(f.Length)
		if err != nil {
			return err
		}
		return callBuild(func() { s.Seek(length) })

	case "pointer":
		offsetOpt, err := descriptorOffsetOption(f)
		if err != nil {
			return err
		}
		typeOpt, err := descriptorNestType(f)
		if err != nil {
			return err
		}
		return callBuild(func() { s.Pointer(f.Name, offsetOpt, typeOpt) })

	case "saveOffset":
		return callBuild(func() { s.SaveOffset(f.Name) })

	default:
		return fmt.Errorf("pschema: descriptor field %q: unknown kind %q", f.Name, kind)
	}
}

// callBuild converts a builder-method panic (BuildError) back into a
// returned error, since the descriptor loader's public contract is
// error-returning even though the chain builder itself fails fast via
// panic (spec §4.B).
func callBuild(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if be, ok := r.(*BuildError); ok {
				err = be
				return
			}
			panic(r)
		}
	}()
	fn()
	return nil
}

func descriptorCommonOptions(f descriptorField) []Option {
	var opts []Option
	if f.Length != nil {
		opts = append(opts, WithLength(f.Length))
	}
	if f.LengthInBytes != nil {
		opts = append(opts, WithLengthInBytes(f.LengthInBytes))
	}
	if f.Encoding != "" {
		opts = append(opts, WithEncoding(f.Encoding))
	}
	if f.Clone {
		opts = append(opts, WithClone())
	}
	if f.Padding != "" {
		opts = append(opts, WithPadding(f.Padding))
	}
	if f.Pad != "" {
		opts = append(opts, WithPad(f.Pad[0]))
	}
	if f.SmartBufferSize > 0 {
		opts = append(opts, WithSmartBufferSize(f.SmartBufferSize))
	}
	if f.Key != "" {
		opts = append(opts, WithKey(f.Key))
	}
	return opts
}

func descriptorStringOptions(f descriptorField) ([]Option, error) {
	opts := descriptorCommonOptions(f)
	if f.ZeroTerminated {
		opts = append(opts, WithZeroTerminated())
	}
	if f.Greedy {
		opts = append(opts, WithGreedy())
	}
	if f.StripNull {
		opts = append(opts, WithStripNull())
	}
	if f.Trim {
		opts = append(opts, WithTrim())
	}
	return opts, nil
}

func descriptorBufferOptions(f descriptorField) ([]Option, error) {
	opts := descriptorCommonOptions(f)
	if f.ReadUntilEOF {
		opts = append(opts, WithReadUntil("eof"))
	}
	return opts, nil
}

func descriptorArrayOptions(f descriptorField) ([]Option, error) {
	opts := descriptorCommonOptions(f)
	if f.ReadUntilEOF {
		opts = append(opts, WithReadUntil("eof"))
	}
	if f.Type != "" {
		opts = append(opts, WithType(f.Type))
	} else if len(f.Fields) > 0 {
		sub, err := buildDescriptorSchema("", "", f.Fields)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithType(sub))
	} else {
		return nil, fmt.Errorf("pschema: descriptor field %q: array requires type or fields", f.Name)
	}
	return opts, nil
}

func descriptorChoiceOptions(f descriptorField) ([]Option, error) {
	opts := descriptorCommonOptions(f)
	if f.Tag != nil {
		opts = append(opts, WithTag(f.Tag))
	}
	if len(f.Choices) > 0 {
		m := make(map[int]any, len(f.Choices))
		for k, v := range f.Choices {
			n, err := strconv.Atoi(k)
			if err != nil {
				return nil, fmt.Errorf("pschema: descriptor field %q: choices key %q is not an integer", f.Name, k)
			}
			m[n] = v
		}
		opts = append(opts, WithChoices(m))
	}
	if f.DefaultChoice != "" {
		opts = append(opts, WithDefaultChoice(f.DefaultChoice))
	}
	return opts, nil
}

func descriptorNestType(f descriptorField) (Option, error) {
	if len(f.Fields) > 0 {
		sub, err := buildDescriptorSchema("", "", f.Fields)
		if err != nil {
			return nil, err
		}
		return WithType(sub), nil
	}
	if f.Alias != "" {
		return WithType(f.Alias), nil
	}
	if f.Type != "" {
		return WithType(f.Type), nil
	}
	return nil, fmt.Errorf("pschema: descriptor field %q: nest/pointer requires type, alias, or fields", f.Name)
}

func descriptorOffsetOption(f descriptorField) (Option, error) {
	if f.Offset == nil {
		return nil, fmt.Errorf("pschema: descriptor field %q: pointer requires offset", f.Name)
	}
	return WithOffset(f.Offset), nil
}

func descriptorIntLiteral(v any) (int, error) {
	n, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("pschema: descriptor: %w", err)
	}
	return n, nil
}
