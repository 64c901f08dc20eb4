// SPDX-License-Identifier: MIT

// Package textcodec is the Encoding facility the schema engine treats as
// an external collaborator: conversion between byte slices and text for
// a named encoding. Only encodings actually needed by the corpus of
// payload formats this engine targets are implemented; anything else is
// a build-time error rather than a silent fallback.
package textcodec

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Codec converts between bytes and text for one named encoding.
type Codec interface {
	Decode(b []byte) (string, error)
	Encode(s string) ([]byte, error)
}

type utf8Codec struct{}

func (utf8Codec) Decode(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return string(b), fmt.Errorf("textcodec: invalid utf-8 sequence")
	}
	return string(b), nil
}

func (utf8Codec) Encode(s string) ([]byte, error) {
	return []byte(s), nil
}

// asciiCodec clamps to 7-bit ASCII; bytes with the high bit set decode as
// U+FFFD, and encoding a rune above U+007F is an error.
type asciiCodec struct{}

func (asciiCodec) Decode(b []byte) (string, error) {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		if c > 0x7f {
			sb.WriteRune(utf8.RuneError)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String(), nil
}

func (asciiCodec) Encode(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0x7f {
			return nil, fmt.Errorf("textcodec: rune %q is not representable in ascii", r)
		}
		out = append(out, byte(r))
	}
	return out, nil
}

// latin1Codec is a byte-for-byte mapping onto the first 256 Unicode code
// points (ISO-8859-1), a common encoding for legacy device payloads.
type latin1Codec struct{}

func (latin1Codec) Decode(b []byte) (string, error) {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes), nil
}

func (latin1Codec) Encode(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xff {
			return nil, fmt.Errorf("textcodec: rune %q is not representable in latin1", r)
		}
		out = append(out, byte(r))
	}
	return out, nil
}

var registry = map[string]Codec{
	"":       utf8Codec{},
	"utf8":   utf8Codec{},
	"utf-8":  utf8Codec{},
	"ascii":  asciiCodec{},
	"latin1": latin1Codec{},
	"iso-8859-1": latin1Codec{},
}

// Lookup resolves a named encoding. Called at schema build time so an
// unknown name surfaces as a BuildError, not a runtime failure.
func Lookup(name string) (Codec, error) {
	if c, ok := registry[strings.ToLower(name)]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("textcodec: unknown encoding %q", name)
}
