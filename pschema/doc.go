// SPDX-License-Identifier: MIT

// Package pschema is a chainable binary format description library: a
// schema built field-by-field with Start(...).Uint16BE(...).Array(...)
// compiles into a decode/encode traversal that handles bit-packed
// fields, length- and terminator-driven containers, discriminated
// unions, forward/recursive named-schema references, and absolute
// pointer redirection during decode.
//
// A Schema is built once and reused across calls to Parse and Encode;
// building is synchronous and fails fast via panic (recovered into an
// error by LoadDescriptor, since a declarative loader has no natural
// place to let a panic escape to a caller).
package pschema
