// SPDX-License-Identifier: MIT

package pschema

import (
	"github.com/puzpuzpuz/xsync/v4"
)

// registry is the process-wide alias table (spec §4.C). It is backed by
// a lock-free concurrent map so that decode calls running on separate
// goroutines can resolve aliases without contending on a mutex, while a
// concurrent Namely call is still safe — write-last-wins, as required by
// spec §4.C.
var registry = xsync.NewMap[string, *Schema]()

// namely registers s under alias in the process-wide registry (idempotent
// replacement) and stamps s's own alias field.
func namely(s *Schema, alias string) {
	s.alias = alias
	registry.Store(alias, s)
}

func lookupAlias(alias string) (*Schema, bool) {
	return registry.Load(alias)
}

// ClearRegistry removes every registered alias. It exists for tests and
// for long-lived processes that reload schema descriptors and want to
// discard stale aliases; production code normally never needs to call
// it, since Namely replacement is already idempotent.
func ClearRegistry() {
	registry.Clear()
}
