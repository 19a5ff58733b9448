// Package storedefs contains definitions used by the store package.
package storedefs

import (
	"errors"

	"src.tapec.sh/pkg/ir"
)

// ErrNoEntry is returned by Store.IR when there is no cached IR for the
// given program and level.
var ErrNoEntry = errors.New("no cached IR")

// Store is the permanent storage backend for optimized IR.
type Store interface {
	// IR returns the cached IR of a program optimized at a level.
	IR(code string, level int) ([]ir.Op, error)
	// PutIR caches the IR of a program optimized at a level.
	PutIR(code string, level int, ops []ir.Op) error
	// DelIR removes all cached IR of a program.
	DelIR(code string) error
	// IRCount returns the number of cached entries.
	IRCount() (int, error)
}
