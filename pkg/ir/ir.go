// Package ir defines the intermediate representation shared by the
// interpreter and the emitters.
//
// A program is a []Op. Offsets are relative to the data pointer at the time
// the op executes. Cell arithmetic wraps modulo 256. IR values are never
// mutated after construction; transformations build new slices.
package ir

import (
	"fmt"
	"strings"
)

// Op is an IR operation. The set of implementations is closed: AddConst,
// MovePointer, SetZero, MultiplyAdd, ScanUntilZero, Output, Input, Loop and
// NoOp.
type Op interface {
	isOp()
	fmt.Stringer
}

// AddConst adds Delta to the cell at Offset.
type AddConst struct {
	Offset int
	Delta  int8
}

// MovePointer moves the data pointer by Delta.
type MovePointer struct {
	Delta int
}

// SetZero sets the cell at Offset to 0.
type SetZero struct {
	Offset int
}

// MultiplyAdd adds the cell at Src times Factor to the cell at Dst. The source
// cell is left unchanged.
type MultiplyAdd struct {
	Src, Dst int
	Factor   int8
}

// ScanUntilZero moves the data pointer by Step until the current cell is 0.
type ScanUntilZero struct {
	Step int
}

// Output writes the cell at Offset.
type Output struct {
	Offset int
}

// Input reads one byte into the cell at Offset, storing 0 at end of input.
type Input struct {
	Offset int
}

// Loop runs Body while the current cell is nonzero.
type Loop struct {
	Body []Op
}

// NoOp does nothing. It only exists transiently inside the optimizer.
type NoOp struct{}

func (AddConst) isOp()      {}
func (MovePointer) isOp()   {}
func (SetZero) isOp()       {}
func (MultiplyAdd) isOp()   {}
func (ScanUntilZero) isOp() {}
func (Output) isOp()        {}
func (Input) isOp()         {}
func (Loop) isOp()          {}
func (NoOp) isOp()          {}

func (op AddConst) String() string    { return fmt.Sprintf("add[%d] %+d", op.Offset, op.Delta) }
func (op MovePointer) String() string { return fmt.Sprintf("move %+d", op.Delta) }
func (op SetZero) String() string     { return fmt.Sprintf("zero[%d]", op.Offset) }
func (op MultiplyAdd) String() string {
	return fmt.Sprintf("mul[%d] += [%d] * %d", op.Dst, op.Src, op.Factor)
}
func (op ScanUntilZero) String() string { return fmt.Sprintf("scan %+d", op.Step) }
func (op Output) String() string        { return fmt.Sprintf("out[%d]", op.Offset) }
func (op Input) String() string         { return fmt.Sprintf("in[%d]", op.Offset) }
func (NoOp) String() string             { return "nop" }

func (op Loop) String() string {
	var sb strings.Builder
	sb.WriteString("loop {")
	for i, child := range op.Body {
		if i > 0 {
			sb.WriteString(";")
		}
		sb.WriteString(" " + child.String())
	}
	sb.WriteString(" }")
	return sb.String()
}

// Count returns the number of ops in a sequence, including those nested in
// loops. Loops count as one op each.
func Count(ops []Op) int {
	n := len(ops)
	for _, op := range ops {
		if loop, ok := op.(Loop); ok {
			n += Count(loop.Body)
		}
	}
	return n
}

// Equal reports whether two sequences are structurally equal. Nil and empty
// bodies are equal.
func Equal(a, b []Op) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		la, aIsLoop := a[i].(Loop)
		lb, bIsLoop := b[i].(Loop)
		switch {
		case aIsLoop && bIsLoop:
			if !Equal(la.Body, lb.Body) {
				return false
			}
		case aIsLoop || bIsLoop:
			return false
		case a[i] != b[i]:
			return false
		}
	}
	return true
}
