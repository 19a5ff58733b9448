// Package emit renders IR as source code in other languages.
//
// All targets share one walker; a target is described entirely by a Dialect,
// a table of format strings.
package emit

import (
	"fmt"
	"io"
	"strings"

	"src.tapec.sh/pkg/ir"
)

// DefaultTapeCells is the default size of the tape declared by emitted
// programs.
const DefaultTapeCells = 65536

// Config configures emission. Zero fields take their defaults.
type Config struct {
	TapeCells int
}

// Dialect describes how to render IR in one target language.
//
// The op formats are passed to fmt.Sprintf with the following arguments, and
// must refer to them with explicit indices:
//
//   - AddConst: cell, signed delta, unsigned delta
//   - MovePointer: delta
//   - SetZero, Output, Input: cell
//   - MultiplyAdd: destination cell, source cell, signed factor, unsigned factor
//   - ScanUntilZero: step
//   - LoopStart: current cell
//
// Cells are rendered with Cell. Prologue gets the number of tape cells.
type Dialect struct {
	Name      string
	Ext       string
	Prologue  string
	Epilogue  string
	Indent    string
	BaseDepth int
	Cell      func(offset int) string

	AddConst      string
	MovePointer   string
	SetZero       string
	MultiplyAdd   string
	ScanUntilZero string
	Output        string
	Input         string
	LoopStart     string
	LoopEnd       string
}

// Dialects, in the order listed by Names.
var dialects = []*Dialect{C, Rust, IR}

// Lookup finds a dialect by name, ignoring case.
func Lookup(name string) (*Dialect, error) {
	for _, d := range dialects {
		if strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("unknown emit target %q, must be one of %s",
		name, strings.Join(Names(), ", "))
}

// Names returns the names of all dialects.
func Names() []string {
	names := make([]string, len(dialects))
	for i, d := range dialects {
		names[i] = d.Name
	}
	return names
}

// Emit writes ops rendered in dialect d to w. The only possible errors come
// from w.
func Emit(w io.Writer, ops []ir.Op, d *Dialect, cfg Config) error {
	if cfg.TapeCells <= 0 {
		cfg.TapeCells = DefaultTapeCells
	}
	e := &emitter{w: w, d: d}
	e.printf(d.Prologue, cfg.TapeCells)
	e.ops(ops, d.BaseDepth)
	e.printf(d.Epilogue)
	return e.err
}

type emitter struct {
	w   io.Writer
	d   *Dialect
	err error
}

func (e *emitter) printf(format string, args ...any) {
	if e.err != nil || format == "" {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *emitter) line(depth int, format string, args ...any) {
	e.printf("%s%s\n", strings.Repeat(e.d.Indent, depth), fmt.Sprintf(format, args...))
}

func (e *emitter) ops(ops []ir.Op, depth int) {
	d := e.d
	for _, op := range ops {
		switch op := op.(type) {
		case ir.AddConst:
			e.line(depth, d.AddConst, d.Cell(op.Offset), op.Delta, byte(op.Delta))
		case ir.MovePointer:
			e.line(depth, d.MovePointer, op.Delta)
		case ir.SetZero:
			e.line(depth, d.SetZero, d.Cell(op.Offset))
		case ir.MultiplyAdd:
			e.line(depth, d.MultiplyAdd, d.Cell(op.Dst), d.Cell(op.Src), op.Factor, byte(op.Factor))
		case ir.ScanUntilZero:
			e.line(depth, d.ScanUntilZero, op.Step)
		case ir.Output:
			e.line(depth, d.Output, d.Cell(op.Offset))
		case ir.Input:
			e.line(depth, d.Input, d.Cell(op.Offset))
		case ir.Loop:
			e.line(depth, d.LoopStart, d.Cell(0))
			e.ops(op.Body, depth+1)
			e.line(depth, d.LoopEnd)
		case ir.NoOp:
		}
	}
}

// indexCell renders a cell as an index into m relative to p.
func indexCell(offset int) string {
	switch {
	case offset > 0:
		return fmt.Sprintf("m[p + %d]", offset)
	case offset < 0:
		return fmt.Sprintf("m[p - %d]", -offset)
	default:
		return "m[p]"
	}
}
