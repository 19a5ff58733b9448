// Package parse implements the parser for tape programs.
//
// Only the eight command characters "><+-.,[]" are meaningful; everything else
// is a comment. The parser builds a tree in which every loop owns its body.
// Positions are byte offsets into the original source, comments included.
package parse

import (
	"errors"
	"sort"
	"strings"

	"src.tapec.sh/pkg/diag"
)

// Source describes a piece of source code.
type Source struct {
	Name string
	Code string
}

// Kind identifies a raw instruction.
type Kind int

// Kinds of raw instructions.
const (
	IncPtr  Kind = iota // >
	DecPtr              // <
	IncCell             // +
	DecCell             // -
	Output              // .
	Input               // ,
	Loop                // [ ... ]
)

var kindChars = [...]byte{
	IncPtr: '>', DecPtr: '<', IncCell: '+', DecCell: '-',
	Output: '.', Input: ',', Loop: '[',
}

var kindNames = [...]string{
	IncPtr: "IncPtr", DecPtr: "DecPtr", IncCell: "IncCell", DecCell: "DecCell",
	Output: "Output", Input: "Input", Loop: "Loop",
}

func (k Kind) String() string {
	if 0 <= k && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

// Instr is a raw instruction. For a Loop, the range covers both brackets and
// Body holds the nested instructions.
type Instr struct {
	diag.Ranging
	Kind Kind
	Body []*Instr
}

// Tree is a parsed program.
type Tree struct {
	Source Source
	Body   []*Instr
}

// Error is a parse error.
type Error = diag.Error[ErrorTag]

// ErrorTag parameterizes [diag.Error] to define [Error].
type ErrorTag struct{}

func (ErrorTag) ErrorTag() string { return "parse error" }

// Errors.
var (
	errUnclosedLoop  = errors.New("unbalanced brackets: '[' is never closed")
	errUnopenedClose = errors.New("unbalanced brackets: ']' has no matching '['")
)

// Parse parses the given source. Every unmatched bracket is reported; the
// returned error is nil or packs one or more *Error, which can be recovered
// with UnpackErrors. On error the returned tree has no instructions.
func Parse(src Source) (Tree, error) {
	ps := &parser{src: src}
	for i := 0; i < len(src.Code); i++ {
		ps.consume(i, src.Code[i])
	}
	ps.done()
	if len(ps.errors) > 0 {
		return Tree{Source: src}, diag.PackErrors(ps.errors)
	}
	return Tree{Source: src, Body: ps.top}, nil
}

// UnpackErrors returns the constituent parse errors if the given error contains
// one or more parse errors. Otherwise it returns nil.
func UnpackErrors(e error) []*Error {
	return diag.UnpackErrors[ErrorTag](e)
}

// IsUnbalanced reports whether err contains a bracket mismatch. Bracket
// mismatches are the only errors Parse reports.
func IsUnbalanced(err error) bool {
	for _, e := range UnpackErrors(err) {
		if strings.HasPrefix(e.Message, "unbalanced brackets") {
			return true
		}
	}
	return false
}

// parser maintains the mutable state of parsing.
type parser struct {
	src    Source
	top    []*Instr
	open   []*Instr
	errors []*Error
}

func (ps *parser) consume(i int, c byte) {
	r := diag.PointRanging(i)
	switch c {
	case '>':
		ps.add(&Instr{Ranging: r, Kind: IncPtr})
	case '<':
		ps.add(&Instr{Ranging: r, Kind: DecPtr})
	case '+':
		ps.add(&Instr{Ranging: r, Kind: IncCell})
	case '-':
		ps.add(&Instr{Ranging: r, Kind: DecCell})
	case '.':
		ps.add(&Instr{Ranging: r, Kind: Output})
	case ',':
		ps.add(&Instr{Ranging: r, Kind: Input})
	case '[':
		loop := &Instr{Ranging: r, Kind: Loop}
		ps.add(loop)
		ps.open = append(ps.open, loop)
	case ']':
		if len(ps.open) == 0 {
			ps.error(r, errUnopenedClose)
			return
		}
		loop := ps.open[len(ps.open)-1]
		ps.open = ps.open[:len(ps.open)-1]
		loop.To = i + 1
	}
}

func (ps *parser) add(in *Instr) {
	if n := len(ps.open); n > 0 {
		ps.open[n-1].Body = append(ps.open[n-1].Body, in)
	} else {
		ps.top = append(ps.top, in)
	}
}

// Reports the loops that are still open, outermost first.
func (ps *parser) done() {
	for _, loop := range ps.open {
		ps.error(diag.PointRanging(loop.From), errUnclosedLoop)
	}
	sort.SliceStable(ps.errors, func(i, j int) bool {
		return ps.errors[i].Context.From < ps.errors[j].Context.From
	})
}

func (ps *parser) error(r diag.Ranging, e error) {
	ps.errors = append(ps.errors, &Error{
		Message: e.Error(),
		Context: *diag.NewContext(ps.src.Name, ps.src.Code, r),
	})
}

// Text returns the canonical source text of a sequence of instructions, with
// all comments removed.
func Text(body []*Instr) string {
	var sb strings.Builder
	writeText(&sb, body)
	return sb.String()
}

func writeText(sb *strings.Builder, body []*Instr) {
	for _, in := range body {
		sb.WriteByte(kindChars[in.Kind])
		if in.Kind == Loop {
			writeText(sb, in.Body)
			sb.WriteByte(']')
		}
	}
}

// Find returns the innermost loop whose range contains the byte offset i, or
// nil if there is none.
func Find(body []*Instr, i int) *Instr {
	for _, in := range body {
		if in.Kind == Loop && in.Contains(i) {
			if inner := Find(in.Body, i); inner != nil {
				return inner
			}
			return in
		}
	}
	return nil
}
