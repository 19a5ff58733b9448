// Package optimize lowers parse trees to IR and runs the optimization
// pipeline.
//
// Every pass rewrites one op sequence at a time. The walker applies it to loop
// bodies before the sequence containing them, so a pass always sees bodies
// that are already rewritten. Passes never fail and never mutate their input.
package optimize

import (
	"fmt"
	"strings"

	"src.tapec.sh/pkg/ir"
	"src.tapec.sh/pkg/logutil"
	"src.tapec.sh/pkg/parse"
)

var logger = logutil.GetLogger("[optimize] ")

// Level is an optimization level.
type Level int

// Optimization levels. Each level runs the passes of the previous one plus
// some more.
const (
	// Contraction only.
	O0 Level = iota
	// Also eliminate loops that can never run.
	O1
	// Also reduce clear and scan loops.
	O2
	// Also reduce multiply loops and fold pointer moves into offsets.
	O3
)

// DefaultLevel is the level used when none is given.
const DefaultLevel = O3

func (l Level) String() string { return fmt.Sprintf("O%d", int(l)) }

// ParseLevel parses a level written as "2" or "O2".
func ParseLevel(s string) (Level, error) {
	t := strings.TrimPrefix(strings.TrimPrefix(s, "O"), "o")
	if len(t) == 1 && '0' <= t[0] && t[0] <= '3' {
		return Level(t[0] - '0'), nil
	}
	return 0, fmt.Errorf("invalid optimization level %q, must be 0 to 3", s)
}

// Pass is a named optimization pass.
type Pass struct {
	Name string
	Run  func([]ir.Op) []ir.Op

	rewrite rewriter
}

func newPass(name string, rewrite rewriter) Pass {
	return Pass{name, func(ops []ir.Op) []ir.Op { return walk(ops, true, rewrite) }, rewrite}
}

var pipeline = []struct {
	level Level
	pass  Pass
}{
	{O0, newPass("contract", contractSeq)},
	{O1, newPass("elim-dead-loops", elimDeadLoopsSeq)},
	{O2, newPass("reduce-clear", reduceClearSeq)},
	{O2, newPass("reduce-scan", reduceScanSeq)},
	{O3, newPass("reduce-multiply", reduceMultiplySeq)},
	{O3, newPass("compact", compactSeq)},
	{O3, newPass("fold-offsets", foldOffsetsSeq)},
}

// Passes returns the passes run at the given level, in order.
func Passes(level Level) []Pass {
	var passes []Pass
	for _, p := range pipeline {
		if p.level <= level {
			passes = append(passes, p.pass)
		}
	}
	return passes
}

// Optimize lowers a tree and optimizes it at the given level.
func Optimize(tree parse.Tree, level Level) []ir.Op {
	return Run(Lower(tree), level)
}

// Run runs the passes of the given level on a whole program. Running it again
// on its own output at the same level returns the output unchanged.
func Run(ops []ir.Op, level Level) []ir.Op {
	return run(ops, level, true)
}

// RunFragment is like Run, but ops may start anywhere in a program, so the
// tape is not assumed to be all zero when they start.
func RunFragment(ops []ir.Op, level Level) []ir.Op {
	return run(ops, level, false)
}

func run(ops []ir.Op, level Level, top bool) []ir.Op {
	logger.Printf("%s: %d ops before optimization", level, ir.Count(ops))
	for _, p := range Passes(level) {
		ops = walk(ops, top, p.rewrite)
		logger.Printf("%s: %d ops after %s", level, ir.Count(ops), p.Name)
	}
	return ops
}

// Lower translates a tree to IR literally, one op per instruction.
func Lower(tree parse.Tree) []ir.Op {
	return lower(tree.Body)
}

func lower(body []*parse.Instr) []ir.Op {
	if len(body) == 0 {
		return nil
	}
	ops := make([]ir.Op, len(body))
	for i, in := range body {
		switch in.Kind {
		case parse.IncPtr:
			ops[i] = ir.MovePointer{Delta: 1}
		case parse.DecPtr:
			ops[i] = ir.MovePointer{Delta: -1}
		case parse.IncCell:
			ops[i] = ir.AddConst{Delta: 1}
		case parse.DecCell:
			ops[i] = ir.AddConst{Delta: -1}
		case parse.Output:
			ops[i] = ir.Output{}
		case parse.Input:
			ops[i] = ir.Input{}
		case parse.Loop:
			ops[i] = ir.Loop{Body: lower(in.Body)}
		default:
			panic(fmt.Sprintf("unknown instruction kind %v", in.Kind))
		}
	}
	return ops
}

// rewriter rewrites one sequence whose loop bodies have already been
// rewritten. The top argument is true for the whole program and false for
// loop bodies.
type rewriter func(seq []ir.Op, top bool) []ir.Op

func walk(seq []ir.Op, top bool, f rewriter) []ir.Op {
	rewritten := make([]ir.Op, len(seq))
	for i, op := range seq {
		if loop, ok := op.(ir.Loop); ok {
			op = ir.Loop{Body: walk(loop.Body, false, f)}
		}
		rewritten[i] = op
	}
	return f(rewritten, top)
}
