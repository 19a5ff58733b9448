package optimize

import "src.tapec.sh/pkg/ir"

// Contract merges adjacent pointer moves, and adjacent additions to the same
// cell. Merges that cancel out disappear, which may in turn make their
// neighbors adjacent.
func Contract(ops []ir.Op) []ir.Op { return walk(ops, true, contractSeq) }

// ElimDeadLoops removes loops entered while the current cell is known to be
// zero.
func ElimDeadLoops(ops []ir.Op) []ir.Op { return walk(ops, true, elimDeadLoopsSeq) }

// ReduceClear turns [-] and [+] into SetZero.
func ReduceClear(ops []ir.Op) []ir.Op { return walk(ops, true, reduceClearSeq) }

// ReduceScan turns loops that only move the pointer into ScanUntilZero.
func ReduceScan(ops []ir.Op) []ir.Op { return walk(ops, true, reduceScanSeq) }

// ReduceMultiply turns balanced loops that only add constants and count the
// current cell down (or up) by one into MultiplyAdd ops followed by SetZero.
func ReduceMultiply(ops []ir.Op) []ir.Op { return walk(ops, true, reduceMultiplySeq) }

// Compact strips NoOps and contracts again.
func Compact(ops []ir.Op) []ir.Op { return walk(ops, true, compactSeq) }

func contractSeq(seq []ir.Op, _ bool) []ir.Op {
	var out []ir.Op
	for _, op := range seq {
		if isNoOp(op) {
			continue
		}
		if n := len(out); n > 0 {
			if merged, ok := merge(out[n-1], op); ok {
				out = out[:n-1]
				if !isNoOp(merged) {
					out = append(out, merged)
				}
				continue
			}
		}
		out = append(out, op)
	}
	return out
}

// merge merges two adjacent ops if possible. The result is NoOp if they cancel
// out.
func merge(a, b ir.Op) (ir.Op, bool) {
	switch a := a.(type) {
	case ir.AddConst:
		if b, ok := b.(ir.AddConst); ok && a.Offset == b.Offset {
			return ir.AddConst{Offset: a.Offset, Delta: a.Delta + b.Delta}, true
		}
	case ir.MovePointer:
		if b, ok := b.(ir.MovePointer); ok {
			return ir.MovePointer{Delta: a.Delta + b.Delta}, true
		}
	}
	return nil, false
}

func isNoOp(op ir.Op) bool {
	switch op := op.(type) {
	case ir.NoOp:
		return true
	case ir.AddConst:
		return op.Delta == 0
	case ir.MovePointer:
		return op.Delta == 0
	}
	return false
}

// Removing a loop can make its neighbors contractible, and contracting can
// cancel out writes that made a later loop live, so the two alternate until
// nothing changes.
func elimDeadLoopsSeq(seq []ir.Op, top bool) []ir.Op {
	for {
		next := contractSeq(elimDeadLoopsOnce(seq, top), top)
		if len(next) == len(seq) {
			return next
		}
		seq = next
	}
}

func elimDeadLoopsOnce(seq []ir.Op, top bool) []ir.Op {
	facts := zeroFacts{rest: top}
	var out []ir.Op
	for _, op := range seq {
		switch op := op.(type) {
		case ir.Loop:
			if facts.zero(0) {
				continue
			}
			facts.only(0)
		case ir.ScanUntilZero:
			facts.only(0)
		case ir.SetZero:
			facts.only(op.Offset)
		case ir.MovePointer:
			facts.shift(op.Delta)
		case ir.AddConst:
			facts.unknown(op.Offset)
		case ir.Input:
			facts.unknown(op.Offset)
		case ir.MultiplyAdd:
			facts.unknown(op.Dst)
		}
		out = append(out, op)
	}
	return out
}

// zeroFacts records which cells are known to be zero, relative to the current
// pointer. Cells not in known are zero iff rest is true; rest only holds at
// the start of the program, when the whole tape is zero.
//
// After a zeroing op (a loop, a scan or SetZero) only the zeroed cell is
// known, whatever was known before. This keeps the analysis the same whether
// a loop has been reduced or not.
type zeroFacts struct {
	rest  bool
	known map[int]bool
}

func (z *zeroFacts) zero(offset int) bool {
	if v, ok := z.known[offset]; ok {
		return v
	}
	return z.rest
}

func (z *zeroFacts) only(offset int) {
	z.rest = false
	z.known = map[int]bool{offset: true}
}

func (z *zeroFacts) unknown(offset int) {
	if z.known == nil {
		z.known = map[int]bool{}
	}
	z.known[offset] = false
}

func (z *zeroFacts) shift(delta int) {
	shifted := make(map[int]bool, len(z.known))
	for offset, v := range z.known {
		shifted[offset-delta] = v
	}
	z.known = shifted
}

func reduceClearSeq(seq []ir.Op, _ bool) []ir.Op {
	return replaceLoops(seq, func(body []ir.Op) []ir.Op {
		if len(body) != 1 {
			return nil
		}
		if add, ok := body[0].(ir.AddConst); ok && add.Offset == 0 && (add.Delta == 1 || add.Delta == -1) {
			return []ir.Op{ir.SetZero{Offset: 0}}
		}
		return nil
	})
}

func reduceScanSeq(seq []ir.Op, _ bool) []ir.Op {
	return replaceLoops(seq, func(body []ir.Op) []ir.Op {
		if len(body) != 1 {
			return nil
		}
		if move, ok := body[0].(ir.MovePointer); ok && move.Delta != 0 {
			return []ir.Op{ir.ScanUntilZero{Step: move.Delta}}
		}
		return nil
	})
}

func reduceMultiplySeq(seq []ir.Op, _ bool) []ir.Op {
	return replaceLoops(seq, multiplyLoop)
}

// multiplyLoop reduces a loop body that only adds constants and moves the
// pointer, returns the pointer where it started and adds ±1 to the current
// cell. Such a loop runs v times when the step is -1, or 256-v times when it
// is +1, where v is the initial value of the current cell; in both cases every
// other touched cell receives a multiple of v.
func multiplyLoop(body []ir.Op) []ir.Op {
	var (
		pos     int
		offsets []int
		sums    = map[int]int8{}
	)
	for _, op := range body {
		switch op := op.(type) {
		case ir.MovePointer:
			pos += op.Delta
		case ir.AddConst:
			o := pos + op.Offset
			if _, seen := sums[o]; !seen {
				offsets = append(offsets, o)
			}
			sums[o] += op.Delta
		default:
			return nil
		}
	}
	if pos != 0 {
		return nil
	}
	var sign int8
	switch sums[0] {
	case -1:
		sign = 1
	case 1:
		sign = -1
	default:
		return nil
	}
	var out []ir.Op
	for _, o := range offsets {
		if o == 0 || sums[o] == 0 {
			continue
		}
		out = append(out, ir.MultiplyAdd{Src: 0, Dst: o, Factor: sign * sums[o]})
	}
	return append(out, ir.SetZero{Offset: 0})
}

// replaceLoops replaces every loop in seq for which f returns a non-nil
// replacement.
func replaceLoops(seq []ir.Op, f func(body []ir.Op) []ir.Op) []ir.Op {
	var out []ir.Op
	for _, op := range seq {
		if loop, ok := op.(ir.Loop); ok {
			if replacement := f(loop.Body); replacement != nil {
				out = append(out, replacement...)
				continue
			}
		}
		out = append(out, op)
	}
	return out
}

func compactSeq(seq []ir.Op, top bool) []ir.Op {
	var stripped []ir.Op
	for _, op := range seq {
		if _, ok := op.(ir.NoOp); !ok {
			stripped = append(stripped, op)
		}
	}
	return contractSeq(stripped, top)
}
