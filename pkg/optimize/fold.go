package optimize

import "src.tapec.sh/pkg/ir"

// FoldOffsets defers pointer moves within straight-line code, folding them
// into the offsets of the ops that follow. The accumulated move is emitted as
// a single MovePointer before each loop or scan, and at the end of each
// sequence.
func FoldOffsets(ops []ir.Op) []ir.Op { return walk(ops, true, foldOffsetsSeq) }

func foldOffsetsSeq(seq []ir.Op, _ bool) []ir.Op {
	var (
		out     []ir.Op
		pending int
	)
	flush := func() {
		if pending != 0 {
			out = append(out, ir.MovePointer{Delta: pending})
			pending = 0
		}
	}
	for _, op := range seq {
		switch op := op.(type) {
		case ir.MovePointer:
			pending += op.Delta
		case ir.AddConst:
			op.Offset += pending
			out = append(out, op)
		case ir.SetZero:
			op.Offset += pending
			out = append(out, op)
		case ir.MultiplyAdd:
			op.Src += pending
			op.Dst += pending
			out = append(out, op)
		case ir.Output:
			op.Offset += pending
			out = append(out, op)
		case ir.Input:
			op.Offset += pending
			out = append(out, op)
		case ir.Loop, ir.ScanUntilZero:
			flush()
			out = append(out, op)
		case ir.NoOp:
		}
	}
	flush()
	return out
}
