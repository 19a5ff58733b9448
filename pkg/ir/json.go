package ir

import (
	"encoding/json"
	"fmt"
	"math"
)

// jsonOp is the wire form of an Op. Op names the variant; only the fields
// used by that variant are set.
type jsonOp struct {
	Op     string   `json:"op"`
	Offset int      `json:"offset,omitempty"`
	Delta  int      `json:"delta,omitempty"`
	Src    int      `json:"src,omitempty"`
	Dst    int      `json:"dst,omitempty"`
	Factor int      `json:"factor,omitempty"`
	Step   int      `json:"step,omitempty"`
	Body   []jsonOp `json:"body,omitempty"`
}

// Marshal encodes a sequence of ops as JSON.
func Marshal(ops []Op) ([]byte, error) {
	return json.Marshal(toJSON(ops))
}

// Unmarshal decodes a sequence of ops encoded by Marshal.
func Unmarshal(data []byte) ([]Op, error) {
	var jops []jsonOp
	if err := json.Unmarshal(data, &jops); err != nil {
		return nil, err
	}
	return fromJSON(jops)
}

func toJSON(ops []Op) []jsonOp {
	jops := make([]jsonOp, len(ops))
	for i, op := range ops {
		switch op := op.(type) {
		case AddConst:
			jops[i] = jsonOp{Op: "add", Offset: op.Offset, Delta: int(op.Delta)}
		case MovePointer:
			jops[i] = jsonOp{Op: "move", Delta: op.Delta}
		case SetZero:
			jops[i] = jsonOp{Op: "zero", Offset: op.Offset}
		case MultiplyAdd:
			jops[i] = jsonOp{Op: "mul", Src: op.Src, Dst: op.Dst, Factor: int(op.Factor)}
		case ScanUntilZero:
			jops[i] = jsonOp{Op: "scan", Step: op.Step}
		case Output:
			jops[i] = jsonOp{Op: "out", Offset: op.Offset}
		case Input:
			jops[i] = jsonOp{Op: "in", Offset: op.Offset}
		case Loop:
			jops[i] = jsonOp{Op: "loop", Body: toJSON(op.Body)}
		case NoOp:
			jops[i] = jsonOp{Op: "nop"}
		}
	}
	return jops
}

func fromJSON(jops []jsonOp) ([]Op, error) {
	if len(jops) == 0 {
		return nil, nil
	}
	ops := make([]Op, len(jops))
	for i, j := range jops {
		switch j.Op {
		case "add":
			d, err := toInt8("delta", j.Delta)
			if err != nil {
				return nil, err
			}
			ops[i] = AddConst{Offset: j.Offset, Delta: d}
		case "move":
			ops[i] = MovePointer{Delta: j.Delta}
		case "zero":
			ops[i] = SetZero{Offset: j.Offset}
		case "mul":
			f, err := toInt8("factor", j.Factor)
			if err != nil {
				return nil, err
			}
			ops[i] = MultiplyAdd{Src: j.Src, Dst: j.Dst, Factor: f}
		case "scan":
			ops[i] = ScanUntilZero{Step: j.Step}
		case "out":
			ops[i] = Output{Offset: j.Offset}
		case "in":
			ops[i] = Input{Offset: j.Offset}
		case "loop":
			body, err := fromJSON(j.Body)
			if err != nil {
				return nil, err
			}
			ops[i] = Loop{Body: body}
		case "nop":
			ops[i] = NoOp{}
		default:
			return nil, fmt.Errorf("unknown op %q", j.Op)
		}
	}
	return ops, nil
}

func toInt8(field string, v int) (int8, error) {
	if v < math.MinInt8 || v > math.MaxInt8 {
		return 0, fmt.Errorf("%s %d out of range", field, v)
	}
	return int8(v), nil
}
