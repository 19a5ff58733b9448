// Package eval interprets IR on a growable tape of 8-bit cells.
package eval

import (
	"context"
	"errors"
	"fmt"
	"io"

	"src.tapec.sh/pkg/ir"
	"src.tapec.sh/pkg/logutil"
)

var logger = logutil.GetLogger("[eval] ")

// Default tape sizes.
const (
	DefaultInitialCells = 30000
	DefaultMaxCells     = 1 << 24
)

// How many loop iterations run between two checks of the context.
const pollInterval = 1 << 16

// Errors reported by Run, always wrapped in an *Exception.
var (
	ErrTapeUnderflow = errors.New("tape underflow")
	ErrTapeOverflow  = errors.New("tape overflow")
)

// Exception is a runtime error, carrying the op that failed and the pointer at
// the time of failure.
type Exception struct {
	Err     error
	Op      ir.Op
	Pointer int
}

func (e *Exception) Error() string {
	return fmt.Sprintf("%v at pointer %d, executing %v", e.Err, e.Pointer, e.Op)
}

func (e *Exception) Unwrap() error { return e.Err }

// Config configures a Machine. Zero fields take their defaults.
type Config struct {
	InitialCells int
	MaxCells     int
}

// Machine runs IR. A Machine is not safe for concurrent use; concurrent runs
// need separate machines.
type Machine struct {
	cfg     Config
	tape    []byte
	ptr     int
	high    int
	ctx     context.Context
	counter int
}

// New creates a new Machine.
func New(cfg Config) *Machine {
	if cfg.InitialCells <= 0 {
		cfg.InitialCells = DefaultInitialCells
	}
	if cfg.MaxCells <= 0 {
		cfg.MaxCells = DefaultMaxCells
	}
	if cfg.InitialCells > cfg.MaxCells {
		cfg.InitialCells = cfg.MaxCells
	}
	return &Machine{cfg: cfg, high: -1}
}

// Run runs ops on a fresh tape, reading input from in and writing output to
// out. Reading io.EOF from in stores 0 in the target cell.
//
// It returns ctx.Err() if ctx is canceled during the run, an *Exception if the
// program addresses a cell outside the tape, or an error from in or out.
func (m *Machine) Run(ctx context.Context, ops []ir.Op, in io.ByteReader, out io.ByteWriter) error {
	m.tape = make([]byte, m.cfg.InitialCells)
	m.ptr = 0
	m.high = -1
	m.ctx = ctx
	m.counter = 0
	defer func() { m.ctx = nil }()

	err := m.exec(ops, in, out)
	logger.Printf("run finished with pointer %d, %d cells touched, err = %v",
		m.ptr, m.high+1, err)
	return err
}

// Tape returns a copy of the tape, up to the highest cell addressed in the
// last run.
func (m *Machine) Tape() []byte {
	return append([]byte(nil), m.tape[:m.high+1]...)
}

// Pointer returns the data pointer at the end of the last run.
func (m *Machine) Pointer() int { return m.ptr }

func (m *Machine) exec(ops []ir.Op, in io.ByteReader, out io.ByteWriter) error {
	for _, op := range ops {
		switch op := op.(type) {
		case ir.AddConst:
			i, err := m.cell(op, op.Offset)
			if err != nil {
				return err
			}
			m.tape[i] += byte(op.Delta)
		case ir.MovePointer:
			m.ptr += op.Delta
			if m.ptr < 0 {
				return m.exception(ErrTapeUnderflow, op)
			}
		case ir.SetZero:
			i, err := m.cell(op, op.Offset)
			if err != nil {
				return err
			}
			m.tape[i] = 0
		case ir.MultiplyAdd:
			src, err := m.cell(op, op.Src)
			if err != nil {
				return err
			}
			if m.tape[src] == 0 {
				continue
			}
			dst, err := m.cell(op, op.Dst)
			if err != nil {
				return err
			}
			m.tape[dst] += m.tape[src] * byte(op.Factor)
		case ir.ScanUntilZero:
			for {
				i, err := m.cell(op, 0)
				if err != nil {
					return err
				}
				if m.tape[i] == 0 {
					break
				}
				if err := m.poll(); err != nil {
					return err
				}
				m.ptr += op.Step
			}
		case ir.Output:
			i, err := m.cell(op, op.Offset)
			if err != nil {
				return err
			}
			if err := out.WriteByte(m.tape[i]); err != nil {
				return err
			}
		case ir.Input:
			i, err := m.cell(op, op.Offset)
			if err != nil {
				return err
			}
			b, err := in.ReadByte()
			if err == io.EOF {
				b = 0
			} else if err != nil {
				return err
			}
			m.tape[i] = b
		case ir.Loop:
			for {
				i, err := m.cell(op, 0)
				if err != nil {
					return err
				}
				if m.tape[i] == 0 {
					break
				}
				if err := m.poll(); err != nil {
					return err
				}
				if err := m.exec(op.Body, in, out); err != nil {
					return err
				}
			}
		case ir.NoOp:
		default:
			panic(fmt.Sprintf("unknown op %T", op))
		}
	}
	return nil
}

// cell returns the tape index of the cell at the given offset from the
// pointer, growing the tape if needed.
func (m *Machine) cell(op ir.Op, offset int) (int, error) {
	i := m.ptr + offset
	if i < 0 {
		return 0, m.exception(ErrTapeUnderflow, op)
	}
	if i >= len(m.tape) {
		if err := m.grow(i); err != nil {
			return 0, m.exception(err, op)
		}
	}
	if i > m.high {
		m.high = i
	}
	return i, nil
}

// grow grows the tape by doubling until index i fits.
func (m *Machine) grow(i int) error {
	if i >= m.cfg.MaxCells {
		return ErrTapeOverflow
	}
	n := len(m.tape)
	if n == 0 {
		n = 1
	}
	for n <= i {
		n *= 2
	}
	if n > m.cfg.MaxCells {
		n = m.cfg.MaxCells
	}
	logger.Printf("growing tape from %d to %d cells", len(m.tape), n)
	tape := make([]byte, n)
	copy(tape, m.tape)
	m.tape = tape
	return nil
}

func (m *Machine) poll() error {
	m.counter++
	if m.counter%pollInterval == 0 {
		return m.ctx.Err()
	}
	return nil
}

func (m *Machine) exception(err error, op ir.Op) error {
	return &Exception{Err: err, Op: op, Pointer: m.ptr}
}
