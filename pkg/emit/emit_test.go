package emit

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"src.tapec.sh/pkg/ir"
	. "src.tapec.sh/pkg/tt"
)

var sample = []ir.Op{
	ir.AddConst{Delta: 1},
	ir.Loop{Body: []ir.Op{
		ir.AddConst{Delta: -1},
		ir.MovePointer{Delta: 1},
		ir.AddConst{Delta: 1},
		ir.MovePointer{Delta: -1},
	}},
	ir.SetZero{Offset: 1},
	ir.MultiplyAdd{Src: 0, Dst: -1, Factor: -2},
	ir.ScanUntilZero{Step: 2},
	ir.Output{Offset: 1},
	ir.Input{Offset: -1},
	ir.MovePointer{Delta: -3},
}

var emitTests = []struct {
	dialect *Dialect
	want    string
}{
	{C, `#include <stdio.h>

static unsigned char m[100];

int main(void) {
	size_t p = 0;
	m[p] += 1;
	while (m[p]) {
		m[p] += -1;
		p += 1;
		m[p] += 1;
		p += -1;
	}
	m[p + 1] = 0;
	m[p - 1] += m[p] * -2;
	while (m[p]) p += 2;
	putchar(m[p + 1]);
	{ int c = getchar(); m[p - 1] = c == EOF ? 0 : c; }
	p += -3;
	return 0;
}
`},
	{Rust, `#![allow(unused_mut, unused_variables, unused_imports)]
use std::io::{self, Read, Write};

fn main() {
    let mut m = vec![0u8; 100];
    let mut p: usize = 0;
    let stdin = io::stdin();
    let mut input = stdin.lock().bytes();
    let stdout = io::stdout();
    let mut out = io::BufWriter::new(stdout.lock());
    m[p] = m[p].wrapping_add(1);
    while m[p] != 0 {
        m[p] = m[p].wrapping_add(255);
        p = (p as isize + 1) as usize;
        m[p] = m[p].wrapping_add(1);
        p = (p as isize + -1) as usize;
    }
    m[p + 1] = 0;
    m[p - 1] = m[p - 1].wrapping_add(m[p].wrapping_mul(254));
    while m[p] != 0 { p = (p as isize + 2) as usize; }
    out.write_all(&[m[p + 1]]).unwrap();
    m[p - 1] = input.next().and_then(|b| b.ok()).unwrap_or(0);
    p = (p as isize + -3) as usize;
    out.flush().unwrap();
}
`},
	{IR, `; tape: 100 cells
add [0] +1
loop [0]
  add [0] -1
  move +1
  add [0] +1
  move -1
end
zero [1]
mul [-1] += [0] * -2
scan +2
out [1]
in [-1]
move -3
`},
}

func TestEmit(t *testing.T) {
	for _, test := range emitTests {
		t.Run(test.dialect.Name, func(t *testing.T) {
			var sb strings.Builder
			err := Emit(&sb, sample, test.dialect, Config{TapeCells: 100})
			if err != nil {
				t.Fatalf("got error %v", err)
			}
			if diff := cmp.Diff(test.want, sb.String()); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestEmit_DefaultTapeCells(t *testing.T) {
	var sb strings.Builder
	Emit(&sb, nil, C, Config{})
	if !strings.Contains(sb.String(), "static unsigned char m[65536];") {
		t.Errorf("got %q, want a tape of 65536 cells", sb.String())
	}
}

var errWrite = errors.New("write failed")

type failingWriter struct{ n int }

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n == 0 {
		return 0, errWrite
	}
	w.n--
	return len(p), nil
}

func TestEmit_WriteError(t *testing.T) {
	for _, n := range []int{0, 3} {
		err := Emit(&failingWriter{n}, sample, Rust, Config{})
		if err != errWrite {
			t.Errorf("got error %v, want %v", err, errWrite)
		}
	}
}

func TestLookup(t *testing.T) {
	for name, want := range map[string]*Dialect{"c": C, "Rust": Rust, "IR": IR} {
		if d, err := Lookup(name); d != want || err != nil {
			t.Errorf("Lookup(%q) = %v, %v, want %v", name, d, err, want.Name)
		}
	}
	Test(t, Fn(func(name string) error {
		_, err := Lookup(name)
		return err
	}).Named("Lookup"),
		Args("go").Rets(ErrorMatcher{`unknown emit target "go", must be one of c, rust, ir`}),
	)
}
