package emit

import "fmt"

// C renders IR as a C program.
var C = &Dialect{
	Name: "c",
	Ext:  ".c",
	Prologue: `#include <stdio.h>

static unsigned char m[%[1]d];

int main(void) {
	size_t p = 0;
`,
	Epilogue: `	return 0;
}
`,
	Indent:    "\t",
	BaseDepth: 1,
	Cell:      indexCell,

	AddConst:      "%[1]s += %[2]d;",
	MovePointer:   "p += %[1]d;",
	SetZero:       "%[1]s = 0;",
	MultiplyAdd:   "%[1]s += %[2]s * %[3]d;",
	ScanUntilZero: "while (m[p]) p += %[1]d;",
	Output:        "putchar(%[1]s);",
	Input:         "{ int c = getchar(); %[1]s = c == EOF ? 0 : c; }",
	LoopStart:     "while (%[1]s) {",
	LoopEnd:       "}",
}

// Rust renders IR as a Rust program.
var Rust = &Dialect{
	Name: "rust",
	Ext:  ".rs",
	Prologue: `#![allow(unused_mut, unused_variables, unused_imports)]
use std::io::{self, Read, Write};

fn main() {
    let mut m = vec![0u8; %[1]d];
    let mut p: usize = 0;
    let stdin = io::stdin();
    let mut input = stdin.lock().bytes();
    let stdout = io::stdout();
    let mut out = io::BufWriter::new(stdout.lock());
`,
	Epilogue: `    out.flush().unwrap();
}
`,
	Indent:    "    ",
	BaseDepth: 1,
	Cell:      indexCell,

	AddConst:      "%[1]s = %[1]s.wrapping_add(%[3]d);",
	MovePointer:   "p = (p as isize + %[1]d) as usize;",
	SetZero:       "%[1]s = 0;",
	MultiplyAdd:   "%[1]s = %[1]s.wrapping_add(%[2]s.wrapping_mul(%[4]d));",
	ScanUntilZero: "while m[p] != 0 { p = (p as isize + %[1]d) as usize; }",
	Output:        "out.write_all(&[%[1]s]).unwrap();",
	Input:         "%[1]s = input.next().and_then(|b| b.ok()).unwrap_or(0);",
	LoopStart:     "while %[1]s != 0 {",
	LoopEnd:       "}",
}

// IR renders IR as a human-readable listing.
var IR = &Dialect{
	Name:     "ir",
	Ext:      ".ir",
	Prologue: "; tape: %[1]d cells\n",
	Indent:   "  ",
	Cell:     func(offset int) string { return fmt.Sprintf("[%d]", offset) },

	AddConst:      "add %[1]s %+[2]d",
	MovePointer:   "move %+[1]d",
	SetZero:       "zero %[1]s",
	MultiplyAdd:   "mul %[1]s += %[2]s * %[3]d",
	ScanUntilZero: "scan %+[1]d",
	Output:        "out %[1]s",
	Input:         "in %[1]s",
	LoopStart:     "loop %[1]s",
	LoopEnd:       "end",
}
