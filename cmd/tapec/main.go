// Tapec is an optimizing compiler and interpreter for the eight-command tape
// language. It runs a program directly, emits it as C, Rust or an IR listing,
// or serves diagnostics to editors as a language server.
package main

import (
	"os"

	"src.tapec.sh/pkg/buildinfo"
	"src.tapec.sh/pkg/driver"
	"src.tapec.sh/pkg/lsp"
	"src.tapec.sh/pkg/prog"
)

func main() {
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args,
		prog.Composite(buildinfo.Program, lsp.Program, driver.Program)))
}
