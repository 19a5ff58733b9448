// Package testutil contains common test utilities.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Cleanuper wraps the Cleanup method. It is a subset of [testing.TB], thus
// satisfied by [*testing.T] and [*testing.B].
type Cleanuper interface {
	Cleanup(func())
}

// Set sets *p to v for the duration of a test.
func Set[T any](c Cleanuper, p *T, v T) {
	old := *p
	*p = v
	c.Cleanup(func() { *p = old })
}

// TempDir creates a temporary directory with symlinks resolved, and removes it
// when the test finishes.
func TempDir(c Cleanuper) string {
	dir, err := os.MkdirTemp("", "tapectest")
	if err != nil {
		panic(err)
	}
	dir, err = filepath.EvalSymlinks(dir)
	if err != nil {
		panic(err)
	}
	c.Cleanup(func() {
		if err := os.RemoveAll(dir); err != nil {
			panic(err)
		}
	})
	return dir
}

// InTempDir is like TempDir, but also changes into the directory for the
// duration of the test. It returns the directory.
func InTempDir(c Cleanuper) string {
	dir := TempDir(c)
	Chdir(c, dir)
	return dir
}

// Chdir changes into a directory, and restores the original working directory
// when the test finishes.
func Chdir(c Cleanuper, dir string) {
	oldWd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	if err := os.Chdir(dir); err != nil {
		panic(err)
	}
	c.Cleanup(func() {
		if err := os.Chdir(oldWd); err != nil {
			panic(err)
		}
	})
}

// Dir describes the layout of a directory: keys are file names, values are
// file contents.
type Dir map[string]string

// ApplyDir creates the files described by dir in the working directory.
func ApplyDir(dir Dir) {
	for name, content := range dir {
		if err := os.MkdirAll(filepath.Dir(name), 0700); err != nil {
			panic(err)
		}
		if err := os.WriteFile(name, []byte(content), 0600); err != nil {
			panic(err)
		}
	}
}

// Dedent removes the indentation shared by all non-blank lines of text, and a
// leading newline. It allows golden output to be written as indented raw
// strings.
func Dedent(text string) string {
	text = strings.TrimPrefix(text, "\n")
	lines := strings.Split(text, "\n")
	margin := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if margin == -1 || indent < margin {
			margin = indent
		}
	}
	for i, line := range lines {
		if len(line) >= margin && margin > 0 {
			lines[i] = line[margin:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}
