package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDedent(t *testing.T) {
	tests := []struct {
		name, in, out string
	}{
		{"leading newline is dropped", "\n\ta\n\t b\n\tc", "a\n b\nc"},
		{"trailing newline is kept", "\n\t\ta\n\t\tb\n\t\t", "a\nb\n"},
		{"blank lines are ignored for the margin", "\n  a\n\n  b", "a\n\nb"},
		{"no indent", "a\nb", "a\nb"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Dedent(tc.in); got != tc.out {
				t.Errorf("Dedent(%q) -> %q, want %q", tc.in, got, tc.out)
			}
		})
	}
}

func TestSet(t *testing.T) {
	x := 1
	c := &cleanuper{}
	Set(c, &x, 2)
	if x != 2 {
		t.Errorf("x = %d after Set, want 2", x)
	}
	c.runCleanups()
	if x != 1 {
		t.Errorf("x = %d after cleanup, want 1", x)
	}
}

func TestInTempDir(t *testing.T) {
	original, _ := os.Getwd()
	c := &cleanuper{}
	dir := InTempDir(c)

	ApplyDir(Dir{"a/b": "content"})
	data, err := os.ReadFile(filepath.Join(dir, "a", "b"))
	if err != nil || string(data) != "content" {
		t.Errorf("ReadFile -> %q, %v; want \"content\", nil", data, err)
	}

	c.runCleanups()
	if wd, _ := os.Getwd(); wd != original {
		t.Errorf("working directory restored to %q, want %q", wd, original)
	}
	if _, err := os.Stat(dir); err == nil {
		t.Errorf("dir %q still exists after cleanup", dir)
	}
}

type cleanuper struct{ fns []func() }

func (c *cleanuper) Cleanup(fn func()) { c.fns = append(c.fns, fn) }

func (c *cleanuper) runCleanups() {
	for i := len(c.fns) - 1; i >= 0; i-- {
		c.fns[i]()
	}
}
