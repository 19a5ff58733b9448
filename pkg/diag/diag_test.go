package diag

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"src.tapec.sh/pkg/must"
	"src.tapec.sh/pkg/testutil"
)

type testTag struct{}

func (testTag) ErrorTag() string { return "some error" }

type testError = Error[testTag]

func setMarkers(t *testing.T) {
	testutil.Set(t, &culpritStart, "<")
	testutil.Set(t, &culpritEnd, ">")
	testutil.Set(t, &messageStart, "{")
	testutil.Set(t, &messageEnd, "}")
}

func newTestError(src string, from, to int, msg string) *testError {
	return &testError{
		Message: msg,
		Context: *NewContext("[test]", src, Ranging{from, to}),
	}
}

func TestError(t *testing.T) {
	setMarkers(t)
	err := newTestError("++\n+[-", 4, 5, "unclosed")

	if got, want := err.Error(), "some error: [test]:2:2: unclosed"; got != want {
		t.Errorf("Error() -> %q, want %q", got, want)
	}
	if got, want := err.Range(), (Ranging{4, 5}); got != want {
		t.Errorf("Range() -> %v, want %v", got, want)
	}
	wantShow := testutil.Dedent(`
		Some error: {unclosed}
		  [test]:2:2: +<[>-`)
	if got := err.Show(""); got != wantShow {
		t.Errorf("Show() -> %q, want %q", got, wantShow)
	}
}

func TestContext_Show_MultiLineCulprit(t *testing.T) {
	setMarkers(t)
	c := NewContext("f", "a[\n-]b", Ranging{1, 5})
	want := "f:1:2: a<[>\n" + strings.Repeat(" ", len("f:1:2: ")) + "<-]>b"
	if got := c.Show(""); got != want {
		t.Errorf("Show() -> %q, want %q", got, want)
	}
}

func TestContext_Show_InvalidPosition(t *testing.T) {
	c := NewContext("f", "ab", Ranging{1, 5})
	if got, want := c.Show(""), "f, invalid position 1-5"; got != want {
		t.Errorf("Show() -> %q, want %q", got, want)
	}
}

func TestPackAndUnpackErrors(t *testing.T) {
	if err := PackErrors[testTag](nil); err != nil {
		t.Errorf("PackErrors(nil) -> %v, want nil", err)
	}

	e1 := newTestError("[[", 0, 1, "a")
	e2 := newTestError("[[", 1, 2, "b")
	if err := PackErrors([]*testError{e1}); err != e1 {
		t.Errorf("PackErrors of one error should return it unchanged")
	}

	packed := PackErrors([]*testError{e1, e2})
	unpacked := UnpackErrors[testTag](packed)
	if len(unpacked) != 2 || unpacked[0] != e1 || unpacked[1] != e2 {
		t.Errorf("UnpackErrors -> %v, want [e1 e2]", unpacked)
	}
	if got, want := packed.Error(), "multiple some errors: [test]:1:1: a; [test]:1:2: b"; got != want {
		t.Errorf("Error() -> %q, want %q", got, want)
	}

	wrapped := fmt.Errorf("loading: %w", e1)
	if got := UnpackErrors[testTag](wrapped); len(got) != 1 || got[0] != e1 {
		t.Errorf("UnpackErrors(wrapped) -> %v, want [e1]", got)
	}
	if got := UnpackErrors[testTag](errors.New("x")); got != nil {
		t.Errorf("UnpackErrors(other) -> %v, want nil", got)
	}
}

func TestPointRanging(t *testing.T) {
	r := PointRanging(3)
	if r != (Ranging{3, 4}) || !r.Contains(3) || r.Contains(4) {
		t.Errorf("PointRanging(3) = %v", r)
	}
	if m := MixedRanging(Ranging{1, 2}, Ranging{5, 9}); m != (Ranging{1, 9}) {
		t.Errorf("MixedRanging -> %v, want {1 9}", m)
	}
}

func TestShowError_StripsStylingOnNonTerminal(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	ShowError(w, newTestError("]", 0, 1, "unmatched"))
	ShowError(w, errors.New("plain"))
	w.Close()
	out := string(must.OK1(io.ReadAll(r)))

	want := "Some error: unmatched\n  [test]:1:1: ]\nplain\n"
	if out != want {
		t.Errorf("ShowError wrote %q, want %q", out, want)
	}
}
