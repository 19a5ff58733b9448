package prog_test

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"src.tapec.sh/pkg/logutil"
	"src.tapec.sh/pkg/must"
	. "src.tapec.sh/pkg/prog"
	"src.tapec.sh/pkg/prog/progtest"
	"src.tapec.sh/pkg/testutil"
)

var (
	Test      = progtest.Test
	ThatTapec = progtest.ThatTapec
)

func TestCommonFlagHandling(t *testing.T) {
	testutil.InTempDir(t)

	Test(t, testProgram{},
		ThatTapec("-bad-flag").
			ExitsWith(2).
			WritesStderrContaining("flag provided but not defined: -bad-flag\nUsage:"),
		// -h is treated as a bad flag
		ThatTapec("-h").
			ExitsWith(2).
			WritesStderrContaining("flag provided but not defined: -h\nUsage:"),

		ThatTapec("-help").
			WritesStdoutContaining("Usage: tapec [flags] file"),

		ThatTapec("-cpuprofile", "cpuprof").DoesNothing(),
		ThatTapec("-cpuprofile", "/a/bad/path").
			WritesStderrContaining("Warning: cannot create CPU profile:"),
	)

	// Check for the effect of -cpuprofile. There isn't much to test beyond a
	// sanity check that the profile file now exists.
	_, err := os.Stat("cpuprof")
	if err != nil {
		t.Errorf("CPU profile file does not exist: %v", err)
	}
}

func TestLogFlag(t *testing.T) {
	testutil.InTempDir(t)
	logger := logutil.GetLogger("[prog_test] ")

	Test(t, testProgram{run: func() { logger.Println("hello from the program") }},
		ThatTapec("-log", "debug.log").DoesNothing(),
	)
	if content := must.ReadFileString("debug.log"); !strings.Contains(content, "hello from the program") {
		t.Errorf("log file has content %q", content)
	}
}

func TestFlagsPassedToProgram(t *testing.T) {
	Test(t, flagsProgram{},
		ThatTapec("-O", "2", "-emit", "c,ir", "-o", "out", "-config", "c.yaml",
			"-cache", "c.db", "-timeout", "2s", "-dump-tape", "-lsp", "a.b").
			WritesStdout("2|c,ir|out|c.yaml|c.db|2s|true|true|[a.b]\n"),
		ThatTapec("-timeout", "soon").
			ExitsWith(2).
			WritesStderrContaining(`invalid value "soon" for flag -timeout`),
	)
}

type flagsProgram struct{}

func (flagsProgram) Run(fds [3]*os.File, f *Flags, args []string) error {
	fmt.Fprintf(fds[1], "%s|%s|%s|%s|%s|%v|%v|%v|%v\n",
		f.OptLevel, f.Emit, f.Out, f.Config, f.Cache, f.Timeout, f.DumpTape, f.LSP, args)
	if f.Timeout != 0 && f.Timeout != 2*time.Second {
		return fmt.Errorf("unexpected timeout %v", f.Timeout)
	}
	return nil
}

func TestNoSuitableSubprogram(t *testing.T) {
	Test(t, testProgram{notSuitable: true},
		ThatTapec().
			ExitsWith(2).
			WritesStderr("internal error: no suitable subprogram\n"),
	)
}

func TestComposite(t *testing.T) {
	Test(t,
		Composite(testProgram{notSuitable: true}, testProgram{writeOut: "program 2"}),
		ThatTapec().WritesStdout("program 2"),
	)
}

func TestComposite_NoSuitableSubprogram(t *testing.T) {
	Test(t,
		Composite(testProgram{notSuitable: true}, testProgram{notSuitable: true}),
		ThatTapec().
			ExitsWith(2).
			WritesStderr("internal error: no suitable subprogram\n"),
	)
}

func TestComposite_PreferEarlierSubprogram(t *testing.T) {
	Test(t,
		Composite(
			testProgram{writeOut: "program 1"}, testProgram{writeOut: "program 2"}),
		ThatTapec().WritesStdout("program 1"),
	)
}

func TestBadUsageError(t *testing.T) {
	Test(t,
		testProgram{returnErr: BadUsage("lorem ipsum")},
		ThatTapec().ExitsWith(2).WritesStderrContaining("lorem ipsum\n"),
	)
}

func TestExitError(t *testing.T) {
	Test(t, testProgram{returnErr: Exit(3)},
		ThatTapec().ExitsWith(3),
	)
}

func TestExitError_0(t *testing.T) {
	Test(t, testProgram{returnErr: Exit(0)},
		ThatTapec().ExitsWith(0),
	)
}

type testProgram struct {
	notSuitable bool
	writeOut    string
	returnErr   error
	run         func()
}

func (p testProgram) Run(fds [3]*os.File, _ *Flags, args []string) error {
	if p.notSuitable {
		return ErrNotSuitable
	}
	if p.run != nil {
		p.run()
	}
	fds[1].WriteString(p.writeOut)
	return p.returnErr
}
