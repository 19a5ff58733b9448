//go:build !windows

package progtest

import (
	"io"
	"os"

	"github.com/creack/pty"
	"src.tapec.sh/pkg/must"
	"src.tapec.sh/pkg/prog"
)

// RunWithTTYStderr is like Run, but connects stderr to a pseudo-terminal. It
// returns the program's exit code and what the terminal received from stderr.
func RunWithTTYStderr(p prog.Program, args ...string) (exit int, stderr string) {
	ptmx, tty := must.OK2(pty.Open())
	defer ptmx.Close()
	devNull := must.OK1(os.Open(os.DevNull))
	defer devNull.Close()
	r1, w1 := must.OK2(os.Pipe())
	stdout := readAsync(r1)

	received := make(chan string, 1)
	go func() {
		// Reading from the master side fails with EIO once the terminal is
		// closed; everything written before that has been returned by then.
		data, _ := io.ReadAll(ptmx)
		received <- string(data)
	}()

	exit = prog.Run([3]*os.File{devNull, w1, tty}, append([]string{"tapec"}, args...), p)
	w1.Close()
	tty.Close()
	<-stdout
	return exit, <-received
}
