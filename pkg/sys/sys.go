// Package sys provides system utilities with the same API across OSes.
package sys

import (
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
)

// IsATTY determines whether the given file is a terminal.
func IsATTY(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// NotifyInterrupts returns a channel that receives the signals that should
// abort a running program, and a function that stops the delivery.
func NotifyInterrupts() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, interruptSignals...)
	return ch, func() { signal.Stop(ch) }
}
