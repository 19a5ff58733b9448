package diag

import (
	"fmt"
	"io"
	"os"
	"regexp"

	"src.tapec.sh/pkg/sys"
)

// Shower wraps the Show function.
type Shower interface {
	// Show takes an indentation string and shows.
	Show(indent string) string
}

var sgrPattern = regexp.MustCompile("\033\\[[0-9;]*m")

// ShowError shows an error on w. It uses the Show method if the error
// implements Shower, and the Error method otherwise. Styling is kept only
// when w is a terminal.
func ShowError(w io.Writer, err error) {
	var text string
	if shower, ok := err.(Shower); ok {
		text = shower.Show("")
	} else {
		text = messageStart + err.Error() + messageEnd
	}
	if !isTerminal(w) {
		text = sgrPattern.ReplaceAllString(text, "")
	}
	fmt.Fprintln(w, text)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && sys.IsATTY(f.Fd())
}
