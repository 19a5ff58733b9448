package diag

import (
	"fmt"
	"strings"
)

// Context is a range of text in a source. It is used for errors that can be
// associated with a part of the source, like parse errors.
type Context struct {
	Name   string
	Source string
	Ranging
}

// NewContext creates a new Context.
func NewContext(name, source string, r Ranger) *Context {
	return &Context{name, source, r.Range()}
}

// Variables controlling the style of the culprit.
var (
	culpritStart       = "\033[1;4m"
	culpritEnd         = "\033[m"
	culpritPlaceHolder = "^"
)

// Show shows the context as "name:line:col: " followed by the relevant source
// lines, with the culprit highlighted. Lines after the first are indented by
// indent.
func (c *Context) Show(indent string) string {
	if err := c.checkPosition(); err != nil {
		return err.Error()
	}
	desc := c.describeStart() + ": "
	before := c.Source[:c.From]
	culprit := strings.TrimSuffix(c.Source[c.From:c.To], "\n")
	after := c.Source[c.To:]

	var sb strings.Builder
	sb.WriteString(desc)
	sb.WriteString(before[strings.LastIndexByte(before, '\n')+1:])
	if culprit == "" {
		culprit = culpritPlaceHolder
	}
	lineIndent := indent + strings.Repeat(" ", len(desc))
	for i, line := range strings.Split(culprit, "\n") {
		if i > 0 {
			sb.WriteString("\n" + lineIndent)
		}
		sb.WriteString(culpritStart + line + culpritEnd)
	}
	if i := strings.IndexByte(after, '\n'); i == -1 {
		sb.WriteString(after)
	} else {
		sb.WriteString(after[:i])
	}
	return sb.String()
}

func (c *Context) checkPosition() error {
	if c.From < 0 || c.To > len(c.Source) || c.From > c.To {
		return fmt.Errorf("%s, invalid position %d-%d", c.Name, c.From, c.To)
	}
	return nil
}

// Position returns the 1-based line and column of the start of the range.
// Columns count bytes.
func (c *Context) Position() (line, col int) {
	before := c.Source[:clamp(c.From, 0, len(c.Source))]
	line = strings.Count(before, "\n") + 1
	col = len(before) - strings.LastIndexByte(before, '\n')
	return line, col
}

func (c *Context) describeStart() string {
	line, col := c.Position()
	return fmt.Sprintf("%s:%d:%d", c.Name, line, col)
}

func clamp(i, lo, hi int) int {
	if i < lo {
		return lo
	}
	if i > hi {
		return hi
	}
	return i
}
