package diag

import (
	"errors"
	"fmt"
	"strings"

	"src.tapec.sh/pkg/strutil"
)

// Error represents an error with context that can be showed.
type Error[T ErrorTag] struct {
	Message string
	Context Context
}

// ErrorTag is used to parameterize [Error] into different concrete types. The
// ErrorTag method is called with a zero receiver, and its return value is used
// in [Error.Error] and [Error.Show].
type ErrorTag interface {
	ErrorTag() string
}

// Variables controlling the style of the message.
var (
	messageStart = "\033[31;1m"
	messageEnd   = "\033[m"
)

// Error returns a plain text representation of the error.
func (e *Error[T]) Error() string {
	return errorTag[T]() + ": " + e.Context.describeStart() + ": " + e.Message
}

// Range returns the range of the error.
func (e *Error[T]) Range() Ranging {
	return e.Context.Range()
}

// Show shows the error.
func (e *Error[T]) Show(indent string) string {
	return fmt.Sprintf("%s: %s%s%s\n%s",
		strutil.Title(errorTag[T]()), messageStart, e.Message, messageEnd,
		indent+"  "+e.Context.Show(indent+"  "))
}

func errorTag[T ErrorTag]() string {
	var t T
	return t.ErrorTag()
}

// PackErrors packs multiple instances of [Error] with the same tag into one
// error:
//
//   - If called with no errors, it returns nil.
//   - If called with one error, it returns that error itself.
//   - If called with more than one error, it returns an error that combines
//     all of them, which can be unpacked with [UnpackErrors].
func PackErrors[T ErrorTag](errs []*Error[T]) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return append(multiError[T](nil), errs...)
	}
}

// UnpackErrors returns the constituent [Error] instances in an error if it is
// built from [PackErrors]. Otherwise it returns nil.
func UnpackErrors[T ErrorTag](err error) []*Error[T] {
	switch err := err.(type) {
	case *Error[T]:
		return []*Error[T]{err}
	case multiError[T]:
		return append([]*Error[T](nil), err...)
	default:
		var single *Error[T]
		if errors.As(err, &single) {
			return []*Error[T]{single}
		}
		return nil
	}
}

type multiError[T ErrorTag] []*Error[T]

func (me multiError[T]) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "multiple %ss:", errorTag[T]())
	for _, e := range me {
		sb.WriteString(" " + e.Context.describeStart() + ": " + e.Message + ";")
	}
	return strings.TrimSuffix(sb.String(), ";")
}

func (me multiError[T]) Show(indent string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Multiple %ss:", errorTag[T]())
	for _, e := range me {
		sb.WriteString("\n" + indent + "  " + messageStart + e.Message + messageEnd)
		sb.WriteString("\n" + indent + "    " + e.Context.Show(indent+"    "))
	}
	return sb.String()
}
