// Package must contains simple functions that panic on errors.
//
// It should only be used in tests and in places where an error means a bug in
// tapec itself.
package must

import "os"

// OK panics if err is not nil.
func OK(err error) {
	if err != nil {
		panic(err)
	}
}

// OK1 panics if err is not nil, and returns v otherwise.
func OK1[T any](v T, err error) T {
	OK(err)
	return v
}

// OK2 panics if err is not nil, and returns v1 and v2 otherwise.
func OK2[T1, T2 any](v1 T1, v2 T2, err error) (T1, T2) {
	OK(err)
	return v1, v2
}

// ReadFileString reads a whole file as a string.
func ReadFileString(name string) string {
	return string(OK1(os.ReadFile(name)))
}

// WriteFile writes a string to a file, creating or truncating it.
func WriteFile(name, data string) {
	OK(os.WriteFile(name, []byte(data), 0600))
}
