//go:build debug

package debug

import "fmt"

// Enabled reports whether assertions are compiled in
const Enabled = true

// Unreachable panics with the formatted message. Use it on code paths that
// an exhaustive dispatch should never reach.
func Unreachable(format string, args ...any) {
	panic(fmt.Sprintf("unreachable: "+format, args...))
}

// Assert panics with msg when cond is false
func Assert(cond bool, msg string) {
	if !cond {
		panic("assertion failed: " + msg)
	}
}
