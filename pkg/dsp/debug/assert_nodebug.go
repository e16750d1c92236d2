//go:build !debug

package debug

// Enabled reports whether assertions are compiled in
const Enabled = false

// Unreachable is a no-op when not in debug mode
func Unreachable(format string, args ...any) {}

// Assert is a no-op when not in debug mode
func Assert(cond bool, msg string) {}
