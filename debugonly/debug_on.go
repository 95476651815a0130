//go:build debugger

package debugonly

import "runtime"

// BreakHere is a stable symbol to set a debugger breakpoint on. The Gosched
// call keeps the function from being inlined away.
func BreakHere() {
	runtime.Gosched()
}

// Enabled reports whether the debugger build tag is active.
func Enabled() bool { return true }
