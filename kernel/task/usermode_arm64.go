//go:build arm64

package task

// enterUserMode transfers control from EL1 to EL0 at entry, with the
// argument register loaded with arg and SP_EL0 loaded with
// userStackTop, via ERET with SPSR_EL1's mode bits set to EL0t. It
// never returns, grounded on the original core's JumpToUserMode.
func enterUserMode(entry, arg, userStackTop uintptr)
