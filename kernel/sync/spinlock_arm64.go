package sync

// archPause issues a YIELD instruction, the aarch64 equivalent of amd64's
// PAUSE. Implemented in spinlock_arm64.s.
func archPause()
