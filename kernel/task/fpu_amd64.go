//go:build amd64

package task

// FPUArea is the FXSAVE/XSAVE area for one task's FPU/SSE state. It
// must be 16-byte aligned for FXSAVE/FXRSTOR; embedding it in a
// [2]uint64 pair at the front guarantees that on any platform where the
// Task itself starts 16-byte aligned, which the allocator guarantees
// for heap-backed Go values of this size.
type FPUArea struct {
	_   [2]uint64 // alignment padding; see type doc
	buf [512]byte
}

// defaultFPUControlWord is the x87 control word FINIT leaves in place:
// all exceptions masked, 64-bit precision, round-to-nearest.
const defaultFPUControlWord = 0x037f

// defaultMXCSR is the SSE control/status register's power-on value:
// all exceptions masked, round-to-nearest, flush-to-zero and
// denormals-are-zero both clear.
const defaultMXCSR = 0x1f80

func newFPUArea() FPUArea {
	var a FPUArea
	// Bytes 0-1: FCW, bytes 24-27: MXCSR, per the FXSAVE area layout.
	a.buf[0] = byte(defaultFPUControlWord)
	a.buf[1] = byte(defaultFPUControlWord >> 8)
	a.buf[24] = byte(defaultMXCSR)
	a.buf[25] = byte(defaultMXCSR >> 8)
	return a
}

// saveFPU writes the current FXSAVE/XSAVE state into a. Declared
// without a body: the instruction itself is asm-only.
func saveFPU(a *FPUArea)

// restoreFPU loads a's state back with FXRSTOR/XRSTOR.
func restoreFPU(a *FPUArea)

// saveFPUFn and restoreFPUFn indirect the two asm-backed intrinsics so
// the mandatory syscall FPU guard (§4.8) can be exercised without real
// FXSAVE/FXRSTOR hardware state.
var (
	saveFPUFn    = saveFPU
	restoreFPUFn = restoreFPU
)

// SaveFPU snapshots the current hardware FPU/SSE state into t's save
// area. Called as the first step of every syscall entry, before the
// kernel does anything (e.g. a SIMD memcpy) that could clobber it.
func SaveFPU(t *Task) {
	saveFPUFn(&t.FPU)
}

// RestoreFPU reloads t's saved FPU/SSE state. Called as the last step
// before a syscall returns to user space.
func RestoreFPU(t *Task) {
	restoreFPUFn(&t.FPU)
}
