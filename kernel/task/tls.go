package task

import "github.com/rainkernel/rainkernel/kernel/cpu"

// installTLSBaseFn installs addr as the running task's TLS base
// register: FS base on x86_64, TPIDR_EL0 on aarch64 (§4.4). It is
// overridden by tests; the real cpu.SetTLSBase faults outside ring 0.
var installTLSBaseFn = cpu.SetTLSBase

func installTLSBase(addr uintptr) {
	installTLSBaseFn(addr)
}
