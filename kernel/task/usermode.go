package task

// enterUserModeFn indirects the asm-backed enterUserMode so tests can
// observe the arguments a user-mode transition was given without
// actually trapping ring 0 into ring 3.
var enterUserModeFn = enterUserMode

// EnterUserMode makes a task's final transition out of kernel code and
// into entry at ring 3, with userStackTop installed as the user stack
// pointer and arg left in the architecture's first-argument register.
// On real hardware this never returns to its caller; the task's only
// way back into the kernel from here on is a trap.
func EnterUserMode(entry, arg, userStackTop uintptr) {
	enterUserModeFn(entry, arg, userStackTop)
}
