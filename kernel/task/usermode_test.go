package task

import "testing"

func TestEnterUserModeForwardsArguments(t *testing.T) {
	prev := enterUserModeFn
	defer func() { enterUserModeFn = prev }()

	var gotEntry, gotArg, gotStack uintptr
	enterUserModeFn = func(entry, arg, userStackTop uintptr) {
		gotEntry, gotArg, gotStack = entry, arg, userStackTop
	}

	EnterUserMode(0x4000, 0x5000, 0x7ffffffff000)

	if gotEntry != 0x4000 || gotArg != 0x5000 || gotStack != 0x7ffffffff000 {
		t.Fatalf("unexpected forwarded arguments: entry=%#x arg=%#x stack=%#x", gotEntry, gotArg, gotStack)
	}
}
