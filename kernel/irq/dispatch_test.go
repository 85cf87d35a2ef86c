package irq

import "testing"

func withGateMocks(t *testing.T) *int {
	t.Helper()
	calls := 0
	prevIDT, prevGate := installIDTFn, installGateFn
	installIDTFn = func() {}
	installGateFn = func(InterruptNumber, uint8) { calls++ }
	t.Cleanup(func() {
		installIDTFn, installGateFn = prevIDT, prevGate
		for i := range handlers {
			handlers[i] = nil
		}
	})
	return &calls
}

func TestInitWiresDefaultHandlers(t *testing.T) {
	calls := withGateMocks(t)
	Init()

	if *calls != len(defaultHandledVectors) {
		t.Fatalf("expected %d installGate calls, got %d", len(defaultHandledVectors), *calls)
	}
	for _, vec := range defaultHandledVectors {
		if handlers[vec] == nil {
			t.Fatalf("vector %d left unhandled after Init", vec)
		}
	}
}

func TestHandleInterruptOverridesDefault(t *testing.T) {
	withGateMocks(t)
	Init()

	vec := defaultHandledVectors[0]
	called := false
	HandleInterrupt(vec, 0, func(*Registers) { called = true })

	var regs Registers
	route(vec, &regs)
	if !called {
		t.Fatal("expected the registered handler to run instead of the default")
	}
}

func TestRouteFallsBackToUnhandledForUnregisteredVector(t *testing.T) {
	withGateMocks(t)

	haltCount := 0
	prevHalt := haltFn
	haltFn = func() { haltCount++; panic("halted") }
	defer func() { haltFn = prevHalt }()

	halted := func() (panicked bool) {
		defer func() {
			if recover() != nil {
				panicked = true
			}
		}()
		var regs Registers
		route(InterruptNumber(1), &regs)
		return false
	}()

	if !halted || haltCount == 0 {
		t.Fatal("expected the unhandled path to loop on haltFn")
	}
}

func TestRouteDispatchesRegisteredHandlerWithRegisters(t *testing.T) {
	withGateMocks(t)

	var got *Registers
	vec := InterruptNumber(2)
	HandleInterrupt(vec, 0, func(r *Registers) { got = r })

	regs := &Registers{Info: 42}
	route(vec, regs)

	if got != regs {
		t.Fatal("expected route to pass through the same Registers pointer")
	}
}
