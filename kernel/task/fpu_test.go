package task

import "testing"

func TestSaveRestoreFPUInvokeTheIndirectedIntrinsics(t *testing.T) {
	prevSave, prevRestore := saveFPUFn, restoreFPUFn
	defer func() { saveFPUFn, restoreFPUFn = prevSave, prevRestore }()

	var saved, restored *FPUArea
	saveFPUFn = func(a *FPUArea) { saved = a }
	restoreFPUFn = func(a *FPUArea) { restored = a }

	tsk := &Task{FPU: newFPUArea()}

	SaveFPU(tsk)
	if saved != &tsk.FPU {
		t.Fatal("expected SaveFPU to pass the task's own FPU area")
	}

	RestoreFPU(tsk)
	if restored != &tsk.FPU {
		t.Fatal("expected RestoreFPU to pass the task's own FPU area")
	}
}
