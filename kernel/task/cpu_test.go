package task

import "testing"

func TestCpuCurrentTaskDefaultsToNil(t *testing.T) {
	var c Cpu
	if c.CurrentTask() != nil {
		t.Fatal("expected no current task on a fresh Cpu")
	}
}

func TestCpuSetCurrentTaskRoundTrips(t *testing.T) {
	var c Cpu
	tk := &Task{ID: 7}
	c.SetCurrentTask(tk)
	if got := c.CurrentTask(); got != tk {
		t.Fatalf("expected CurrentTask to return the task just set, got %+v", got)
	}
}
