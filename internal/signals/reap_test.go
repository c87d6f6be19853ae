package signals

import (
	"os/exec"
	"testing"
	"time"

	"github.com/rill-sh/rill/internal/job"
	"github.com/rill-sh/rill/internal/process"
)

// TestDrainIsIdempotentWhenFlagClear models the Idempotence law: calling
// Drain twice in succession with no pending signal leaves the tables
// unchanged on the second call.
func TestDrainIsIdempotentWhenFlagClear(t *testing.T) {
	state := &State{}
	procTab := process.NewTable()
	jobTab := job.NewTable(procTab)

	Drain(state, procTab, jobTab) // no-op: flag clear
	Drain(state, procTab, jobTab) // no-op again

	if jobTab.MostRecent() != nil {
		t.Fatal("Drain with no pending signal created a job")
	}
}

func TestDrainReapsExitedChild(t *testing.T) {
	procTab := process.NewTable()
	jobTab := job.NewTable(procTab)
	state := &State{}

	cmd := exec.Command("true")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start test child: %v", err)
	}
	pid := cmd.Process.Pid

	j := jobTab.Add(pid, "true &")
	jobTab.AttachProcess(j, pid)

	// Give the child a moment to exit. Drain reaps it directly with wait4,
	// bypassing cmd.Wait() so nothing else races to reap the same pid.
	time.Sleep(100 * time.Millisecond)

	state.sigchldPending.Store(true)
	Drain(state, procTab, jobTab)

	if j.Status != job.Done {
		t.Fatalf("job.Status = %v, want Done", j.Status)
	}
}
