package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rill-sh/rill/internal/process"
)

func newTestTable() (*Table, *process.Table) {
	procTab := process.NewTable()
	return NewTable(procTab), procTab
}

func TestAddAssignsIncreasingIDs(t *testing.T) {
	jt, _ := newTestTable()

	j1 := jt.Add(100, "sleep 10 &")
	j2 := jt.Add(200, "sleep 20 &")

	assert.Equal(t, 1, j1.ID)
	assert.Equal(t, 2, j2.ID)
	assert.Equal(t, Running, j2.Status)
}

func TestAddInsertsAtHead(t *testing.T) {
	jt, _ := newTestTable()
	jt.Add(100, "a")
	jt.Add(200, "b")

	jobs := jt.IterInDisplayOrder()
	require.Len(t, jobs, 2)
	assert.Equal(t, "b", jobs[0].CommandLine)
	assert.Equal(t, "a", jobs[1].CommandLine)
}

func TestAttachProcessRegistersInProcessTable(t *testing.T) {
	jt, procTab := newTestTable()
	j := jt.Add(500, "sleep 10 &")
	jt.AttachProcess(j, 500)

	pgid, ok := procTab.PGIDOf(500)
	require.True(t, ok)
	assert.Equal(t, 500, pgid)
	assert.Equal(t, Running, j.Status)
}

func TestStatusAggregateAllDone(t *testing.T) {
	jt, _ := newTestTable()
	j := jt.Add(500, "ls | wc -l")
	jt.AttachProcess(j, 500)
	jt.AttachProcess(j, 501)

	jt.UpdateProcessStatus(j, 500, process.Done)
	assert.Equal(t, Running, j.Status, "one process still running keeps the job Running")

	jt.UpdateProcessStatus(j, 501, process.Done)
	assert.Equal(t, Done, j.Status)
}

func TestStatusAggregateStoppedRequiresNoRunning(t *testing.T) {
	jt, _ := newTestTable()
	j := jt.Add(500, "sleep 10 | cat")
	jt.AttachProcess(j, 500)
	jt.AttachProcess(j, 501)

	jt.UpdateProcessStatus(j, 500, process.Stopped)
	assert.Equal(t, Running, j.Status, "mixed Stopped+Running is Running")

	jt.UpdateProcessStatus(j, 501, process.Stopped)
	assert.Equal(t, Stopped, j.Status)
}

func TestMarkAllSetsEveryProcess(t *testing.T) {
	jt, _ := newTestTable()
	j := jt.Add(500, "sleep 10")
	jt.AttachProcess(j, 500)
	jt.UpdateProcessStatus(j, 500, process.Stopped)

	jt.MarkAll(j, process.Running)
	assert.Equal(t, Running, j.Status)
}

func TestRemoveClearsProcessTable(t *testing.T) {
	jt, procTab := newTestTable()
	j := jt.Add(500, "sleep 10 &")
	jt.AttachProcess(j, 500)

	jt.Remove(j)

	assert.Nil(t, jt.FindByID(j.ID))
	_, ok := procTab.PGIDOf(500)
	assert.False(t, ok)
}

func TestMostRecentSkipsDone(t *testing.T) {
	jt, _ := newTestTable()
	j1 := jt.Add(100, "a")
	j2 := jt.Add(200, "b")
	jt.AttachProcess(j1, 100)
	jt.AttachProcess(j2, 200)
	jt.UpdateProcessStatus(j2, 200, process.Done)

	assert.Same(t, j1, jt.MostRecent())
}

func TestMostRecentStoppedPicksLargestStoppedID(t *testing.T) {
	jt, _ := newTestTable()
	j1 := jt.Add(100, "a")
	j2 := jt.Add(200, "b")
	jt.AttachProcess(j1, 100)
	jt.AttachProcess(j2, 200)
	jt.UpdateProcessStatus(j1, 100, process.Stopped)
	jt.UpdateProcessStatus(j2, 200, process.Stopped)

	assert.Same(t, j2, jt.MostRecentStopped())
}

func TestFindByPGID(t *testing.T) {
	jt, _ := newTestTable()
	j := jt.Add(777, "cmd")

	assert.Same(t, j, jt.FindByPGID(777))
	assert.Nil(t, jt.FindByPGID(1))
}

// TestDrainIdempotence models the "Idempotence" law from the spec: applying
// the same status update twice leaves the aggregate unchanged.
func TestDrainIdempotence(t *testing.T) {
	jt, _ := newTestTable()
	j := jt.Add(500, "sleep 10")
	jt.AttachProcess(j, 500)

	jt.UpdateProcessStatus(j, 500, process.Done)
	before := j.Status
	jt.UpdateProcessStatus(j, 500, process.Done)

	assert.Equal(t, before, j.Status)
}
