// Package job maintains the set of known jobs and their aggregate status,
// allocates job ids, and backs fg/bg/jobs selection. See the process
// package for the pid->pgid lookup index jobs are cross-referenced through.
package job

import (
	"fmt"
	"sync"

	"github.com/rill-sh/rill/internal/process"
)

// Status is the aggregate lifecycle state of a job, derived from the
// statuses of its processes (see Job.recompute).
type Status int

const (
	Running Status = iota
	Stopped
	Done
)

func (s Status) String() string {
	switch s {
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	case Done:
		return "Done"
	default:
		return "Unknown"
	}
}

// Job is one pipeline run as a unit.
type Job struct {
	ID          int
	PGID        int
	CommandLine string
	Processes   []*process.Process
	Status      Status
	Notified    bool
}

// recompute sets j.Status from the statuses of j.Processes, per the
// invariants: Done iff all Done; Stopped iff at least one Stopped and none
// Running; Running otherwise (including mixed Done+Running).
func (j *Job) recompute() {
	allDone := true
	anyStopped := false
	anyRunning := false

	for _, p := range j.Processes {
		switch p.Status {
		case process.Done:
		case process.Stopped:
			allDone = false
			anyStopped = true
		case process.Running:
			allDone = false
			anyRunning = true
		}
	}

	switch {
	case allDone:
		j.Status = Done
	case anyStopped && !anyRunning:
		j.Status = Stopped
	default:
		j.Status = Running
	}
}

// Table is the ordered collection of live jobs.
type Table struct {
	mu      sync.Mutex
	jobs    []*Job
	nextID  int
	procTab *process.Table
}

// NewTable returns an empty job table backed by procTab for pid->pgid
// lookups and process-table cleanup on Remove.
func NewTable(procTab *process.Table) *Table {
	return &Table{nextID: 1, procTab: procTab}
}

// Add assigns the next job id, inserts at the head, and returns the new
// record. job_id values come from nextID, which only ever increases, so ids
// are never reused over the table's lifetime and a new job's id is greater
// than every existing one (max(existing_ids)+1 unless higher-numbered jobs
// have already been removed).
func (t *Table) Add(pgid int, commandLine string) *Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	j := &Job{
		ID:          t.nextID,
		PGID:        pgid,
		CommandLine: commandLine,
		Status:      Running,
	}
	t.nextID++
	t.jobs = append([]*Job{j}, t.jobs...)
	return j
}

// FindByID returns the job with the given id, or nil.
func (t *Table) FindByID(id int) *Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.jobs {
		if j.ID == id {
			return j
		}
	}
	return nil
}

// FindByPGID returns the job whose pgid matches, or nil.
func (t *Table) FindByPGID(pgid int) *Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.jobs {
		if j.PGID == pgid {
			return j
		}
	}
	return nil
}

// AttachProcess pushes a Process{pid, pgid=job.pgid, Running} into both the
// job and the process table.
func (t *Table) AttachProcess(j *Job, pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := &process.Process{PID: pid, PGID: j.PGID, Status: process.Running}
	j.Processes = append(j.Processes, p)
	j.recompute()
	t.procTab.Register(pid, j.PGID)
}

// UpdateProcessStatus sets the given process's status then recomputes the
// job aggregate.
func (t *Table) UpdateProcessStatus(j *Job, pid int, status process.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, p := range j.Processes {
		if p.PID == pid {
			p.Status = status
			break
		}
	}
	j.recompute()
}

// MarkAll sets every process in the job to status, used by bg/fg when
// sending SIGCONT.
func (t *Table) MarkAll(j *Job, status process.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, p := range j.Processes {
		p.Status = status
	}
	j.recompute()
}

// Remove unlinks the job, frees its processes from the process table, and
// releases the command-line string.
func (t *Table) Remove(j *Job) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, cand := range t.jobs {
		if cand == j {
			t.jobs = append(t.jobs[:i], t.jobs[i+1:]...)
			break
		}
	}
	for _, p := range j.Processes {
		t.procTab.Forget(p.PID)
	}
	j.CommandLine = ""
}

// IterInDisplayOrder returns a snapshot of live jobs in table order, used by
// the jobs builtin.
func (t *Table) IterInDisplayOrder() []*Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Job, len(t.jobs))
	copy(out, t.jobs)
	return out
}

// MostRecent returns the job with the largest id whose status is not Done.
func (t *Table) MostRecent() *Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	var best *Job
	for _, j := range t.jobs {
		if j.Status == Done {
			continue
		}
		if best == nil || j.ID > best.ID {
			best = j
		}
	}
	return best
}

// MostRecentStopped returns the job with the largest id whose aggregate is
// Stopped.
func (t *Table) MostRecentStopped() *Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	var best *Job
	for _, j := range t.jobs {
		if j.Status != Stopped {
			continue
		}
		if best == nil || j.ID > best.ID {
			best = j
		}
	}
	return best
}

// ErrNoSuchJob is returned by lookups that resolve a user-supplied job
// reference (%N or N) that does not name a live job.
type ErrNoSuchJob struct {
	Ref string
}

func (e *ErrNoSuchJob) Error() string {
	return fmt.Sprintf("no such job: %s", e.Ref)
}
