// Package process tracks the mapping from a forked child's pid to the
// process group it belongs to. It is a lookup index only; the job table is
// the sole owner of the Process records it indexes.
package process

import "sync"

// Status is the lifecycle state of a single process within a job.
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

// Process is one child created by the executor.
type Process struct {
	PID    int
	PGID   int
	Status Status
}

// Table answers pgid_of(pid) for any pid the shell has ever forked. Entries
// are not freed when a child exits, only when the owning job is removed,
// because the reaper needs to map pids reported by waitpid back to jobs.
type Table struct {
	mu   sync.RWMutex
	pgid map[int]int
}

// NewTable returns an empty process table.
func NewTable() *Table {
	return &Table{pgid: make(map[int]int)}
}

// Register adds an entry for pid, idempotent for the same pid/pgid pair.
func (t *Table) Register(pid, pgid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pgid[pid] = pgid
}

// PGIDOf looks up the process group for pid.
func (t *Table) PGIDOf(pid int) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	pgid, ok := t.pgid[pid]
	return pgid, ok
}

// Forget removes pid, called when the owning job is removed.
func (t *Table) Forget(pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pgid, pid)
}

// Len reports the number of live entries, used by tests.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.pgid)
}
