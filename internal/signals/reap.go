package signals

import (
	"golang.org/x/sys/unix"

	"github.com/rill-sh/rill/internal/job"
	"github.com/rill-sh/rill/internal/process"
)

// Drain does nothing if the pending flag is clear. Otherwise it clears the
// flag before looping wait4(-1, WNOHANG|WUNTRACED|WCONTINUED) until no more
// children report. Clearing the flag before the loop is deliberate: a
// signal arriving mid-loop re-raises it and forces another Drain on the
// next cycle rather than being lost.
func Drain(state *State, procTab *process.Table, jobTab *job.Table) {
	if !state.sigchldPending.Swap(false) {
		return
	}

	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WNOHANG|unix.WUNTRACED|unix.WCONTINUED, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil || pid <= 0 {
			return
		}

		pgid, ok := procTab.PGIDOf(pid)
		if !ok {
			continue
		}
		j := jobTab.FindByPGID(pgid)
		if j == nil {
			continue
		}

		switch {
		case ws.Exited() || ws.Signaled():
			jobTab.UpdateProcessStatus(j, pid, process.Done)
		case ws.Stopped():
			jobTab.UpdateProcessStatus(j, pid, process.Stopped)
		case ws.Continued():
			jobTab.UpdateProcessStatus(j, pid, process.Running)
		}
	}
}
