package builtin

import (
	"golang.org/x/sys/unix"

	"github.com/rill-sh/rill/internal/job"
	"github.com/rill-sh/rill/internal/process"
)

// signalGroup sends sig to every process in the group led by pgid.
func signalGroup(pgid int, sig unix.Signal) error {
	return unix.Kill(-pgid, sig)
}

// waitOnce blocks for one wait4 report and, when it is for one of j's
// processes, applies the resulting status transition; a report for any
// other pid is dropped and waitOnce returns, leaving the caller to wait
// again. Together with runFg's loop this mirrors the foreground-wait loop
// in internal/executor for the fg builtin's "foreground-wait loop
// identical to §4.5's" requirement.
func waitOnce(jobTab *job.Table, j *job.Job) {
	inJob := make(map[int]bool, len(j.Processes))
	for _, p := range j.Processes {
		inJob[p.PID] = true
	}

	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WUNTRACED, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil || pid <= 0 || !inJob[pid] {
			if err == unix.ECHILD {
				j.Status = job.Done
			}
			return
		}

		switch {
		case ws.Exited() || ws.Signaled():
			jobTab.UpdateProcessStatus(j, pid, process.Done)
		case ws.Stopped():
			jobTab.UpdateProcessStatus(j, pid, process.Stopped)
		case ws.Continued():
			jobTab.UpdateProcessStatus(j, pid, process.Running)
		}
		return
	}
}
