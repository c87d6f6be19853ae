// Package executor launches a pipeline: creates pipes, starts one process
// per command, assigns the whole pipeline to a single process group, wires
// redirections, and either waits in the foreground or registers a job in
// the background. See SPEC_FULL.md §9 for why this uses os/exec instead of
// a literal fork() loop.
package executor

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/rill-sh/rill/internal/job"
	"github.com/rill-sh/rill/internal/parser"
	"github.com/rill-sh/rill/internal/process"
	"github.com/rill-sh/rill/internal/signals"
	"github.com/rill-sh/rill/internal/term"
)

// BuiltinClass is how the dispatcher classifies a command.
type BuiltinClass int

const (
	// External is any command not recognized as a builtin.
	External BuiltinClass = iota
	// ChildSafe builtins run inside the forked child like an external
	// command (wired through pipes/redirection/process group placement).
	ChildSafe
	// ParentOnly builtins must mutate shell state and run in the shell
	// process itself, bypassing fork entirely.
	ParentOnly
)

// Dispatcher classifies commands and runs parent-only builtins directly.
type Dispatcher interface {
	Classify(name string) BuiltinClass
	RunParentOnly(cmd parser.Command) (exitCode int, err error)
	// ReExecArgs returns the argv this process should be re-exec'd with to
	// run a child-safe builtin as its own process (see SPEC_FULL.md §9).
	ReExecArgs(cmd parser.Command) []string
}

// Executor launches pipelines against a process table, job table, terminal
// controller, and signal state.
type Executor struct {
	ProcTab    *process.Table
	JobTab     *job.Table
	Term       *term.Controller
	SignalSt   *signals.State
	Dispatcher Dispatcher
	Env        func() []string
	Stdout     *os.File
	Stderr     *os.File
	Stdin      *os.File
}

// Run launches pipeline p. For a foreground pipeline it blocks until the
// group exits or stops and returns the exit code of the pipeline's last
// stage (0 if a job was created because the pipeline stopped). For a
// background pipeline it registers a job and returns immediately with
// exit code 0.
func (e *Executor) Run(p *parser.Pipeline) (int, error) {
	if len(p.Commands) == 1 && !p.Background && e.Dispatcher.Classify(p.Commands[0].Argv[0]) == ParentOnly {
		return e.Dispatcher.RunParentOnly(p.Commands[0])
	}

	n := len(p.Commands)
	pipes := make([][2]*os.File, 0, n-1)
	for i := 0; i < n-1; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			e.closeAllPipes(pipes)
			return 1, fmt.Errorf("pipe: %w", err)
		}
		pipes = append(pipes, [2]*os.File{r, w})
	}

	if err := signals.BlockSigchld(); err != nil {
		e.closeAllPipes(pipes)
		return 1, fmt.Errorf("block sigchld: %w", err)
	}
	defer signals.UnblockSigchld() //nolint:errcheck // best-effort unblock on every path

	cmds := make([]*exec.Cmd, n)
	pids := make([]int, n)
	leaderPGID := 0

	for i, stage := range p.Commands {
		cmd, err := e.buildCmd(stage, i, n, pipes, leaderPGID)
		if err != nil {
			e.closeAllPipes(pipes)
			return 1, err
		}
		if err := cmd.Start(); err != nil {
			e.closeAllPipes(pipes)
			return 1, fmt.Errorf("fork/exec %s: %w", stage.Argv[0], err)
		}
		pid := cmd.Process.Pid
		if i == 0 {
			leaderPGID = pid
		}
		// The parent races the child to call setpgid; either assignment
		// wins and the result is the same (see SPEC_FULL.md §9).
		_ = unix.Setpgid(pid, leaderPGID)

		cmds[i] = cmd
		pids[i] = pid
	}

	e.closeAllPipes(pipes)

	if p.Background {
		j := e.JobTab.Add(leaderPGID, p.CommandLine)
		for _, pid := range pids {
			e.JobTab.AttachProcess(j, pid)
		}
		fmt.Fprintf(e.Stdout, "[%d] PGID: %d\n", j.ID, leaderPGID)
		return 0, nil
	}

	return e.foregroundWait(leaderPGID, pids, p.CommandLine)
}

func (e *Executor) buildCmd(stage parser.Command, i, n int, pipes [][2]*os.File, leaderPGID int) (*exec.Cmd, error) {
	name := stage.Argv[0]
	argv := stage.Argv

	if e.Dispatcher.Classify(name) == ChildSafe {
		argv = e.Dispatcher.ReExecArgs(stage)
		name = argv[0]
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	cmd := exec.Command(path, argv[1:]...)
	cmd.Env = e.Env()
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    leaderPGID,
	}

	if i > 0 {
		cmd.Stdin = pipes[i-1][0]
	} else {
		cmd.Stdin = e.Stdin
	}
	if i < n-1 {
		cmd.Stdout = pipes[i][1]
	} else {
		cmd.Stdout = e.Stdout
	}
	cmd.Stderr = e.Stderr

	if stage.RedirectIn != "" {
		f, err := os.Open(stage.RedirectIn) //nolint:gosec // user-supplied redirection target, by design
		if err != nil {
			return nil, fmt.Errorf("%s: %w", stage.RedirectIn, err)
		}
		cmd.Stdin = f
	}
	if stage.RedirectOut != "" {
		flags := os.O_WRONLY | os.O_CREATE
		if stage.Append {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		f, err := os.OpenFile(stage.RedirectOut, flags, 0o644) //nolint:gosec // user-supplied redirection target, by design
		if err != nil {
			return nil, fmt.Errorf("%s: %w", stage.RedirectOut, err)
		}
		cmd.Stdout = f
	}

	return cmd, nil
}

func (e *Executor) closeAllPipes(pipes [][2]*os.File) {
	for _, pair := range pipes {
		pair[0].Close()
		pair[1].Close()
	}
}

// foregroundWait implements the hard part of the original design: it
// repeatedly waits for any child, tracking exits against the pipeline's own
// pids, and only materializes a Job if a process stops -- a clean
// foreground run that exits normally never pollutes the job table.
func (e *Executor) foregroundWait(pgid int, pids []int, commandLine string) (int, error) {
	e.SignalSt.SetForeground(pgid)
	if err := e.Term.GiveTo(pgid); err != nil {
		return 1, fmt.Errorf("give tty: %w", err)
	}
	if err := signals.UnblockSigchld(); err != nil {
		return 1, fmt.Errorf("unblock sigchld: %w", err)
	}

	inPipeline := make(map[int]bool, len(pids))
	for _, pid := range pids {
		inPipeline[pid] = true
	}

	var j *job.Job
	alive := len(pids)
	lastExit := 0

	for alive > 0 {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WUNTRACED, nil)
		if err == unix.EINTR {
			continue
		}
		if err == unix.ECHILD {
			break
		}
		if err != nil {
			break
		}
		if pid <= 0 || !inPipeline[pid] {
			continue
		}

		switch {
		case ws.Exited() || ws.Signaled():
			if pid == pids[len(pids)-1] {
				if ws.Exited() {
					lastExit = ws.ExitStatus()
				} else {
					lastExit = 128 + int(ws.Signal())
				}
			}
			alive--
			if j != nil {
				e.JobTab.UpdateProcessStatus(j, pid, process.Done)
			}
		case ws.Stopped():
			if j == nil {
				j = e.JobTab.Add(pgid, commandLine)
				for _, p := range pids {
					e.JobTab.AttachProcess(j, p)
				}
				fmt.Fprintf(e.Stdout, "\n[%d]+  Stopped\t%s\n", j.ID, commandLine)
			}
			e.JobTab.UpdateProcessStatus(j, pid, process.Stopped)
			lastExit = 0
			goto stopped
		}
	}
stopped:

	if err := e.Term.Reclaim(); err != nil {
		return lastExit, fmt.Errorf("reclaim tty: %w", err)
	}
	e.SignalSt.SetForeground(0)

	return lastExit, nil
}
