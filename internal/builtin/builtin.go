// Package builtin classifies commands as parent-only, child-safe, or
// external, and implements every builtin named in SPEC_FULL.md §4.6.
package builtin

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/rill-sh/rill/internal/executor"
	"github.com/rill-sh/rill/internal/job"
	"github.com/rill-sh/rill/internal/parser"
	"github.com/rill-sh/rill/internal/process"
	"github.com/rill-sh/rill/internal/signals"
	"github.com/rill-sh/rill/internal/term"
	"github.com/rill-sh/rill/internal/vars"
)

// ReExecFlag is the hidden flag cmd/rill recognizes to run a child-safe
// builtin as its own re-exec'd process (see SPEC_FULL.md §9).
const ReExecFlag = "--builtin-exec"

var parentOnly = map[string]bool{
	"cd": true, "fg": true, "bg": true, "jobs": true,
	"set": true, "export": true, "unset": true, "exit": true,
}

var childSafe = map[string]bool{
	"echo": true, "pwd": true, "env": true, "cat": true, "ls": true,
}

// Dispatcher implements executor.Dispatcher.
type Dispatcher struct {
	JobTab   *job.Table
	Term     *term.Controller
	SignalSt *signals.State
	Vars     *vars.Table
	Stdout   io.Writer
	Stderr   io.Writer
	Chdir    func(string) error
	Exit     func(int)
	SelfPath string
}

var _ executor.Dispatcher = (*Dispatcher)(nil)

// Classify reports how name should be run.
func (d *Dispatcher) Classify(name string) executor.BuiltinClass {
	switch {
	case parentOnly[name]:
		return executor.ParentOnly
	case childSafe[name]:
		return executor.ChildSafe
	default:
		return executor.External
	}
}

// ReExecArgs returns argv for re-invoking this binary to run a child-safe
// builtin as its own process.
func (d *Dispatcher) ReExecArgs(cmd parser.Command) []string {
	args := append([]string{d.SelfPath, ReExecFlag, cmd.Argv[0]}, cmd.Argv[1:]...)
	return args
}

// RunParentOnly executes a parent-only builtin directly in the shell
// process.
func (d *Dispatcher) RunParentOnly(cmd parser.Command) (int, error) {
	if len(cmd.Argv) == 0 {
		return 1, fmt.Errorf("empty command")
	}
	switch cmd.Argv[0] {
	case "cd":
		return d.runCd(cmd.Argv[1:])
	case "fg":
		return d.runFg(cmd.Argv[1:])
	case "bg":
		return d.runBg(cmd.Argv[1:])
	case "jobs":
		return d.runJobs(cmd.Argv[1:])
	case "set":
		return d.runSet(cmd.Argv[1:])
	case "export":
		return d.runExport(cmd.Argv[1:])
	case "unset":
		return d.runUnset(cmd.Argv[1:])
	case "exit":
		return d.runExit(cmd.Argv[1:])
	default:
		return 1, fmt.Errorf("%s: not a parent-only builtin", cmd.Argv[0])
	}
}

func (d *Dispatcher) runCd(args []string) (int, error) {
	target := ""
	if len(args) > 0 {
		target = args[0]
	} else if home, err := os.UserHomeDir(); err == nil {
		target = home
	}
	if err := d.Chdir(target); err != nil {
		fmt.Fprintf(d.Stderr, "cd: %v\n", err)
		return 1, nil
	}
	return 0, nil
}

func (d *Dispatcher) runExit(args []string) (int, error) {
	code := 0
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			code = n
		}
	}
	d.Exit(code)
	return code, nil
}

func (d *Dispatcher) runSet(_ []string) (int, error) {
	for _, kv := range d.Vars.All() {
		fmt.Fprintln(d.Stdout, kv)
	}
	return 0, nil
}

func (d *Dispatcher) runExport(args []string) (int, error) {
	if len(args) == 0 {
		for _, kv := range d.Vars.Environ() {
			fmt.Fprintf(d.Stdout, "export %s\n", kv)
		}
		return 0, nil
	}
	for _, arg := range args {
		name, value, hasValue := strings.Cut(arg, "=")
		if hasValue {
			d.Vars.Set(name, value)
		}
		d.Vars.Export(name)
	}
	return 0, nil
}

func (d *Dispatcher) runUnset(args []string) (int, error) {
	for _, name := range args {
		d.Vars.Unset(name)
	}
	return 0, nil
}

func (d *Dispatcher) runJobs(_ []string) (int, error) {
	jobs := d.JobTab.IterInDisplayOrder()
	for _, j := range jobs {
		fmt.Fprintf(d.Stdout, "[%d] PGID: %d  %s  (%s)\n", j.ID, j.PGID, j.Status, j.CommandLine)
	}
	for _, j := range jobs {
		if j.Status == job.Done {
			j.Notified = true
			d.JobTab.Remove(j)
		}
	}
	return 0, nil
}

func (d *Dispatcher) resolveJobRef(ref string) (*job.Job, error) {
	if ref == "" {
		if j := d.JobTab.MostRecentStopped(); j != nil {
			return j, nil
		}
		return nil, &job.ErrNoSuchJob{Ref: "(none)"}
	}
	id := strings.TrimPrefix(ref, "%")
	n, err := strconv.Atoi(id)
	if err != nil {
		return nil, &job.ErrNoSuchJob{Ref: ref}
	}
	if j := d.JobTab.FindByID(n); j != nil {
		return j, nil
	}
	return nil, &job.ErrNoSuchJob{Ref: ref}
}

func (d *Dispatcher) runFg(args []string) (int, error) {
	ref := ""
	if len(args) > 0 {
		ref = args[0]
	}
	j, err := d.resolveJobRef(ref)
	if err != nil {
		fmt.Fprintf(d.Stderr, "fg: %v\n", err)
		return 1, nil
	}
	if d.SignalSt.Foreground() == j.PGID {
		fmt.Fprintf(d.Stderr, "fg: job %d is already in the foreground\n", j.ID)
		return 1, nil
	}

	fmt.Fprintf(d.Stdout, "%s\n", j.CommandLine)

	d.SignalSt.SetForeground(j.PGID)
	if err := d.Term.GiveTo(j.PGID); err != nil {
		fmt.Fprintf(d.Stderr, "fg: %v\n", err)
		d.SignalSt.SetForeground(0)
		return 1, nil
	}
	if err := signalGroup(j.PGID, unix.SIGCONT); err != nil {
		fmt.Fprintf(d.Stderr, "fg: %v\n", err)
		d.SignalSt.SetForeground(0)
		return 1, nil
	}
	d.JobTab.MarkAll(j, process.Running)

	for j.Status != job.Done && j.Status != job.Stopped {
		waitOnce(d.JobTab, j)
	}

	d.Term.Reclaim() //nolint:errcheck // best-effort reclaim
	d.SignalSt.SetForeground(0)

	if j.Status == job.Done {
		d.JobTab.Remove(j)
	} else {
		fmt.Fprintf(d.Stdout, "\n[%d]+  Stopped\t%s\n", j.ID, j.CommandLine)
	}
	return 0, nil
}

func (d *Dispatcher) runBg(args []string) (int, error) {
	ref := ""
	if len(args) > 0 {
		ref = args[0]
	}
	j, err := d.resolveJobRef(ref)
	if err != nil {
		fmt.Fprintf(d.Stderr, "bg: %v\n", err)
		return 1, nil
	}
	if j.Status != job.Stopped {
		fmt.Fprintf(d.Stderr, "bg: job %d is not stopped\n", j.ID)
		return 1, nil
	}
	if err := signalGroup(j.PGID, unix.SIGCONT); err != nil {
		fmt.Fprintf(d.Stderr, "bg: %v\n", err)
		return 1, nil
	}
	d.JobTab.MarkAll(j, process.Running)
	fmt.Fprintf(d.Stdout, "[%d] %s &\n", j.ID, j.CommandLine)
	return 0, nil
}
