// Package shell wires the process table, job table, terminal controller,
// signal subsystem, variable table, and rc config into the REPL control flow
// described in SPEC_FULL.md §4.11.
package shell

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rill-sh/rill/internal/builtin"
	"github.com/rill-sh/rill/internal/executor"
	"github.com/rill-sh/rill/internal/job"
	"github.com/rill-sh/rill/internal/lineedit"
	"github.com/rill-sh/rill/internal/parser"
	"github.com/rill-sh/rill/internal/process"
	"github.com/rill-sh/rill/internal/rcconfig"
	"github.com/rill-sh/rill/internal/signals"
	"github.com/rill-sh/rill/internal/term"
	"github.com/rill-sh/rill/internal/vars"
)

// Config configures a Shell instance.
type Config struct {
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
	RCPath string
	// SelfPath is the path child-safe builtins re-exec (see internal/builtin).
	SelfPath string
	Log      *slog.Logger
}

// Shell is one running instance of the interpreter: a REPL over a single
// terminal, with its own job table and process group bookkeeping.
type Shell struct {
	cfg Config
	log *slog.Logger

	procTab *process.Table
	jobTab  *job.Table
	termCtl *term.Controller
	sigSub  *signals.Subsystem
	sigSt   *signals.State
	varTab  *vars.Table
	rc      *rcconfig.RCConfig
	aliases map[string]string

	editor   *lineedit.Editor
	exec     *executor.Executor
	builtins *builtin.Dispatcher

	exitCode int
	exiting  bool
}

// New constructs a Shell ready to Run. It performs no I/O beyond loading the
// rc file at cfg.RCPath.
func New(cfg Config) *Shell {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	rc, err := rcconfig.Load(cfg.RCPath)
	if err != nil {
		fmt.Fprintf(cfg.Stderr, "rill: %v\n", err)
	}

	procTab := process.NewTable()
	jobTab := job.NewTable(procTab)
	termCtl := term.New(cfg.Stdin)
	sigSub, sigSt := signals.Install()
	varTab := vars.NewFromEnviron()
	for name, value := range rc.Env {
		varTab.Set(name, value)
		varTab.Export(name)
	}

	s := &Shell{
		cfg:     cfg,
		log:     cfg.Log,
		procTab: procTab,
		jobTab:  jobTab,
		termCtl: termCtl,
		sigSub:  sigSub,
		sigSt:   sigSt,
		varTab:  varTab,
		rc:      rc,
		aliases: rc.Aliases,
	}

	s.editor = lineedit.New(cfg.Stdin, cfg.Stdout, termCtl, rc.HistoryLimit)

	s.builtins = &builtin.Dispatcher{
		JobTab:   jobTab,
		Term:     termCtl,
		SignalSt: sigSt,
		Vars:     varTab,
		Stdout:   cfg.Stdout,
		Stderr:   cfg.Stderr,
		Chdir:    func(dir string) error { return os.Chdir(dir) },
		Exit:     s.requestExit,
		SelfPath: cfg.SelfPath,
	}

	s.exec = &executor.Executor{
		ProcTab:    procTab,
		JobTab:     jobTab,
		Term:       termCtl,
		SignalSt:   sigSt,
		Dispatcher: s.builtins,
		Env:        varTab.Environ,
		Stdout:     cfg.Stdout,
		Stderr:     cfg.Stderr,
		Stdin:      cfg.Stdin,
	}

	return s
}

func (s *Shell) requestExit(code int) {
	s.exiting = true
	s.exitCode = code
}

// Close tears down the signal subsystem. Callers should defer it after New.
func (s *Shell) Close() {
	s.sigSub.Stop()
}

func (s *Shell) prompt() string {
	if s.rc.Prompt != "" {
		return s.rc.Prompt
	}
	return "rill> "
}

func (s *Shell) expandAlias(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return line
	}
	if expansion, ok := s.aliases[fields[0]]; ok {
		return expansion + strings.TrimPrefix(line, fields[0])
	}
	return line
}

// Run implements the REPL: print prompt, read a line, parse, dispatch,
// drain SIGCHLD before reading the next line, repeat until EOF or exit.
func (s *Shell) Run(ctx context.Context) int {
	if err := s.termCtl.Initialize(); err != nil {
		s.log.Warn("terminal initialization failed, continuing without job control", "error", err)
	}

	for !s.exiting {
		select {
		case <-ctx.Done():
			return s.exitCode
		default:
		}

		signals.Drain(s.sigSt, s.procTab, s.jobTab)
		s.notifyJobChanges()

		if s.termCtl.Interactive() {
			fmt.Fprint(s.cfg.Stdout, s.prompt())
		}

		line, err := s.editor.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			s.log.Error("read line failed", "error", err)
			break
		}

		line = s.expandAlias(line)

		pipeline, err := parser.Parse(line, s.varTab)
		if err != nil {
			fmt.Fprintf(s.cfg.Stderr, "rill: %v\n", err)
			continue
		}
		if pipeline == nil {
			continue
		}

		code, err := s.exec.Run(pipeline)
		if err != nil {
			fmt.Fprintf(s.cfg.Stderr, "rill: %v\n", err)
		}
		s.exitCode = code

		signals.Drain(s.sigSt, s.procTab, s.jobTab)
		s.notifyJobChanges()
	}

	return s.exitCode
}

// RunCommand runs a single pipeline non-interactively, as the -c flag does,
// and returns its exit status.
func (s *Shell) RunCommand(line string) int {
	pipeline, err := parser.Parse(line, s.varTab)
	if err != nil {
		fmt.Fprintf(s.cfg.Stderr, "rill: %v\n", err)
		return 1
	}
	if pipeline == nil {
		return 0
	}
	code, err := s.exec.Run(pipeline)
	if err != nil {
		fmt.Fprintf(s.cfg.Stderr, "rill: %v\n", err)
	}
	return code
}

// notifyJobChanges prints a "Done" line for each finished job not yet
// reported, the way an interactive shell announces it ahead of the next
// prompt, and removes that job from the table in the same pass. Stopped
// jobs are not announced here.
func (s *Shell) notifyJobChanges() {
	for _, j := range s.jobTab.IterInDisplayOrder() {
		if j.Status == job.Done && !j.Notified {
			fmt.Fprintf(s.cfg.Stdout, "[%d]+  Done\t%s\n", j.ID, j.CommandLine)
			j.Notified = true
			s.jobTab.Remove(j)
		}
	}
}
