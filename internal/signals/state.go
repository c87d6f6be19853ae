// Package signals installs the shell's signal handling and drains pending
// SIGCHLD notifications into job/process table updates. The only state a
// signal-handling goroutine may touch is State.fgPGID and
// State.sigchldPending; the job and process tables are mutated only from
// the main/REPL context (Drain, the executor, and the builtins).
package signals

import (
	"os"
	"os/signal"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// State holds the two sig-atomic fields a handler goroutine can reach
// without touching the job/process tables.
type State struct {
	fgPGID         atomic.Int64
	sigchldPending atomic.Bool
}

// SetForeground records the pgid currently owning the terminal, or 0 when
// the shell owns it.
func (s *State) SetForeground(pgid int) { s.fgPGID.Store(int64(pgid)) }

// Foreground returns the pgid currently owning the terminal.
func (s *State) Foreground() int { return int(s.fgPGID.Load()) }

// SigchldPending reports whether a SIGCHLD has been observed since the last
// Drain.
func (s *State) SigchldPending() bool { return s.sigchldPending.Load() }

// Subsystem installs signal handling for the shell process.
type Subsystem struct {
	state *State
	ch    chan os.Signal
}

// Install ignores SIGTTOU/SIGTTIN, installs the SIGCHLD/SIGINT/SIGTSTP
// handling goroutine, and returns the Subsystem plus the shared State. The
// returned goroutine never touches the job or process tables; it only
// flips sigchldPending or forwards a signal to the foreground process
// group via killpg.
func Install() (*Subsystem, *State) {
	state := &State{}

	signal.Ignore(unix.SIGTTOU, unix.SIGTTIN)

	ch := make(chan os.Signal, 64)
	signal.Notify(ch, unix.SIGCHLD, unix.SIGINT, unix.SIGTSTP)

	sub := &Subsystem{state: state, ch: ch}
	go sub.loop()
	return sub, state
}

// Stop uninstalls the signal handling goroutine. Called by Shell.Close when
// tearing down a shell instance.
func (s *Subsystem) Stop() {
	signal.Stop(s.ch)
	close(s.ch)
}

func (s *Subsystem) loop() {
	for sig := range s.ch {
		switch sig {
		case unix.SIGCHLD:
			s.state.sigchldPending.Store(true)
		case unix.SIGINT:
			if fg := s.state.Foreground(); fg > 0 {
				_ = unix.Kill(-fg, unix.SIGINT)
			}
		case unix.SIGTSTP:
			if fg := s.state.Foreground(); fg > 0 {
				_ = unix.Kill(-fg, unix.SIGTSTP)
			}
		}
	}
}

// BlockSigchld blocks SIGCHLD on the calling OS thread, matching the
// original design's "block SIGCHLD around the fork loop" requirement. Must
// be paired with UnblockSigchld once the job has been registered (for
// background pipelines) or the foreground wait has been entered (for
// foreground pipelines); see internal/executor.
func BlockSigchld() error {
	var set unix.Sigset_t
	if err := unix.SigsetAdd(&set, int(unix.SIGCHLD)); err != nil {
		return err
	}
	return unix.PthreadSigmask(unix.SIG_BLOCK, &set, nil)
}

// UnblockSigchld reverses BlockSigchld.
func UnblockSigchld() error {
	var set unix.Sigset_t
	if err := unix.SigsetAdd(&set, int(unix.SIGCHLD)); err != nil {
		return err
	}
	return unix.PthreadSigmask(unix.SIG_UNBLOCK, &set, nil)
}
