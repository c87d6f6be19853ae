// Package term encapsulates the transitions of controlling-terminal
// ownership between the shell and a foreground job's process group, and the
// raw-mode toggle the line editor uses while reading input.
package term

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Controller owns the shell's controlling-tty file descriptor and the
// shell's own pgid.
type Controller struct {
	fd          int
	shellPGID   int
	interactive bool
	rawState    *term.State
}

// New returns a Controller for the given tty file (typically os.Stdin).
// Initialize must be called before GiveTo/Reclaim are meaningful.
func New(tty *os.File) *Controller {
	fd := int(tty.Fd())
	return &Controller{
		fd:          fd,
		interactive: term.IsTerminal(fd),
	}
}

// Interactive reports whether the controller's fd is a tty.
func (c *Controller) Interactive() bool { return c.interactive }

// FD returns the controller's tty file descriptor.
func (c *Controller) FD() int { return c.fd }

// ShellPGID returns the pgid the shell claimed during Initialize.
func (c *Controller) ShellPGID() int { return c.shellPGID }

// Initialize detects whether the controller's fd is a tty; if interactive,
// places the shell itself into its own process group (setpgid(0,0) until
// getpgid(0) == getpid()), makes that group the tty foreground, and ignores
// SIGTTOU/SIGTTIN before any tcsetpgrp call (the signal subsystem installs
// those ignores; Initialize only requires they already be in place).
func (c *Controller) Initialize() error {
	if !c.interactive {
		return nil
	}

	pid := os.Getpid()
	for {
		pgid, err := unix.Getpgid(pid)
		if err != nil {
			return fmt.Errorf("getpgid: %w", err)
		}
		if pgid == pid {
			break
		}
		if err := unix.Setpgid(0, 0); err != nil {
			return fmt.Errorf("setpgid(0,0): %w", err)
		}
	}

	c.shellPGID = pid
	if err := unix.IoctlSetPointerInt(c.fd, unix.TIOCSPGRP, pid); err != nil {
		return fmt.Errorf("tcsetpgrp(shell): %w", err)
	}
	return nil
}

// GiveTo grants the tty to pgid; a no-op when non-interactive or pgid<=0.
func (c *Controller) GiveTo(pgid int) error {
	if !c.interactive || pgid <= 0 {
		return nil
	}
	if err := unix.IoctlSetPointerInt(c.fd, unix.TIOCSPGRP, pgid); err != nil {
		return fmt.Errorf("tcsetpgrp(%d): %w", pgid, err)
	}
	return nil
}

// Reclaim hands the tty back to the shell's own pgid.
func (c *Controller) Reclaim() error {
	return c.GiveTo(c.shellPGID)
}

// Foreground returns the tty's current foreground process group, used by
// tests to observe a handoff without reaching into executor internals.
func (c *Controller) Foreground() (int, bool) {
	pgid, err := unix.IoctlGetInt(c.fd, unix.TIOCGPGRP)
	if err != nil || pgid <= 0 {
		return 0, false
	}
	return pgid, true
}

// EnterRaw puts the tty into raw mode for the line editor; a no-op (and
// non-error) when non-interactive.
func (c *Controller) EnterRaw() error {
	if !c.interactive || c.rawState != nil {
		return nil
	}
	state, err := term.MakeRaw(c.fd)
	if err != nil {
		return fmt.Errorf("make raw: %w", err)
	}
	c.rawState = state
	return nil
}

// ExitRaw restores the tty's prior mode.
func (c *Controller) ExitRaw() error {
	if c.rawState == nil {
		return nil
	}
	err := term.Restore(c.fd, c.rawState)
	c.rawState = nil
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	return nil
}
