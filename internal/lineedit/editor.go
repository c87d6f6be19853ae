// Package lineedit reads one logical line at a time from a terminal,
// supporting backspace and Up/Down history navigation while the tty is in
// raw mode, with a fallback to plain buffered line reads when the input is
// not a terminal (scripts, tests, the scripted-session pty harness).
package lineedit

import (
	"bufio"
	"io"
)

// DefaultHistoryLimit is used when the caller doesn't override it (a
// non-positive limit passed to New falls back to this too).
const DefaultHistoryLimit = 100

// RawTerminal is the subset of internal/term.Controller the editor needs
// to enter/exit raw mode.
type RawTerminal interface {
	Interactive() bool
	EnterRaw() error
	ExitRaw() error
}

// Editor reads lines and keeps a capped history ring.
type Editor struct {
	r            io.Reader
	w            io.Writer
	term         RawTerminal
	history      []string
	historyLimit int
	scanner      *bufio.Scanner
}

// New returns an Editor reading from r and echoing to w, using term to
// toggle raw mode while interactive. historyLimit caps the in-memory
// history ring; a non-positive value falls back to DefaultHistoryLimit.
func New(r io.Reader, w io.Writer, term RawTerminal, historyLimit int) *Editor {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Editor{r: r, w: w, term: term, historyLimit: historyLimit}
}

// History returns a copy of the in-memory history, most recent last.
func (e *Editor) History() []string {
	out := make([]string, len(e.history))
	copy(out, e.history)
	return out
}

func (e *Editor) pushHistory(line string) {
	if line == "" {
		return
	}
	e.history = append(e.history, line)
	if len(e.history) > e.historyLimit {
		e.history = e.history[len(e.history)-e.historyLimit:]
	}
}

// ReadLine reads one logical line. io.EOF is returned on end of input (a
// Ctrl-D on an empty line in raw mode, or the end of a non-terminal
// stream).
func (e *Editor) ReadLine() (string, error) {
	if e.term == nil || !e.term.Interactive() {
		return e.readLineBuffered()
	}
	return e.readLineRaw()
}

func (e *Editor) readLineBuffered() (string, error) {
	if e.scanner == nil {
		e.scanner = bufio.NewScanner(e.r)
	}
	if !e.scanner.Scan() {
		if err := e.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	line := e.scanner.Text()
	e.pushHistory(line)
	return line, nil
}

// readLineRaw implements backspace handling and Up/Down history recall
// while the terminal controller holds the tty in raw mode.
func (e *Editor) readLineRaw() (string, error) {
	if err := e.term.EnterRaw(); err != nil {
		return e.readLineBuffered()
	}
	defer e.term.ExitRaw() //nolint:errcheck // best-effort restore

	buf := make([]byte, 1)
	var line []rune
	historyIdx := len(e.history)

	redraw := func(prev int) {
		for i := 0; i < prev; i++ {
			io.WriteString(e.w, "\b \b") //nolint:errcheck // best-effort terminal echo
		}
		io.WriteString(e.w, string(line)) //nolint:errcheck
	}

	for {
		n, err := e.r.Read(buf)
		if err != nil {
			if n == 0 {
				return "", io.EOF
			}
			return "", err
		}
		c := buf[0]

		switch c {
		case '\r', '\n':
			io.WriteString(e.w, "\n") //nolint:errcheck
			result := string(line)
			e.pushHistory(result)
			return result, nil
		case 0x04: // Ctrl-D
			if len(line) == 0 {
				return "", io.EOF
			}
		case 0x7f, 0x08: // backspace / DEL
			if len(line) > 0 {
				line = line[:len(line)-1]
				io.WriteString(e.w, "\b \b") //nolint:errcheck
			}
		case 0x1b: // escape sequence, likely an arrow key
			seq := e.readEscapeSequence()
			switch seq {
			case "[A": // Up
				if historyIdx > 0 {
					historyIdx--
					prev := len(line)
					line = []rune(e.history[historyIdx])
					redraw(prev)
				}
			case "[B": // Down
				prev := len(line)
				if historyIdx < len(e.history)-1 {
					historyIdx++
					line = []rune(e.history[historyIdx])
				} else {
					historyIdx = len(e.history)
					line = nil
				}
				redraw(prev)
			}
		default:
			line = append(line, rune(c))
			io.WriteString(e.w, string(c)) //nolint:errcheck
		}
	}
}

// readEscapeSequence consumes the two bytes following an ESC that make up
// a CSI cursor sequence ("[A", "[B", "[C", "[D"); unrecognized sequences
// are swallowed byte-by-byte up to this minimal two-byte form.
func (e *Editor) readEscapeSequence() string {
	buf := make([]byte, 2)
	n, _ := io.ReadFull(e.r, buf)
	return string(buf[:n])
}
