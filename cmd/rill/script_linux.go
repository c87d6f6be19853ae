//go:build linux

// Scripted-session harness adapted from the teacher's PTY relay
// (cmd/fence/pty_runtime_linux.go): open a real pty, run a child under it so
// the child genuinely owns a controlling terminal, and relay its output (no
// signals are relayed).
// Here the child is rill itself and the "input" is a fixed script instead of
// a live terminal, which lets job-control scenarios (Ctrl-Z, fg, bg) run
// deterministically where stdin is not a tty (SPEC_FULL.md §4.12).
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/creack/pty"
)

// lineDelay is how long the harness waits after writing each script line
// before writing the next one, giving the child shell time to react (print
// a prompt, stop a job, etc.) before more input arrives.
const lineDelay = 50 * time.Millisecond

// runScripted runs self (re-invoked with no --script flag) as the child of
// a pty, feeds it the lines of scriptPath, and copies the pty's output to
// stdout until the child exits.
func runScripted(ctx context.Context, self, scriptPath string) error {
	lines, err := readScriptLines(scriptPath)
	if err != nil {
		return fmt.Errorf("read script %s: %w", scriptPath, err)
	}

	cmd := exec.CommandContext(ctx, self) //nolint:gosec // self is this binary's own executable path
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("start pty: %w", err)
	}
	defer ptmx.Close() //nolint:errcheck // best-effort on the relay path

	outputDone := make(chan struct{})
	go func() {
		defer close(outputDone)
		_, _ = io.Copy(os.Stdout, ptmx)
	}()

	for _, line := range lines {
		if _, err := ptmx.Write([]byte(line + "\n")); err != nil {
			break
		}
		time.Sleep(lineDelay)
	}

	err = cmd.Wait()
	<-outputDone
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		return fmt.Errorf("wait for scripted session: %w", err)
	}
	return nil
}

// readScriptLines reads scriptPath, dropping blank lines and '#' comments so
// scripts read like a small narrated transcript.
func readScriptLines(scriptPath string) ([]string, error) {
	f, err := os.Open(scriptPath) //nolint:gosec // user-supplied script path, by design
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
