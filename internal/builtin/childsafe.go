package builtin

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// RunChildSafe executes a child-safe builtin in the current process. It is
// called from the re-exec'd process started via ReExecArgs, so it owns its
// own pid/pgid/fds exactly like an external command would.
func RunChildSafe(name string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	switch name {
	case "echo":
		return runEcho(args, stdout)
	case "pwd":
		return runPwd(stdout, stderr)
	case "env":
		return runEnv(stdout)
	case "cat":
		return runCat(args, stdin, stdout, stderr)
	case "ls":
		return runLs(args, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "%s: not a child-safe builtin\n", name)
		return 1
	}
}

func runEcho(args []string, stdout io.Writer) int {
	fmt.Fprintln(stdout, strings.Join(args, " "))
	return 0
}

func runPwd(stdout, stderr io.Writer) int {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "pwd: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, dir)
	return 0
}

func runEnv(stdout io.Writer) int {
	for _, kv := range os.Environ() {
		fmt.Fprintln(stdout, kv)
	}
	return 0
}

func runCat(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		if _, err := io.Copy(stdout, stdin); err != nil {
			fmt.Fprintf(stderr, "cat: %v\n", err)
			return 1
		}
		return 0
	}
	status := 0
	for _, path := range args {
		f, err := os.Open(path) //nolint:gosec // user-supplied filename, by design
		if err != nil {
			fmt.Fprintf(stderr, "cat: %v\n", err)
			status = 1
			continue
		}
		if _, err := io.Copy(stdout, f); err != nil {
			fmt.Fprintf(stderr, "cat: %v\n", err)
			status = 1
		}
		f.Close()
	}
	return status
}

// runLs lists the current directory (or the given paths), applying an
// optional -I <pattern> ignore filter matched with doublestar against each
// entry's name -- the builtin's own argument interpretation, not shell-level
// globbing (see SPEC_FULL.md §4.6).
func runLs(args []string, stdout, stderr io.Writer) int {
	var ignore string
	var dirs []string
	showAll := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-I":
			if i+1 >= len(args) {
				fmt.Fprintln(stderr, "ls: -I requires a pattern")
				return 1
			}
			ignore = args[i+1]
			i++
		case "-a", "-A":
			showAll = true
		default:
			dirs = append(dirs, args[i])
		}
	}
	if len(dirs) == 0 {
		dirs = []string{"."}
	}

	status := 0
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			fmt.Fprintf(stderr, "ls: %v\n", err)
			status = 1
			continue
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !showAll && strings.HasPrefix(e.Name(), ".") {
				continue
			}
			if ignore != "" {
				matched, err := doublestar.Match(ignore, e.Name())
				if err == nil && matched {
					continue
				}
			}
			names = append(names, e.Name())
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintln(stdout, n)
		}
	}
	return status
}
