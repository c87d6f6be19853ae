// Program rill is a small interactive shell with job control: foreground
// and background pipelines, Ctrl-Z/fg/bg, and a jobs table.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rill-sh/rill/internal/builtin"
	"github.com/rill-sh/rill/internal/logging"
	"github.com/rill-sh/rill/internal/rcconfig"
	"github.com/rill-sh/rill/internal/shell"
)

// version is overridden at build time with -ldflags.
var version = "dev"

var (
	rcFile    string
	loginShell bool
	command   string
	scriptPath string
)

func main() {
	// The re-exec trick for child-safe builtins (SPEC_FULL.md §9) bypasses
	// cobra entirely: argv[1] is a literal sentinel, not a flag any user
	// would type, so there is nothing to parse.
	if len(os.Args) > 1 && os.Args[1] == builtin.ReExecFlag {
		os.Exit(runBuiltinExec(os.Args[2:]))
	}

	logging.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:     "rill",
		Short:   "rill is a small interactive shell with job control",
		Version: version,
		RunE:    run,
	}
	rootCmd.SetContext(ctx)

	rootCmd.PersistentFlags().StringVar(&rcFile, "rcfile", rcconfig.DefaultPath(), "path to the rc file")
	rootCmd.PersistentFlags().BoolVar(&loginShell, "login", false, "run as a login shell")
	rootCmd.PersistentFlags().StringVarP(&command, "command", "c", "", "run a single pipeline non-interactively and exit")
	rootCmd.PersistentFlags().StringVar(&scriptPath, "script", "", "run a scripted session against a pty harness (linux only)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runBuiltinExec(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "rill: --builtin-exec requires a builtin name")
		return 1
	}
	return builtin.RunChildSafe(args[0], args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func run(cmd *cobra.Command, _ []string) error {
	self, err := os.Executable()
	if err != nil {
		self = os.Args[0]
	}

	if scriptPath != "" {
		return runScripted(cmd.Context(), self, scriptPath)
	}

	sh := shell.New(shell.Config{
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		RCPath:   rcFile,
		SelfPath: self,
		Log:      slog.Default(),
	})
	defer sh.Close()

	if command != "" {
		os.Exit(sh.RunCommand(command))
		return nil
	}

	slog.Info("rill starting", "login", loginShell, "rcfile", rcFile)
	code := sh.Run(cmd.Context())
	slog.Info("rill exiting", "code", code)
	os.Exit(code)
	return nil
}
