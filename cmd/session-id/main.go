// session-id prints the id of the current Claude Code session,
// for use from hooks and shell scripts.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesm/agentresume/internal/config"
	"github.com/wesm/agentresume/internal/sessionid"
)

// watchDebounce groups bursts of appends to a log into one
// re-check of the latest session.
const watchDebounce = 500 * time.Millisecond

var errReported = errors.New("reported")

type app struct {
	cfg    config.Config
	stdin  io.Reader
	out    io.Writer
	errOut io.Writer
	getenv func(string) string
}

type options struct {
	fromHook       bool
	fallbackLatest bool
	quiet          bool
	watch          bool
}

func main() {
	log.SetFlags(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	code := run(ctx, &app{
		cfg:    cfg,
		stdin:  os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
		getenv: os.Getenv,
	}, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, a *app, args []string) int {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(a.errOut, "error:", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "session-id",
		Short: "Print the current Claude Code session id",
		Long: `Determines the current session id from, in order: the hook
payload on stdin (--from-hook), the session environment variable,
and the most recently modified session log.

Examples:
  session-id
  session-id --quiet
  echo '{"session_id":"abc-123"}' | session-id --from-hook -q
  session-id --watch -q              # print the id again as sessions change`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.watch {
				return a.watch(cmd.Context(), opts)
			}
			return a.print(opts)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.fromHook, "from-hook", false, "read the hook JSON payload from stdin")
	f.BoolVar(&opts.fallbackLatest, "fallback-latest", false, "use only the most recently modified session log")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "print only the session id")
	f.BoolVar(&opts.watch, "watch", false, "keep running and print the id whenever the latest session changes")
	return cmd
}

func (a *app) resolver() *sessionid.Resolver {
	return &sessionid.Resolver{
		ClaudeDirs: a.cfg.ResolveClaudeDirs(),
		CodexDirs:  a.cfg.ResolveCodexDirs(),
		EnvVar:     a.cfg.SessionEnvVar,
		Getenv:     a.getenv,
	}
}

func (a *app) print(opts options) error {
	r := a.resolver()
	ro := sessionid.Options{ForceLatest: opts.fallbackLatest}
	if opts.fromHook {
		ro.Hook = a.stdin
	}

	res, err := r.Resolve(ro)
	if errors.Is(err, sessionid.ErrNotFound) {
		if !opts.quiet {
			fmt.Fprintln(a.errOut, "Error: Could not determine session ID")
		}
		return errReported
	}
	if err != nil {
		return err
	}

	if opts.quiet {
		fmt.Fprintln(a.out, res.ID)
		return nil
	}
	fmt.Fprintf(a.out, "Current session ID: %s\n", res.ID)
	fmt.Fprintf(a.errOut, "Method: %s\n", res.Method)
	return nil
}

func (a *app) watch(ctx context.Context, opts options) error {
	err := a.resolver().Follow(ctx, watchDebounce, func(id string) {
		if opts.quiet {
			fmt.Fprintln(a.out, id)
		} else {
			fmt.Fprintf(a.out, "Current session ID: %s\n", id)
		}
	})
	if errors.Is(err, sessionid.ErrNotFound) && opts.quiet {
		return errReported
	}
	return err
}
