// resume-session finds a Claude Code session by id, text or
// recency in any project and resumes it from its original
// working directory.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wesm/agentresume/internal/config"
	"github.com/wesm/agentresume/internal/parser"
	"github.com/wesm/agentresume/internal/resume"
	"github.com/wesm/agentresume/internal/session"
	"github.com/wesm/agentresume/internal/timeutil"
)

// minPrefixLen is the shortest id that is retried as a prefix
// when no session has exactly that id.
const minPrefixLen = 8

// errReported marks failures whose message has already been
// written; run only turns it into the exit code.
var errReported = errors.New("reported")

// app carries the loaded config and the process boundaries a
// command run needs.
type app struct {
	cfg    config.Config
	stdin  io.Reader
	out    io.Writer
	errOut io.Writer
	exec   resume.Executor
}

type options struct {
	text    bool
	last    bool
	dryRun  bool
	all     bool
	confirm bool
}

func main() {
	log.SetFlags(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	a := &app{
		cfg:    cfg,
		stdin:  os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
		exec: resume.ProcessExecutor{
			Stdin:  os.Stdin,
			Stdout: os.Stdout,
			Stderr: os.Stderr,
		},
	}
	os.Exit(run(a, os.Args[1:]))
}

// run executes the command line and returns the exit code.
func run(a *app, args []string) int {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
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
		Use:   "resume-session [session-id | text]",
		Short: "Find and resume a Claude Code session from any project",
		Long: `Searches every Claude Code project for a session and resumes it
in the directory it was started from.

Examples:
  resume-session c080fd31-1fea-44e2-8690-c58ad0f4a829
  resume-session c080fd31            # partial id (8+ characters)
  resume-session --text "dashboard implementation"
  resume-session --last
  resume-session --dry-run c080fd31
  resume-session --text dashboard --all`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) > 0 {
				input = args[0]
			}
			return a.resume(cmd.Context(), input, opts)
		},
	}
	f := cmd.Flags()
	f.BoolVarP(&opts.text, "text", "t", false, "treat the argument as a case-insensitive text search")
	f.BoolVar(&opts.last, "last", false, "resume the most recently modified session")
	f.BoolVar(&opts.dryRun, "dry-run", false, "print the resume command without running it")
	f.BoolVar(&opts.all, "all", false, "show every match, not just the first")
	f.BoolVar(&opts.confirm, "confirm", false, "keep the assistant's permission prompts")
	return cmd
}

func matcherFor(input string, opts options) (session.Matcher, error) {
	switch {
	case opts.last:
		return session.All(), nil
	case opts.text && input != "":
		return session.ByText(input), nil
	case input != "":
		return session.ByID(input), nil
	default:
		return session.Matcher{}, errors.New(
			"provide a session id, use --text for text search, or --last",
		)
	}
}

func (a *app) resume(ctx context.Context, input string, opts options) error {
	m, err := matcherFor(input, opts)
	if err != nil {
		return err
	}
	builder, err := resume.NewBuilder(resume.BuilderOptions{
		AssistantCommand: a.cfg.AssistantCommand,
		UnattendedFlag:   a.cfg.UnattendedFlag,
		Confirm:          opts.confirm,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Searching across all Claude Code projects...")
	var prefix string
	if !opts.last && !opts.text && len(input) >= minPrefixLen {
		prefix = input
	}
	sessions, err := a.find(m, prefix)
	if errors.Is(err, session.ErrRootNotFound) {
		fmt.Fprintf(a.errOut, "Claude directory not found: %v\n", err)
		return errReported
	}
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		a.printNotFound(input, opts)
		return errReported
	}
	if !opts.all {
		sessions = sessions[:1]
	}

	plans := make([]resume.Plan, len(sessions))
	for i, d := range sessions {
		if len(sessions) > 1 {
			fmt.Fprintf(a.out, "\nSession %d/%d:\n", i+1, len(sessions))
		} else {
			fmt.Fprintln(a.out, "\nFound session!")
		}
		a.printSession(d, opts.text)

		plans[i] = builder.Build(d)
		for _, w := range plans[i].Warnings {
			fmt.Fprintf(a.errOut, "warning: %s\n", w)
		}
		switch {
		case opts.dryRun:
			fmt.Fprintf(a.out, "\nResume command (dry run):\n  %s\n", plans[i])
		case i > 0:
			fmt.Fprintf(a.out, "\nResume command:\n  %s\n", plans[i])
		}
	}
	if len(sessions) > 1 {
		fmt.Fprintf(a.out, "\nTotal found: %d sessions\n", len(sessions))
	}
	if opts.dryRun {
		return nil
	}
	return a.launch(ctx, plans[0])
}

// find runs the scan for m. When m finds nothing and prefix is
// set, the scan is retried matching ids that start with prefix.
func (a *app) find(m session.Matcher, prefix string) ([]session.Descriptor, error) {
	scanner := session.NewScanner(session.Options{
		Roots:            a.cfg.ResolveClaudeDirs(),
		SearchLines:      a.cfg.SearchLines,
		PreviewLines:     a.cfg.PreviewLines,
		SearchPreviewLen: a.cfg.SearchPreviewLen,
		PreviewLen:       a.cfg.ListingPreviewLen,
	})
	sessions, err := scanner.Scan(m)
	if err != nil || len(sessions) > 0 {
		return sessions, err
	}
	if prefix == "" {
		return nil, nil
	}
	return scanner.Scan(session.ByIDPrefix(prefix))
}

func (a *app) printSession(d session.Descriptor, textMode bool) {
	fmt.Fprintf(a.out, "  Session ID: %s\n", d.SessionID)
	fmt.Fprintf(a.out, "  Created in: %s\n", d.Cwd)
	fmt.Fprintf(a.out, "  Project folder: %s\n", d.ProjectDir)
	fmt.Fprintf(a.out, "  Modified: %s\n", timeutil.Stamp(d.ModTime))
	fmt.Fprintf(a.out, "  Size: %.2f KB\n", float64(d.Size)/1024)
	if d.Preview == "" {
		return
	}
	if textMode {
		fmt.Fprintf(a.out, "  Content: %s...\n", parser.Truncate(d.Preview, 100))
	} else {
		fmt.Fprintf(a.out, "  First message: %s\n", d.Preview)
	}
}

func (a *app) printNotFound(input string, opts options) {
	fmt.Fprintln(a.out, "\nNo sessions found")
	switch {
	case opts.last:
		return
	case opts.text:
		fmt.Fprintln(a.out, "\nTips for text search:")
		fmt.Fprintln(a.out, "1. Try searching with fewer words")
		fmt.Fprintln(a.out, "2. Use --last to find the most recent session")
		fmt.Fprintln(a.out, "3. Search is case-insensitive")
	default:
		fmt.Fprintf(a.out, "\nNo session with ID: %s\n", input)
		fmt.Fprintln(a.out, "Tips:")
		fmt.Fprintln(a.out, "1. Check if ID is correct")
		fmt.Fprintf(a.out, "2. Try partial ID (first %d+ characters)\n", minPrefixLen)
		fmt.Fprintln(a.out, "3. Use --last for the most recent session")
	}
}

func (a *app) launch(ctx context.Context, p resume.Plan) error {
	fmt.Fprintln(a.out, "\nResuming session...")
	if p.WorkDir != "" {
		fmt.Fprintf(a.out, "  Directory: %s\n", p.WorkDir)
	}
	if !isTerminal(a.stdin) {
		fmt.Fprintln(a.errOut,
			"warning: stdin is not a terminal; the assistant may not start interactively")
	}
	return a.exec.Execute(ctx, p)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
