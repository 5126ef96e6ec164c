// list-sessions lists every Claude Code session across all
// projects, grouped by the directory each was started in.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesm/agentresume/internal/config"
	"github.com/wesm/agentresume/internal/parser"
	"github.com/wesm/agentresume/internal/session"
	"github.com/wesm/agentresume/internal/timeutil"
)

const (
	briefLimit    = 3
	detailedLimit = 10

	briefPreviewLen    = 40
	detailedPreviewLen = 60
)

var errReported = errors.New("reported")

type app struct {
	cfg    config.Config
	out    io.Writer
	errOut io.Writer
	now    func() time.Time
}

// listOptions holds parsed CLI options for the listing.
type listOptions struct {
	detailed bool
	project  string
	days     int
}

func main() {
	log.SetFlags(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	os.Exit(run(&app{
		cfg:    cfg,
		out:    os.Stdout,
		errOut: os.Stderr,
		now:    time.Now,
	}, os.Args[1:]))
}

func run(a *app, args []string) int {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(a.errOut, "error:", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	var opts listOptions
	cmd := &cobra.Command{
		Use:   "list-sessions",
		Short: "List all Claude Code sessions across all projects",
		Long: `Lists every Claude Code session grouped by the directory it was
started in, with per-project statistics.

Examples:
  list-sessions
  list-sessions --detailed
  list-sessions --project ~/projects/chrome-extension
  list-sessions --days 7`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.days < 0 {
				return fmt.Errorf("days must be >= 0")
			}
			return a.list(opts)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.detailed, "detailed", false, "show details for each session")
	f.StringVar(&opts.project, "project", "", "only projects whose path contains this substring")
	f.IntVar(&opts.days, "days", 0, "only sessions modified in the last N days")
	return cmd
}

func (a *app) list(opts listOptions) error {
	fmt.Fprintln(a.out, "Scanning all Claude Code sessions...")

	scanner := session.NewScanner(session.Options{
		Roots:        a.cfg.ResolveClaudeDirs(),
		PreviewLines: a.cfg.PreviewLines,
		PreviewLen:   a.cfg.ListingPreviewLen,
	})
	sessions, err := scanner.Scan(session.All())
	if errors.Is(err, session.ErrRootNotFound) {
		fmt.Fprintf(a.errOut, "Claude directory not found: %v\n", err)
		return errReported
	}
	if err != nil {
		return err
	}

	groups := session.Group(sessions)
	if len(groups) == 0 {
		fmt.Fprintln(a.out, "\nNo sessions found")
		return errReported
	}
	if opts.project != "" {
		groups = session.FilterProject(groups, opts.project)
		if len(groups) == 0 {
			fmt.Fprintf(a.out, "\nNo sessions found for project: %s\n", opts.project)
			return errReported
		}
	}
	if opts.days > 0 {
		cutoff := a.now().Add(-time.Duration(opts.days) * 24 * time.Hour)
		groups = session.FilterSince(groups, cutoff)
		if len(groups) == 0 {
			fmt.Fprintf(a.out, "\nNo sessions found in the last %d days\n", opts.days)
			return errReported
		}
	}

	writeSummary(a.out, groups)
	fmt.Fprint(a.out, "\nProjects and Sessions:\n\n")
	for _, g := range groups {
		a.writeGroup(g, opts.detailed)
	}
	writeTips(a.out)
	return nil
}

func writeSummary(w io.Writer, groups []session.ProjectGroup) {
	n, size := session.Totals(groups)
	fmt.Fprintln(w, "\nSummary:")
	fmt.Fprintf(w, "  Total projects: %d\n", len(groups))
	fmt.Fprintf(w, "  Total sessions: %d\n", n)
	fmt.Fprintf(w, "  Total size: %s\n", formatBytes(size))
}

func (a *app) writeGroup(g session.ProjectGroup, detailed bool) {
	w := a.out
	fmt.Fprintf(w, "%s (%s)\n", parser.ProjectDisplayName(g.Key), g.Key)
	fmt.Fprintf(w, "   Sessions: %d | Size: %s\n",
		len(g.Sessions), formatBytes(g.TotalSize()))
	fmt.Fprintf(w, "   Period: %s to %s\n",
		timeutil.Day(g.Oldest()), timeutil.Day(g.Latest()))

	limit := briefLimit
	if detailed {
		limit = detailedLimit
	}
	shown := g.Sessions
	if len(shown) > limit {
		shown = shown[:limit]
	}

	for i, d := range shown {
		if detailed {
			writeDetailed(w, i+1, d)
		} else {
			preview := "..."
			if d.Preview != "" {
				preview = parser.Truncate(d.Preview, briefPreviewLen) + "..."
			}
			fmt.Fprintf(w, "   • %s... (%s) - %s\n",
				d.ShortID(), timeutil.Age(d.ModTime, a.now()), preview)
		}
	}
	if rest := len(g.Sessions) - len(shown); rest > 0 {
		if detailed {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "   ... and %d more sessions\n", rest)
	}
	fmt.Fprintln(w)
}

func writeDetailed(w io.Writer, n int, d session.Descriptor) {
	fmt.Fprintf(w, "\n   %d. %s\n", n, d.SessionID)
	fmt.Fprintf(w, "      Modified: %s\n", timeutil.Stamp(d.ModTime))
	fmt.Fprintf(w, "      Size: %s\n", formatBytes(d.Size))
	fmt.Fprintf(w, "      Messages: %d\n", d.MessageCount)
	if d.Preview != "" {
		fmt.Fprintf(w, "      First: %s...\n",
			parser.Truncate(d.Preview, detailedPreviewLen))
	}
	if d.CwdRecorded && d.Cwd != d.ProjectPath {
		fmt.Fprintf(w, "      CWD: %s\n", d.Cwd)
	}
}

func writeTips(w io.Writer) {
	fmt.Fprintln(w, "\nTips:")
	fmt.Fprintln(w, "  • Use --detailed to see more information")
	fmt.Fprintln(w, "  • Use --project to filter by path")
	fmt.Fprintln(w, "  • Use resume-session to resume any session")
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
