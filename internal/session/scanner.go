package session

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/wesm/agentresume/internal/parser"
)

// ErrRootNotFound is returned when none of the configured
// projects roots exist.
var ErrRootNotFound = errors.New("session log directory not found")

// Options configures a Scanner.
type Options struct {
	Roots []string

	// SearchLines bounds ByText to the first N lines of each
	// log; PreviewLines bounds first-message extraction.
	SearchLines  int
	PreviewLines int

	// SearchPreviewLen truncates matched text, PreviewLen the
	// first user message.
	SearchPreviewLen int
	PreviewLen       int
}

// Scanner walks one or more projects roots. Scans are
// sequential and keep no state between calls.
type Scanner struct {
	opts Options
}

// NewScanner creates a Scanner.
func NewScanner(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Scan returns a descriptor for every log the matcher selects,
// most recently modified first. Roots that do not exist are
// skipped; if none exist the scan fails with ErrRootNotFound.
// Files that cannot be read are logged and skipped.
func (s *Scanner) Scan(m Matcher) ([]Descriptor, error) {
	var roots []string
	for _, r := range s.opts.Roots {
		if parser.RootExists(r) {
			roots = append(roots, r)
		}
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf(
			"%w: %s", ErrRootNotFound,
			strings.Join(s.opts.Roots, ", "),
		)
	}

	var out []Descriptor
	for _, root := range roots {
		for _, f := range s.candidates(root, m) {
			d, ok, err := s.describe(f, m)
			if err != nil {
				log.Printf("skipping session log: %v", err)
				continue
			}
			if ok {
				out = append(out, d)
			}
		}
	}

	SortByRecency(out)
	return out, nil
}

// SortByRecency orders descriptors by modification time, newest
// first. Ties keep their relative order.
func SortByRecency(ds []Descriptor) {
	sort.SliceStable(ds, func(i, j int) bool {
		return ds[i].ModTime.After(ds[j].ModTime)
	})
}

func (s *Scanner) candidates(
	root string, m Matcher,
) []parser.DiscoveredFile {
	if m.kind == matchID {
		return parser.FindClaudeSessionFiles(root, m.value)
	}
	files := parser.DiscoverClaudeProjects(root)
	if m.kind != matchIDPrefix {
		return files
	}
	kept := files[:0]
	for _, f := range files {
		if m.acceptsStem(parser.SessionID(f.Path)) {
			kept = append(kept, f)
		}
	}
	return kept
}

// describe builds the descriptor for one file. ok is false when
// a text matcher finds nothing in the file.
func (s *Scanner) describe(
	f parser.DiscoveredFile, m Matcher,
) (Descriptor, bool, error) {
	info, err := parser.StatSession(f.Path)
	if err != nil {
		return Descriptor{}, false, err
	}

	opts := parser.SummaryOptions{
		MessageLines: s.opts.PreviewLines,
		PreviewLen:   s.opts.PreviewLen,
	}
	if m.kind == matchText {
		opts.Needle = m.value
		opts.SearchLines = s.opts.SearchLines
		opts.MatchLen = s.opts.SearchPreviewLen
	}
	sum, err := parser.Summarize(f.Path, opts)
	if err != nil {
		return Descriptor{}, false, err
	}
	if m.kind == matchText && !sum.Matched {
		return Descriptor{}, false, nil
	}

	projectPath := parser.DecodeProjectDir(f.ProjectDir)
	d := Descriptor{
		SessionID:    parser.SessionID(f.Path),
		ProjectDir:   f.ProjectDir,
		ProjectPath:  projectPath,
		Cwd:          sum.Cwd,
		CwdRecorded:  sum.Cwd != "",
		FilePath:     f.Path,
		Size:         info.Size,
		ModTime:      info.ModTime,
		CreatedAt:    info.Created,
		MessageCount: sum.Lines,
		Preview:      sum.FirstMessage,
	}
	if !d.CwdRecorded {
		d.Cwd = projectPath
	}
	if m.kind == matchText {
		d.Preview = sum.Match
	}
	return d, true, nil
}
