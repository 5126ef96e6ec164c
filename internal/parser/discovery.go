package parser

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SessionExt is the extension of every session log; rollout logs
// additionally carry RolloutPrefix.
const (
	SessionExt    = ".jsonl"
	RolloutPrefix = "rollout-"
)

// uuidGroupLens is the canonical 8-4-4-4-12 session id shape.
var uuidGroupLens = [...]int{8, 4, 4, 4, 12}

// Layout identifies the on-disk arrangement a session file was
// found in.
type Layout int

const (
	// LayoutProjects is <root>/<encoded-project>/<session-id>.jsonl.
	LayoutProjects Layout = iota
	// LayoutRollout is <root>/**/rollout-<timestamp>-<uuid>.jsonl.
	LayoutRollout
)

// DiscoveredFile holds a discovered session file.
type DiscoveredFile struct {
	Path       string
	ProjectDir string // encoded project directory name; empty for rollouts
	Layout     Layout
}

// isDirOrSymlink reports whether the entry is a directory or a
// symlink that resolves to a directory. parentDir is needed to
// build the full path for symlink resolution.
func isDirOrSymlink(
	entry os.DirEntry, parentDir string,
) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(
		filepath.Join(parentDir, entry.Name()),
	)
	return err == nil && fi.IsDir()
}

// RootExists reports whether dir exists and is a directory.
func RootExists(dir string) bool {
	fi, err := os.Stat(dir)
	return err == nil && fi.IsDir()
}

// DiscoverClaudeProjects finds all project directories under the
// projects root and returns the session logs directly inside
// them, sorted by path.
func DiscoverClaudeProjects(projectsDir string) []DiscoveredFile {
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		return nil
	}

	var files []DiscoveredFile
	for _, entry := range entries {
		if !isDirOrSymlink(entry, projectsDir) {
			continue
		}

		projDir := filepath.Join(projectsDir, entry.Name())
		sessionFiles, err := os.ReadDir(projDir)
		if err != nil {
			continue
		}

		for _, sf := range sessionFiles {
			if sf.IsDir() {
				continue
			}
			name := sf.Name()
			if !strings.HasSuffix(name, SessionExt) {
				continue
			}
			files = append(files, DiscoveredFile{
				Path:       filepath.Join(projDir, name),
				ProjectDir: entry.Name(),
				Layout:     LayoutProjects,
			})
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files
}

// FindClaudeSessionFiles checks every project directory for a
// file named <sessionID>.jsonl. Ids containing anything other
// than letters, digits, dashes and underscores match nothing.
func FindClaudeSessionFiles(
	projectsDir, sessionID string,
) []DiscoveredFile {
	if !IsValidSessionID(sessionID) {
		return nil
	}

	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		return nil
	}

	target := sessionID + SessionExt
	var files []DiscoveredFile
	for _, entry := range entries {
		if !isDirOrSymlink(entry, projectsDir) {
			continue
		}
		candidate := filepath.Join(
			projectsDir, entry.Name(), target,
		)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			files = append(files, DiscoveredFile{
				Path:       candidate,
				ProjectDir: entry.Name(),
				Layout:     LayoutProjects,
			})
		}
	}
	return files
}

// DiscoverRollouts finds rollout-*.jsonl files at any depth
// under root. Unreadable subtrees are skipped.
func DiscoverRollouts(root string) []DiscoveredFile {
	if !RootExists(root) {
		return nil
	}
	var files []DiscoveredFile
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, RolloutPrefix) &&
			strings.HasSuffix(name, SessionExt) {
			files = append(files, DiscoveredFile{
				Path:   path,
				Layout: LayoutRollout,
			})
		}
		return nil
	})
	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files
}

// ProjectSessionID extracts the id from a projects-layout file
// name. The stem must be 36 characters in five dash-separated
// groups of 8-4-4-4-12; anything else yields "".
func ProjectSessionID(filename string) string {
	stem := strings.TrimSuffix(filepath.Base(filename), SessionExt)
	if len(stem) != 36 {
		return ""
	}
	groups := strings.Split(stem, "-")
	if len(groups) != len(uuidGroupLens) {
		return ""
	}
	for i, g := range groups {
		if len(g) != uuidGroupLens[i] {
			return ""
		}
	}
	return stem
}

// RolloutSessionID extracts the id embedded in a rollout file
// name such as rollout-2025-10-02T17-25-43-<uuid>.jsonl. The id
// is the last five dash-separated groups of the stem; names too
// short to hold a timestamp and an id yield "".
func RolloutSessionID(filename string) string {
	name := filepath.Base(filename)
	if !strings.HasPrefix(name, RolloutPrefix) ||
		!strings.HasSuffix(name, SessionExt) {
		return ""
	}
	parts := strings.Split(strings.TrimSuffix(name, SessionExt), "-")
	if len(parts) < 9 {
		return ""
	}
	return strings.Join(parts[len(parts)-5:], "-")
}

// SessionIDFor extracts the session id from a discovered file
// according to its layout.
func SessionIDFor(f DiscoveredFile) string {
	if f.Layout == LayoutRollout {
		return RolloutSessionID(f.Path)
	}
	return ProjectSessionID(f.Path)
}

// IsValidSessionID reports whether id contains only
// alphanumeric characters, dashes, and underscores.
func IsValidSessionID(id string) bool {
	if id == "" {
		return false
	}
	for _, c := range id {
		if !isAlphanumOrDashUnderscore(c) {
			return false
		}
	}
	return true
}

func isAlphanumOrDashUnderscore(c rune) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_'
}
