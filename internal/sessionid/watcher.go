package sessionid

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wesm/agentresume/internal/parser"
)

// Watcher reports session logs that are written under Claude
// projects roots and Codex rollout roots. Only files the scanner
// would discover are reported: *.jsonl directly inside a project
// directory, and rollout-*.jsonl anywhere below a rollout root.
// A log is reported once it has been quiet for the debounce
// period.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	now      func() time.Time
	onLogs   func([]parser.DiscoveredFile)

	projectRoots []string
	rolloutRoots []string

	// pending is only touched from the Run goroutine.
	pending map[string]pendingLog
}

type pendingLog struct {
	file parser.DiscoveredFile
	seen time.Time
}

// NewWatcher creates a Watcher with no roots. onLogs runs on the
// Run goroutine.
func NewWatcher(
	debounce time.Duration, onLogs func([]parser.DiscoveredFile),
) (*Watcher, error) {
	if onLogs == nil {
		return nil, fmt.Errorf("onLogs callback is nil: %w", os.ErrInvalid)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:      fsw,
		debounce: debounce,
		now:      time.Now,
		onLogs:   onLogs,
		pending:  make(map[string]pendingLog),
	}, nil
}

// WatchProjects watches a Claude projects root and each project
// directory inside it. Project directories created later are
// picked up as they appear.
func (w *Watcher) WatchProjects(root string) error {
	root = filepath.Clean(root)
	if err := w.fsw.Add(root); err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}
	w.projectRoots = append(w.projectRoots, root)

	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("reading %s: %w", root, err)
	}
	for _, e := range entries {
		dir := filepath.Join(root, e.Name())
		if !isDir(dir) {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			log.Printf("watching project %s: %v", dir, err)
		}
	}
	return nil
}

// WatchRollouts watches a Codex sessions root and every dated
// directory below it.
func (w *Watcher) WatchRollouts(root string) error {
	root = filepath.Clean(root)
	w.rolloutRoots = append(w.rolloutRoots, root)
	if n := w.addTree(root, false); n == 0 {
		return fmt.Errorf("watching %s: no directories watched", root)
	}
	return nil
}

// addTree watches dir and the directories below it, returning how
// many were added. With queue set, rollout logs already present
// are queued since their writes may predate the watch.
func (w *Watcher) addTree(dir string, queue bool) int {
	var added int
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				log.Printf("watching %s: %v", path, err)
			} else {
				added++
			}
			return nil
		}
		if queue {
			w.queue(path)
		}
		return nil
	})
	return added
}

// Close releases the watcher without running it.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run processes events until ctx is done, then closes the
// watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("session watcher: %v", err)
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	if ev.Op&fsnotify.Create != 0 && isDir(ev.Name) {
		w.watchNewDir(ev.Name)
		return
	}
	w.queue(ev.Name)
}

// watchNewDir starts watching a directory that appeared under a
// root and queues the logs it already holds.
func (w *Watcher) watchNewDir(dir string) {
	if w.isProjectRoot(filepath.Dir(dir)) {
		if err := w.fsw.Add(dir); err != nil {
			log.Printf("watching project %s: %v", dir, err)
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		for _, e := range entries {
			w.queue(filepath.Join(dir, e.Name()))
		}
		return
	}
	if w.underRolloutRoot(dir) {
		w.addTree(dir, true)
	}
}

// queue records path if it is a session log.
func (w *Watcher) queue(path string) {
	f, ok := w.classify(path)
	if !ok {
		return
	}
	w.pending[f.Path] = pendingLog{file: f, seen: w.now()}
}

// classify maps path to the layout it belongs to, or reports
// false when the path is not a session log under a watched root.
func (w *Watcher) classify(path string) (parser.DiscoveredFile, bool) {
	name := filepath.Base(path)
	if !strings.HasSuffix(name, parser.SessionExt) {
		return parser.DiscoveredFile{}, false
	}
	projDir := filepath.Dir(path)
	if w.isProjectRoot(filepath.Dir(projDir)) {
		return parser.DiscoveredFile{
			Path:       path,
			ProjectDir: filepath.Base(projDir),
			Layout:     parser.LayoutProjects,
		}, true
	}
	if strings.HasPrefix(name, parser.RolloutPrefix) && w.underRolloutRoot(path) {
		return parser.DiscoveredFile{
			Path:   path,
			Layout: parser.LayoutRollout,
		}, true
	}
	return parser.DiscoveredFile{}, false
}

func (w *Watcher) isProjectRoot(dir string) bool {
	for _, root := range w.projectRoots {
		if dir == root {
			return true
		}
	}
	return false
}

func (w *Watcher) underRolloutRoot(path string) bool {
	for _, root := range w.rolloutRoots {
		rel, err := filepath.Rel(root, path)
		if err == nil && rel != "." && rel != ".." &&
			!strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// flush delivers logs that have been quiet for the debounce
// period, ordered by path.
func (w *Watcher) flush() {
	now := w.now()
	var ready []parser.DiscoveredFile
	for path, p := range w.pending {
		if now.Sub(p.seen) >= w.debounce {
			ready = append(ready, p.file)
			delete(w.pending, path)
		}
	}
	if len(ready) == 0 {
		return
	}
	sort.Slice(ready, func(i, j int) bool {
		return ready[i].Path < ready[j].Path
	})
	w.onLogs(ready)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// latestTracker follows the most recently modified log and reports
// its id whenever a different id takes the lead.
type latestTracker struct {
	file   parser.DiscoveredFile
	mod    time.Time
	found  bool
	last   string
	report func(id string)
}

func (t *latestTracker) observe(files []parser.DiscoveredFile) {
	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			continue
		}
		if !t.found || info.ModTime().After(t.mod) {
			t.file, t.mod, t.found = f, info.ModTime(), true
		}
	}
	if !t.found {
		return
	}
	if id := parser.SessionIDFor(t.file); id != "" && id != t.last {
		t.last = id
		t.report(id)
	}
}

// Follow reports the latest-file session id immediately and
// again whenever a log with a different id becomes the most
// recently written one. It blocks until ctx is done. Hook and
// environment sources do not change while a process runs, so
// only log files are followed.
func (r *Resolver) Follow(
	ctx context.Context, debounce time.Duration, report func(id string),
) error {
	var projects, rollouts []string
	for _, dir := range r.ClaudeDirs {
		if parser.RootExists(dir) {
			projects = append(projects, dir)
		}
	}
	for _, dir := range r.CodexDirs {
		if parser.RootExists(dir) {
			rollouts = append(rollouts, dir)
		}
	}
	if len(projects)+len(rollouts) == 0 {
		return fmt.Errorf("%w: no session directories to watch", ErrNotFound)
	}

	tracker := &latestTracker{report: report}
	w, err := NewWatcher(debounce, tracker.observe)
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	for _, dir := range projects {
		if err := w.WatchProjects(dir); err != nil {
			log.Printf("session watcher: %v", err)
		}
	}
	for _, dir := range rollouts {
		if err := w.WatchRollouts(dir); err != nil {
			log.Printf("session watcher: %v", err)
		}
	}

	if latest, ok := r.latestFile(); ok {
		tracker.observe([]parser.DiscoveredFile{latest})
	}
	return w.Run(ctx)
}
