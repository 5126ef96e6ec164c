// Package sessionid determines the id of the current assistant
// session from a hook payload, an environment variable or the
// most recently written session log.
package sessionid

import (
	"errors"
	"io"
	"os"

	"github.com/tidwall/gjson"

	"github.com/wesm/agentresume/internal/parser"
)

// maxHookInputBytes caps the hook payload read. Hook payloads
// are small JSON objects.
const maxHookInputBytes = 1 << 20

// ErrNotFound is returned when no source yields a session id.
var ErrNotFound = errors.New("could not determine session id")

// Method names the source an id came from.
type Method string

const (
	MethodHook        Method = "hook"
	MethodEnvironment Method = "environment"
	MethodLatestFile  Method = "latest_file"
)

// Result is a resolved session id and where it came from.
type Result struct {
	ID     string
	Method Method
}

// Resolver looks up the current session id. All inputs are
// injected so resolution is hermetic under test.
type Resolver struct {
	// ClaudeDirs hold <project>/<uuid>.jsonl logs.
	ClaudeDirs []string
	// CodexDirs hold rollout-*.jsonl logs at any depth.
	CodexDirs []string
	// EnvVar names the variable consulted by the environment
	// source. Empty disables that source.
	EnvVar string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// Options selects which sources Resolve consults.
type Options struct {
	// Hook, when non-nil, is read as a JSON hook payload and
	// tried first.
	Hook io.Reader
	// ForceLatest skips the hook and environment sources.
	ForceLatest bool
}

// Resolve tries hook, environment and latest-file sources in
// that order and returns the first id found.
func (r *Resolver) Resolve(opts Options) (Result, error) {
	if !opts.ForceLatest {
		if opts.Hook != nil {
			if id, ok := FromHook(opts.Hook); ok {
				return Result{ID: id, Method: MethodHook}, nil
			}
		}
		if id, ok := r.fromEnv(); ok {
			return Result{ID: id, Method: MethodEnvironment}, nil
		}
	}
	if id, ok := r.FromLatestFile(); ok {
		return Result{ID: id, Method: MethodLatestFile}, nil
	}
	return Result{}, ErrNotFound
}

// FromHook reads a JSON object from r and returns its
// session_id. Malformed input yields false, never an error.
func FromHook(r io.Reader) (string, bool) {
	data, err := io.ReadAll(io.LimitReader(r, maxHookInputBytes))
	if err != nil || !gjson.ValidBytes(data) {
		return "", false
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return "", false
	}
	id := root.Get("session_id")
	if id.Type != gjson.String || id.Str == "" {
		return "", false
	}
	return id.Str, true
}

func (r *Resolver) fromEnv() (string, bool) {
	if r.EnvVar == "" {
		return "", false
	}
	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	v := getenv(r.EnvVar)
	return v, v != ""
}

// FromLatestFile finds the most recently modified log across
// both layouts and extracts the id from its file name. If the
// newest file's name does not carry a recognizable id, no id is
// returned; older files are not consulted.
func (r *Resolver) FromLatestFile() (string, bool) {
	latest, ok := r.latestFile()
	if !ok {
		return "", false
	}
	id := parser.SessionIDFor(latest)
	return id, id != ""
}

func (r *Resolver) latestFile() (parser.DiscoveredFile, bool) {
	var files []parser.DiscoveredFile
	for _, dir := range r.ClaudeDirs {
		files = append(files, parser.DiscoverClaudeProjects(dir)...)
	}
	for _, dir := range r.CodexDirs {
		files = append(files, parser.DiscoverRollouts(dir)...)
	}

	var (
		best    parser.DiscoveredFile
		bestMod int64
		found   bool
	)
	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			continue
		}
		mod := info.ModTime().UnixNano()
		if !found || mod > bestMod {
			best, bestMod, found = f, mod, true
		}
	}
	return best, found
}
