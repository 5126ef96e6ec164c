// Package resume decides where a session should be resumed and
// builds the assistant invocation that reopens it.
package resume

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/shlex"

	"github.com/wesm/agentresume/internal/session"
)

// DirSource records which directory a Plan settled on.
type DirSource int

const (
	// DirRecorded is the cwd recorded in the log.
	DirRecorded DirSource = iota
	// DirProjectPath is the decoded project directory, used when
	// the recorded cwd no longer exists.
	DirProjectPath
	// DirNone means neither directory exists; the assistant is
	// started in whatever directory the caller is in.
	DirNone
)

func (s DirSource) String() string {
	switch s {
	case DirRecorded:
		return "recorded"
	case DirProjectPath:
		return "project path"
	default:
		return "none"
	}
}

// Plan is a resolved resume invocation.
type Plan struct {
	SessionID string
	WorkDir   string // empty when Source is DirNone
	Source    DirSource
	Argv      []string
	Warnings  []string
}

// String renders the plan as a shell command line:
// cd '<dir>' && <argv...>, or just the argv without a directory.
func (p Plan) String() string {
	quoted := make([]string, len(p.Argv))
	for i, a := range p.Argv {
		quoted[i] = shellQuote(a)
	}
	cmd := strings.Join(quoted, " ")
	if p.WorkDir == "" {
		return cmd
	}
	return "cd " + shellQuote(p.WorkDir) + " && " + cmd
}

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	// AssistantCommand is the executable plus fixed arguments,
	// e.g. "claude" or "claude --model opus".
	AssistantCommand string
	// UnattendedFlag is appended to every invocation unless
	// Confirm is set. Empty disables it.
	UnattendedFlag string
	// Confirm keeps the assistant's interactive permission
	// prompts by leaving out UnattendedFlag.
	Confirm bool
}

// Builder turns descriptors into Plans. It only stats
// directories; it never changes the process state.
type Builder struct {
	command    []string
	unattended string
	dirExists  func(string) bool
}

// NewBuilder splits the assistant command with shell quoting
// rules and returns a Builder.
func NewBuilder(opts BuilderOptions) (*Builder, error) {
	argv, err := shlex.Split(opts.AssistantCommand)
	if err != nil {
		return nil, fmt.Errorf("parsing assistant command: %w", err)
	}
	if len(argv) == 0 {
		return nil, errors.New("assistant command is empty")
	}
	b := &Builder{command: argv, dirExists: isDir}
	if !opts.Confirm {
		b.unattended = opts.UnattendedFlag
	}
	return b, nil
}

// Build picks the working directory for d and assembles the
// invocation. The recorded cwd wins when it exists; otherwise
// the decoded project path is used with a warning; otherwise no
// directory is set and a warning says so.
func (b *Builder) Build(d session.Descriptor) Plan {
	p := Plan{SessionID: d.SessionID, Argv: b.argv(d.SessionID)}
	switch {
	case d.Cwd != "" && b.dirExists(d.Cwd):
		p.WorkDir = d.Cwd
		p.Source = DirRecorded
	case d.ProjectPath != "" && b.dirExists(d.ProjectPath):
		p.WorkDir = d.ProjectPath
		p.Source = DirProjectPath
		p.Warnings = append(p.Warnings,
			fmt.Sprintf("original directory %s not found, using %s",
				d.Cwd, d.ProjectPath),
		)
	default:
		p.Source = DirNone
		p.Warnings = append(p.Warnings,
			fmt.Sprintf("directory not found: %s", d.Cwd),
		)
	}
	return p
}

func (b *Builder) argv(sessionID string) []string {
	argv := make([]string, 0, len(b.command)+3)
	argv = append(argv, b.command...)
	argv = append(argv, "--resume", sessionID)
	if b.unattended != "" {
		argv = append(argv, b.unattended)
	}
	return argv
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// shellQuote wraps s in single quotes when it holds anything a
// shell would interpret.
func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\$`!*?[](){}<>|&;#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
