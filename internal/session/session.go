// Package session scans Claude Code project directories for
// session logs and turns them into descriptors that can be
// listed, grouped and resumed.
package session

import (
	"strings"
	"time"
)

// Descriptor describes one session log. It is a value built
// fresh on every scan.
type Descriptor struct {
	SessionID   string
	ProjectDir  string // encoded directory name
	ProjectPath string // ProjectDir decoded back into a path

	// Cwd is the working directory recorded inside the log, or
	// ProjectPath when the log records none. CwdRecorded
	// tells the two apart.
	Cwd         string
	CwdRecorded bool

	FilePath     string
	Size         int64
	ModTime      time.Time
	CreatedAt    time.Time
	MessageCount int

	// Preview is the matched message for text searches and the
	// first user message otherwise. It may be empty.
	Preview string
}

// GroupKey returns the key a descriptor is grouped under: the
// recorded cwd when known, else the decoded project path.
func (d Descriptor) GroupKey() string {
	if d.CwdRecorded && d.Cwd != "" {
		return d.Cwd
	}
	return d.ProjectPath
}

// ShortID returns the first eight characters of the session id.
func (d Descriptor) ShortID() string {
	if len(d.SessionID) <= 8 {
		return d.SessionID
	}
	return d.SessionID[:8]
}

type matchKind int

const (
	matchAll matchKind = iota
	matchID
	matchIDPrefix
	matchText
)

// Matcher selects which session logs a scan turns into
// descriptors.
type Matcher struct {
	kind  matchKind
	value string
}

// All matches every session log.
func All() Matcher { return Matcher{kind: matchAll} }

// ByID matches the log named <id>.jsonl in any project.
func ByID(id string) Matcher { return Matcher{kind: matchID, value: id} }

// ByIDPrefix matches logs whose session id starts with prefix.
func ByIDPrefix(prefix string) Matcher {
	return Matcher{kind: matchIDPrefix, value: prefix}
}

// ByText matches logs with a user message containing needle,
// ignoring case, near the start of the log.
func ByText(needle string) Matcher {
	return Matcher{kind: matchText, value: needle}
}

// String describes the matcher for diagnostics.
func (m Matcher) String() string {
	switch m.kind {
	case matchID:
		return "id " + m.value
	case matchIDPrefix:
		return "id prefix " + m.value
	case matchText:
		return "text " + `"` + m.value + `"`
	default:
		return "all sessions"
	}
}

func (m Matcher) acceptsStem(stem string) bool {
	switch m.kind {
	case matchIDPrefix:
		return m.value != "" && strings.HasPrefix(stem, m.value)
	case matchID:
		return stem == m.value
	default:
		return true
	}
}
