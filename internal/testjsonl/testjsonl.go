// Package testjsonl provides shared JSONL fixture builders and
// on-disk session trees for tests. Used by the parser, session,
// sessionid and command test packages.
package testjsonl

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

// ClaudeUserJSON returns a Claude user message whose content is
// nested in a message object, as a JSON string.
func ClaudeUserJSON(
	content, timestamp string, cwd ...string,
) string {
	m := map[string]any{
		"type":      "user",
		"timestamp": timestamp,
		"message": map[string]any{
			"role":    "user",
			"content": content,
		},
	}
	if len(cwd) > 0 {
		m["cwd"] = cwd[0]
	}
	return mustMarshal(m)
}

// ClaudeUserStringJSON returns a user record whose message field
// is a bare string.
func ClaudeUserStringJSON(content string) string {
	return mustMarshal(map[string]any{
		"type":    "user",
		"message": content,
	})
}

// ClaudeUserBlocksJSON returns a user record whose message
// content is an array of text blocks.
func ClaudeUserBlocksJSON(texts ...string) string {
	blocks := make([]map[string]string, len(texts))
	for i, t := range texts {
		blocks[i] = map[string]string{"type": "text", "text": t}
	}
	return mustMarshal(map[string]any{
		"type": "user",
		"message": map[string]any{
			"role":    "user",
			"content": blocks,
		},
	})
}

// ClaudeAssistantJSON returns a Claude assistant message as a
// JSON string.
func ClaudeAssistantJSON(content any, timestamp string) string {
	m := map[string]any{
		"type":      "assistant",
		"timestamp": timestamp,
		"message": map[string]any{
			"content": content,
		},
	}
	return mustMarshal(m)
}

// ClaudeSummaryJSON returns a summary record, which carries
// neither cwd nor a message.
func ClaudeSummaryJSON(summary string) string {
	return mustMarshal(map[string]any{
		"type":    "summary",
		"summary": summary,
	})
}

// CwdJSON returns a bare record carrying only a cwd.
func CwdJSON(cwd string) string {
	return mustMarshal(map[string]any{
		"type": "system",
		"cwd":  cwd,
	})
}

// JoinJSONL joins JSON lines with newlines and appends a
// trailing newline.
func JoinJSONL(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// NewSessionID returns a random canonical session id.
func NewSessionID() string {
	return uuid.NewString()
}

// WriteClaudeSession writes content to
// <root>/<encoded projectPath>/<sessionID>.jsonl, sets its
// modification time and returns the file path. A zero mtime
// leaves the file's time untouched.
func WriteClaudeSession(
	t testing.TB, root, projectPath, sessionID, content string,
	mtime time.Time,
) string {
	t.Helper()
	dir := filepath.Join(
		root, strings.ReplaceAll(projectPath, "/", "-"),
	)
	return writeFile(t, dir, sessionID+".jsonl", content, mtime)
}

// WriteRollout writes a rollout log under
// <root>/YYYY/MM/DD/rollout-<timestamp>-<sessionID>.jsonl.
func WriteRollout(
	t testing.TB, root string, started time.Time,
	sessionID, content string, mtime time.Time,
) string {
	t.Helper()
	dir := filepath.Join(root, started.Format("2006/01/02"))
	name := "rollout-" + started.Format("2006-01-02T15-04-05") +
		"-" + sessionID + ".jsonl"
	return writeFile(t, dir, name, content, mtime)
}

func writeFile(
	t testing.TB, dir, name, content string, mtime time.Time,
) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	if !mtime.IsZero() {
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("chtimes %s: %v", name, err)
		}
	}
	return path
}

func mustMarshal(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
