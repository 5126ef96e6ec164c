package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// userRecordType marks a record authored by the user.
const userRecordType = "user"

// MessageContent is the normalized text of a record's message
// field. The field is either a plain string or an object whose
// content is a string or an array of text blocks; the shape is
// resolved once here so callers only ever see text.
type MessageContent struct {
	Text    string
	Present bool
}

// Record is one parsed line of a session log. Every field is
// optional.
type Record struct {
	Type    string
	Cwd     string
	Message MessageContent
}

// IsUser reports whether the record is a user turn carrying
// non-empty message text.
func (r Record) IsUser() bool {
	return r.Type == userRecordType &&
		r.Message.Present && r.Message.Text != ""
}

// ParseRecord parses a single JSONL line. It returns false for
// anything that is not a JSON object.
func ParseRecord(line string) (Record, bool) {
	if !gjson.Valid(line) {
		return Record{}, false
	}
	root := gjson.Parse(line)
	if !root.IsObject() {
		return Record{}, false
	}
	var rec Record
	if t := root.Get("type"); t.Type == gjson.String {
		rec.Type = t.Str
	}
	if cwd := root.Get("cwd"); cwd.Type == gjson.String {
		rec.Cwd = cwd.Str
	}
	rec.Message = messageContent(root.Get("message"))
	return rec, true
}

func messageContent(msg gjson.Result) MessageContent {
	if msg.Type == gjson.String {
		return MessageContent{Text: msg.Str, Present: true}
	}
	if !msg.IsObject() {
		return MessageContent{}
	}
	content := msg.Get("content")
	if content.Type == gjson.String {
		return MessageContent{Text: content.Str, Present: true}
	}
	if !content.IsArray() {
		return MessageContent{}
	}
	var parts []string
	content.ForEach(func(_, block gjson.Result) bool {
		if block.Get("type").Str == "text" {
			if text := block.Get("text").Str; text != "" {
				parts = append(parts, text)
			}
		}
		return true
	})
	if len(parts) == 0 {
		return MessageContent{}
	}
	return MessageContent{
		Text: strings.Join(parts, "\n"), Present: true,
	}
}

// SummaryOptions bounds a Summarize pass.
type SummaryOptions struct {
	// MessageLines is how many leading lines are examined for
	// the first user message.
	MessageLines int
	// PreviewLen truncates FirstMessage, in runes. Zero
	// disables truncation.
	PreviewLen int
	// Needle, when set, is matched case-insensitively against
	// user message text within the first SearchLines lines.
	Needle      string
	SearchLines int
	// MatchLen truncates Match, in runes.
	MatchLen int
}

// Summary is what a single pass over a session log yields.
type Summary struct {
	Cwd          string
	FirstMessage string
	Match        string
	Matched      bool
	Lines        int
}

// Summarize reads the whole file once, collecting the first cwd
// found on any line, the first user message, an optional text
// match and the physical line count. Malformed lines are skipped.
// Each field agrees with the matching single-purpose reader below
// given the same bounds.
func Summarize(path string, opts SummaryOptions) (Summary, error) {
	var (
		sum    Summary
		needle = strings.ToLower(opts.Needle)
	)
	lines, err := eachRecord(path, 0, func(rec Record, line int) bool {
		if sum.Cwd == "" {
			sum.Cwd = rec.Cwd
		}
		if sum.FirstMessage == "" && firstMessageAt(rec, line, opts.MessageLines) {
			sum.FirstMessage = Truncate(rec.Message.Text, opts.PreviewLen)
		}
		if !sum.Matched && needle != "" &&
			matchesAt(rec, line, opts.SearchLines, needle) {
			sum.Matched = true
			sum.Match = Truncate(rec.Message.Text, opts.MatchLen)
		}
		return true
	})
	if err != nil {
		return Summary{}, err
	}
	sum.Lines = lines
	return sum, nil
}

// firstMessageAt reports whether rec, read on the given physical
// line, can be the first user message under a maxLines bound.
func firstMessageAt(rec Record, line, maxLines int) bool {
	return rec.IsUser() && line <= maxLines
}

// matchesAt reports whether rec is a user record within maxLines
// whose text contains the lowercased needle.
func matchesAt(rec Record, line, maxLines int, lowerNeedle string) bool {
	return rec.IsUser() && line <= maxLines &&
		strings.Contains(strings.ToLower(rec.Message.Text), lowerNeedle)
}

// FindWorkingDirectory returns the first non-empty cwd recorded
// anywhere in the file, or "" when no line carries one.
func FindWorkingDirectory(path string) (string, error) {
	var cwd string
	_, err := eachRecord(path, 0, func(rec Record, _ int) bool {
		cwd = rec.Cwd
		return cwd == ""
	})
	return cwd, err
}

// FirstUserMessage returns the text of the first user record in
// the first maxLines lines, truncated to maxLen runes.
func FirstUserMessage(path string, maxLines, maxLen int) (string, error) {
	var first string
	_, err := eachRecord(path, maxLines, func(rec Record, line int) bool {
		if firstMessageAt(rec, line, maxLines) {
			first = Truncate(rec.Message.Text, maxLen)
			return false
		}
		return true
	})
	return first, err
}

// SearchText returns the first user message within the first
// maxLines lines whose text contains needle, ignoring case.
func SearchText(path, needle string, maxLines int) (string, bool, error) {
	if needle == "" {
		return "", false, nil
	}
	needle = strings.ToLower(needle)
	var (
		hit   string
		found bool
	)
	_, err := eachRecord(path, maxLines, func(rec Record, line int) bool {
		if matchesAt(rec, line, maxLines, needle) {
			hit, found = rec.Message.Text, true
			return false
		}
		return true
	})
	return hit, found, err
}

// CountLines returns the number of lines in the file, blank and
// malformed lines included.
func CountLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	lr := newLineReader(f, maxLineSize)
	lr.drain()
	if err := lr.Err(); err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	return lr.Lines(), nil
}

// eachRecord calls fn with every parseable record and the physical
// line it was read from, until fn returns false or more than limit
// lines have been read. limit <= 0 means no limit. It returns the
// number of lines read, which is the file's line count when the
// whole file was consumed. Open errors are returned unwrapped since
// *fs.PathError already names the file.
func eachRecord(path string, limit int, fn func(Record, int) bool) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	lr := newLineReader(f, maxLineSize)
	for {
		line, ok := lr.next()
		if !ok || (limit > 0 && lr.Lines() > limit) {
			break
		}
		rec, ok := ParseRecord(line)
		if !ok {
			continue
		}
		if !fn(rec, lr.Lines()) {
			return lr.Lines(), nil
		}
	}
	if err := lr.Err(); err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	return lr.Lines(), nil
}

// Truncate shortens s to at most maxLen runes. maxLen <= 0
// returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen])
}

// SessionID derives a session id from a log file name by
// stripping the directory and the extension.
func SessionID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FileInfo holds file system metadata for a session log.
type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
	Created time.Time
}

// StatSession stats a session log. Created falls back to the
// modification time where the platform does not expose one.
func StatSession(path string) (FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Created: createdTime(info),
	}, nil
}
