package session

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesm/agentresume/internal/testjsonl"
)

const tsEarly = "2024-01-01T10:00:00Z"

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestScanner(roots ...string) *Scanner {
	return NewScanner(Options{
		Roots:            roots,
		SearchLines:      20,
		PreviewLines:     10,
		SearchPreviewLen: 200,
		PreviewLen:       100,
	})
}

func sessionIDs(ds []Descriptor) []string {
	ids := make([]string, len(ds))
	for i, d := range ds {
		ids[i] = d.SessionID
	}
	return ids
}

// ignoreTimes drops the fields that depend on the file system
// clock when comparing descriptors.
var ignoreTimes = cmpopts.IgnoreFields(Descriptor{}, "CreatedAt")

func TestScan_ByID(t *testing.T) {
	root := t.TempDir()
	id := testjsonl.NewSessionID()
	content := testjsonl.JoinJSONL(
		testjsonl.ClaudeSummaryJSON("s"),
		testjsonl.ClaudeUserJSON("Fix the login bug", tsEarly, "/Users/alice/code/app"),
	)
	path := testjsonl.WriteClaudeSession(t, root, "/Users/alice/code/app", id, content, baseTime)
	testjsonl.WriteClaudeSession(t, root, "/Users/alice/code/other", testjsonl.NewSessionID(), content, baseTime)

	got, err := newTestScanner(root).Scan(ByID(id))
	require.NoError(t, err)

	want := []Descriptor{{
		SessionID:    id,
		ProjectDir:   "-Users-alice-code-app",
		ProjectPath:  "/Users/alice/code/app",
		Cwd:          "/Users/alice/code/app",
		CwdRecorded:  true,
		FilePath:     path,
		Size:         int64(len(content)),
		ModTime:      baseTime,
		MessageCount: 2,
		Preview:      "Fix the login bug",
	}}
	if diff := cmp.Diff(want, got, ignoreTimes); diff != "" {
		t.Errorf("Scan(ByID) mismatch (-want +got):\n%s", diff)
	}
}

func TestScan_SymlinkedSessionFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}
	root := t.TempDir()
	id := testjsonl.NewSessionID()
	content := testjsonl.JoinJSONL(
		testjsonl.ClaudeUserJSON("Linked session", tsEarly, "/w/a"),
	)
	target := testjsonl.WriteClaudeSession(t, t.TempDir(), "/w/a", id, content, baseTime)

	projDir := filepath.Join(root, "-w-a")
	require.NoError(t, os.MkdirAll(projDir, 0o755))
	link := filepath.Join(projDir, id+".jsonl")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlink: %v", err)
	}

	sc := newTestScanner(root)
	for name, m := range map[string]Matcher{"ByID": ByID(id), "All": All()} {
		got, err := sc.Scan(m)
		require.NoError(t, err, name)
		require.Len(t, got, 1, name)
		assert.Equal(t, link, got[0].FilePath, name)
		assert.Equal(t, "Linked session", got[0].Preview, name)
		assert.Equal(t, "/w/a", got[0].Cwd, name)
	}
}

func TestScan_ByIDMissing(t *testing.T) {
	root := t.TempDir()
	testjsonl.WriteClaudeSession(t, root, "/w/a", testjsonl.NewSessionID(), "{}\n", baseTime)

	got, err := newTestScanner(root).Scan(ByID("does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScan_ByIDPrefix(t *testing.T) {
	root := t.TempDir()
	testjsonl.WriteClaudeSession(t, root, "/w/a", "c080fd31-1fea-44e2-8690-c58ad0f4a829", "{}\n", baseTime)
	testjsonl.WriteClaudeSession(t, root, "/w/b", "d1111111-1fea-44e2-8690-c58ad0f4a829", "{}\n", baseTime)

	got, err := newTestScanner(root).Scan(ByIDPrefix("c080fd31"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c080fd31-1fea-44e2-8690-c58ad0f4a829"}, sessionIDs(got))

	got, err = newTestScanner(root).Scan(ByIDPrefix(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScan_CwdFallsBackToProjectPath(t *testing.T) {
	root := t.TempDir()
	id := testjsonl.NewSessionID()
	testjsonl.WriteClaudeSession(t, root, "/srv/app", id,
		testjsonl.JoinJSONL(testjsonl.ClaudeUserStringJSON("hello")), baseTime)

	got, err := newTestScanner(root).Scan(ByID(id))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "/srv/app", got[0].Cwd)
	assert.False(t, got[0].CwdRecorded)
	assert.Equal(t, "/srv/app", got[0].GroupKey())
}

func TestScan_ByText(t *testing.T) {
	root := t.TempDir()
	hit := testjsonl.NewSessionID()
	testjsonl.WriteClaudeSession(t, root, "/w/web", hit, testjsonl.JoinJSONL(
		testjsonl.CwdJSON("/w/web"),
		testjsonl.ClaudeAssistantJSON("hello", tsEarly),
		`{"type":"user","message":"Please refactor the Dashboard component"}`,
	), baseTime)
	testjsonl.WriteClaudeSession(t, root, "/w/api", testjsonl.NewSessionID(), testjsonl.JoinJSONL(
		testjsonl.ClaudeUserJSON("Add an endpoint", tsEarly),
	), baseTime)

	for _, needle := range []string{"dashboard", "DASHBOARD", "Dashboard"} {
		got, err := newTestScanner(root).Scan(ByText(needle))
		require.NoError(t, err)
		require.Len(t, got, 1, needle)
		assert.Equal(t, hit, got[0].SessionID)
		assert.Equal(t, "Please refactor the Dashboard component", got[0].Preview)
	}

	got, err := newTestScanner(root).Scan(ByText("nonexistent-term"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScan_ByTextRespectsLineBound(t *testing.T) {
	root := t.TempDir()
	lines := make([]string, 0, 25)
	for range 24 {
		lines = append(lines, testjsonl.ClaudeAssistantJSON("filler", tsEarly))
	}
	lines = append(lines, testjsonl.ClaudeUserJSON("late needle", tsEarly))
	testjsonl.WriteClaudeSession(t, root, "/w/a", testjsonl.NewSessionID(),
		testjsonl.JoinJSONL(lines...), baseTime)

	got, err := newTestScanner(root).Scan(ByText("needle"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScan_AllSortedByRecency(t *testing.T) {
	root := t.TempDir()
	content := testjsonl.JoinJSONL(testjsonl.ClaudeUserStringJSON("x"))
	testjsonl.WriteClaudeSession(t, root, "/w/a", "old", content, baseTime.Add(-2*time.Hour))
	testjsonl.WriteClaudeSession(t, root, "/w/b", "newest", content, baseTime)
	testjsonl.WriteClaudeSession(t, root, "/w/a", "middle", content, baseTime.Add(-time.Hour))

	got, err := newTestScanner(root).Scan(All())
	require.NoError(t, err)
	assert.Equal(t, []string{"newest", "middle", "old"}, sessionIDs(got))
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].ModTime.After(got[i-1].ModTime))
	}
}

func TestScan_MultipleRoots(t *testing.T) {
	r1, r2 := t.TempDir(), t.TempDir()
	content := testjsonl.JoinJSONL(testjsonl.ClaudeUserStringJSON("x"))
	testjsonl.WriteClaudeSession(t, r1, "/w/a", "one", content, baseTime.Add(-time.Hour))
	testjsonl.WriteClaudeSession(t, r2, "/w/b", "two", content, baseTime)

	got, err := newTestScanner(r1, filepath.Join(r1, "missing"), r2).Scan(All())
	require.NoError(t, err)
	assert.Equal(t, []string{"two", "one"}, sessionIDs(got))
}

func TestScan_MissingRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	got, err := newTestScanner(missing).Scan(All())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRootNotFound))
	assert.Contains(t, err.Error(), missing)
	assert.Empty(t, got)
}

func TestScan_SkipsUnreadableFile(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("skipping: running as root bypasses permissions")
	}
	root := t.TempDir()
	content := testjsonl.JoinJSONL(testjsonl.ClaudeUserStringJSON("x"))
	testjsonl.WriteClaudeSession(t, root, "/w/a", "good", content, baseTime)
	bad := testjsonl.WriteClaudeSession(t, root, "/w/a", "bad", content, baseTime)
	require.NoError(t, os.Chmod(bad, 0o000))

	got, err := newTestScanner(root).Scan(All())
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, sessionIDs(got))
}

func TestScan_MalformedLinesTolerated(t *testing.T) {
	root := t.TempDir()
	id := testjsonl.NewSessionID()
	testjsonl.WriteClaudeSession(t, root, "/w/a", id, testjsonl.JoinJSONL(
		`{"type":"user","message":`,
		`garbage`,
		testjsonl.ClaudeUserJSON("survives", tsEarly, "/w/a/sub"),
	), baseTime)

	got, err := newTestScanner(root).Scan(ByID(id))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "/w/a/sub", got[0].Cwd)
	assert.Equal(t, "survives", got[0].Preview)
	assert.Equal(t, 3, got[0].MessageCount)
}

func TestMatcherString(t *testing.T) {
	assert.Equal(t, "id abc", ByID("abc").String())
	assert.Equal(t, "id prefix ab", ByIDPrefix("ab").String())
	assert.Equal(t, `text "x"`, ByText("x").String())
	assert.Equal(t, "all sessions", All().String())
}

func TestDescriptorShortID(t *testing.T) {
	assert.Equal(t, "c080fd31", Descriptor{SessionID: "c080fd31-1fea"}.ShortID())
	assert.Equal(t, "abc", Descriptor{SessionID: "abc"}.ShortID())
}
