package resume

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessExecutor_RunsInWorkDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses pwd")
	}
	if _, err := exec.LookPath("pwd"); err != nil {
		t.Skip("pwd not available")
	}
	dir := t.TempDir()
	var out bytes.Buffer
	e := ProcessExecutor{Stdout: &out}

	err := e.Execute(context.Background(), Plan{
		WorkDir: dir,
		Argv:    []string{"pwd"},
	})
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestProcessExecutor_Errors(t *testing.T) {
	e := ProcessExecutor{}
	err := e.Execute(context.Background(), Plan{})
	assert.Error(t, err)

	err = e.Execute(context.Background(), Plan{
		Argv: []string{"definitely-not-a-real-binary-xyz"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "definitely-not-a-real-binary-xyz")
}
