package repo

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath(gitBinary); err != nil {
		t.Skip("git not available")
	}
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func TestCloneEmptyURL(t *testing.T) {
	t.Parallel()

	err := Clone(context.Background(), "  ", t.TempDir())
	assert.ErrorIs(t, err, ErrEmptyURL)
}

func TestCloneLocalRepo(t *testing.T) {
	requireGit(t)

	src := t.TempDir()
	runGit(t, src, "init", "-q")
	require.NoError(t, os.WriteFile(filepath.Join(src, "app.py"), []byte("print('hi')\n"), 0o644))
	runGit(t, src, "add", ".")
	runGit(t, src, "commit", "-q", "-m", "init")

	staging := filepath.Join(t.TempDir(), "repo")
	require.NoError(t, os.MkdirAll(filepath.Join(staging, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(staging, "stale.txt"), []byte("old"), 0o644))

	require.NoError(t, Clone(context.Background(), "file://"+src, staging))

	assert.FileExists(t, filepath.Join(staging, "app.py"))
	assert.NoFileExists(t, filepath.Join(staging, "stale.txt"))
}

func TestCloneRefusesNonCheckout(t *testing.T) {
	t.Parallel()

	staging := t.TempDir()
	keep := filepath.Join(staging, "notes.txt")
	require.NoError(t, os.WriteFile(keep, []byte("important"), 0o644))

	err := Clone(context.Background(), "file:///nowhere", staging)
	require.ErrorIs(t, err, ErrUnsafeStaging)
	assert.Contains(t, err.Error(), staging)
	assert.FileExists(t, keep)
}

func TestCloneIntoEmptyDir(t *testing.T) {
	requireGit(t)

	src := t.TempDir()
	runGit(t, src, "init", "-q")
	require.NoError(t, os.WriteFile(filepath.Join(src, "app.py"), []byte("x = 1\n"), 0o644))
	runGit(t, src, "add", ".")
	runGit(t, src, "commit", "-q", "-m", "init")

	staging := t.TempDir()
	require.NoError(t, Clone(context.Background(), "file://"+src, staging))
	assert.FileExists(t, filepath.Join(staging, "app.py"))
}

func TestCloneFailureIncludesStderr(t *testing.T) {
	requireGit(t)

	missing := filepath.Join(t.TempDir(), "does-not-exist")
	err := Clone(context.Background(), missing, filepath.Join(t.TempDir(), "repo"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "git clone")
	assert.Contains(t, err.Error(), "does-not-exist")
}
