package gitsource

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/skillpack/pkg/errors"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	full := append([]string{"-C", dir, "-c", "user.name=skillpack", "-c", "user.email=skillpack@example.com", "-c", "commit.gpgsign=false"}, args...)
	out, err := exec.Command("git", full...).CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
	return strings.TrimSpace(string(out))
}

func commitFile(t *testing.T, repo, rel, content string) string {
	t.Helper()
	path := filepath.Join(repo, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	git(t, repo, "add", "-A")
	git(t, repo, "commit", "-q", "-m", "update "+rel)
	return git(t, repo, "rev-parse", "HEAD")
}

func newSourceRepo(t *testing.T) string {
	t.Helper()
	repo := t.TempDir()
	git(t, repo, "init", "-q")
	git(t, repo, "symbolic-ref", "HEAD", "refs/heads/main")
	return repo
}

func TestMaterializeDefaultBranch(t *testing.T) {
	requireGit(t)
	src := newSourceRepo(t)
	commit := commitFile(t, src, "tools/lint/SKILL.md", "# lint\n")

	g := New(Options{CacheDir: t.TempDir(), Attempts: 1, Delay: time.Millisecond})
	tree, err := g.Materialize(context.Background(), src, "")
	require.NoError(t, err)

	assert.Equal(t, commit, tree.Commit)
	assert.Equal(t, src, tree.Repo)
	assert.Empty(t, tree.Ref)
	data, err := os.ReadFile(filepath.Join(tree.Root, "tools", "lint", "SKILL.md"))
	require.NoError(t, err)
	assert.Equal(t, "# lint\n", string(data))

	again, err := g.Materialize(context.Background(), src, "")
	require.NoError(t, err)
	assert.Equal(t, tree.Root, again.Root, "same commit reuses its worktree")
}

func TestMaterializeRefsGetSeparateTrees(t *testing.T) {
	requireGit(t)
	src := newSourceRepo(t)
	first := commitFile(t, src, "a/SKILL.md", "v1\n")
	git(t, src, "tag", "v1")

	g := New(Options{CacheDir: t.TempDir(), Attempts: 1, Delay: time.Millisecond})
	ctx := context.Background()

	_, err := g.Materialize(ctx, src, "main")
	require.NoError(t, err)

	second := commitFile(t, src, "a/SKILL.md", "v2\n")

	latest, err := g.Materialize(ctx, src, "main")
	require.NoError(t, err)
	assert.Equal(t, second, latest.Commit, "fetch picks up new commits")

	pinned, err := g.Materialize(ctx, src, "v1")
	require.NoError(t, err)
	assert.Equal(t, first, pinned.Commit)
	assert.NotEqual(t, latest.Root, pinned.Root)

	byCommit, err := g.Materialize(ctx, src, first[:10])
	require.NoError(t, err)
	assert.Equal(t, first, byCommit.Commit)

	v1, err := os.ReadFile(filepath.Join(pinned.Root, "a", "SKILL.md"))
	require.NoError(t, err)
	v2, err := os.ReadFile(filepath.Join(latest.Root, "a", "SKILL.md"))
	require.NoError(t, err)
	assert.Equal(t, "v1\n", string(v1))
	assert.Equal(t, "v2\n", string(v2))
}

func TestMaterializeUnknownRef(t *testing.T) {
	requireGit(t)
	src := newSourceRepo(t)
	commitFile(t, src, "a/SKILL.md", "x\n")

	g := New(Options{CacheDir: t.TempDir(), Attempts: 1, Delay: time.Millisecond})
	_, err := g.Materialize(context.Background(), src, "does-not-exist")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrGitFailed))
	assert.Equal(t, errors.KindTransport, errors.KindOf(err))
}

func TestMaterializeMissingRepo(t *testing.T) {
	requireGit(t)
	g := New(Options{CacheDir: t.TempDir(), Attempts: 2, Delay: time.Millisecond})

	_, err := g.Materialize(context.Background(), filepath.Join(t.TempDir(), "nope"), "")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrGitFailed))
}

func TestExpandRepo(t *testing.T) {
	assert.Equal(t, "https://github.com/acme/skills.git", ExpandRepo("github.com/acme/skills"))
	assert.Equal(t, "https://github.com/acme/skills.git", ExpandRepo("github.com/acme/skills.git"))
	assert.Equal(t, "git@github.com:acme/skills.git", ExpandRepo("git@github.com:acme/skills.git"))
	assert.Equal(t, "/local/repo", ExpandRepo("/local/repo"))
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, CacheKey("github.com/acme/skills"), CacheKey("https://github.com/acme/skills.git"))
	assert.NotEqual(t, CacheKey("github.com/acme/skills"), CacheKey("github.com/acme/other"))
	assert.Len(t, CacheKey("x"), 64)
}
