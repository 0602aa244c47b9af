package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/arthur-debert/skillpack/pkg/errors"
	"github.com/arthur-debert/skillpack/pkg/gitsource"
)

// FakeGit is an in-process gitsource.Materializer. Trees are plain
// directories registered per (repo, ref).
type FakeGit struct {
	mu    sync.Mutex
	trees map[string]*gitsource.Tree
	calls []string
}

// NewFakeGit returns an empty FakeGit.
func NewFakeGit() *FakeGit {
	return &FakeGit{trees: map[string]*gitsource.Tree{}}
}

func fakeKey(repo, ref string) string {
	return repo + "@" + ref
}

// AddTree registers a remote tree holding the given skill ids and returns
// its root.
func (f *FakeGit) AddTree(t *testing.T, repo, ref, commit string, ids ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, id := range ids {
		WriteSkill(t, filepath.Join(root, filepath.FromSlash(id)), id, nil)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trees[fakeKey(repo, ref)] = &gitsource.Tree{Repo: repo, Ref: ref, Commit: commit, Root: root}
	return root
}

// Materialize implements gitsource.Materializer.
func (f *FakeGit) Materialize(ctx context.Context, repo, ref string) (*gitsource.Tree, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeKey(repo, ref))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tree, ok := f.trees[fakeKey(repo, ref)]
	if !ok {
		return nil, errors.Newf(errors.ErrGitFailed, "cannot resolve ref %s", refOrHead(ref)).
			WithDetail("repo", repo)
	}
	if _, err := os.Stat(tree.Root); err != nil {
		return nil, fmt.Errorf("fake tree for %s vanished: %w", repo, err)
	}
	copied := *tree
	return &copied, nil
}

// Calls returns the (repo@ref) pairs materialized so far.
func (f *FakeGit) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func refOrHead(ref string) string {
	if ref == "" {
		return "HEAD"
	}
	return ref
}
