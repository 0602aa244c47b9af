// Package gitsource materializes imported repositories: it keeps one cached
// clone per repository and checks each resolved commit out into its own
// detached worktree, so every (repository, ref) pair maps to a stable,
// read-only filesystem root.
package gitsource

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/skillpack/pkg/errors"
	"github.com/arthur-debert/skillpack/pkg/logging"
)

const (
	repoDirName  = "repo"
	treesDirName = "trees"
)

var commitPattern = regexp.MustCompile(`^[0-9a-f]{40}([0-9a-f]{24})?$`)

// Tree is a materialized checkout of one commit.
type Tree struct {
	Repo   string `json:"repo"`
	Ref    string `json:"ref,omitempty"`
	Commit string `json:"commit"`
	// Root is the worktree directory holding the checked-out files.
	Root string `json:"root"`
}

// Materializer turns (repository, ref) into a ready tree.
type Materializer interface {
	Materialize(ctx context.Context, repo, ref string) (*Tree, error)
}

// Options tune the git materializer.
type Options struct {
	// CacheDir holds one directory per repository.
	CacheDir string
	// Attempts bounds clone and fetch retries. Zero means 3.
	Attempts uint
	// Delay is the initial backoff between attempts. Zero means one second.
	Delay time.Duration
}

// Git materializes trees with the git command line.
type Git struct {
	opts   Options
	logger zerolog.Logger
}

// New returns a git-backed Materializer.
func New(opts Options) *Git {
	if opts.Attempts == 0 {
		opts.Attempts = 3
	}
	if opts.Delay == 0 {
		opts.Delay = time.Second
	}
	return &Git{opts: opts, logger: logging.GetLogger("gitsource")}
}

// ExpandRepo turns the github.com/<owner>/<name> shorthand into an https
// clone URL. Anything else is returned unchanged.
func ExpandRepo(repo string) string {
	if strings.HasPrefix(repo, "github.com/") {
		return "https://" + strings.TrimSuffix(repo, ".git") + ".git"
	}
	return repo
}

// CacheKey names the cache directory of a repository.
func CacheKey(repo string) string {
	sum := sha256.Sum256([]byte(ExpandRepo(repo)))
	return hex.EncodeToString(sum[:])
}

// Materialize clones or refreshes repo, resolves ref to a commit and returns
// a worktree checked out at that commit.
func (g *Git) Materialize(ctx context.Context, repo, ref string) (*Tree, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, errors.Wrap(err, errors.ErrGitMissing, "git executable not found").
			WithHint("Install git to use imports")
	}

	url := ExpandRepo(repo)
	base := filepath.Join(g.opts.CacheDir, CacheKey(repo))
	repoDir := filepath.Join(base, repoDirName)
	log := g.logger.With().Str("repo", repo).Str("ref", ref).Logger()

	if err := os.MkdirAll(base, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrDirCreate, "failed to create cache dir %s", base)
	}

	if err := g.sync(ctx, log, url, repoDir); err != nil {
		return nil, errors.Wrapf(err, errors.ErrGitFailed, "failed to fetch %s", repo).
			WithDetail("repo", repo).
			WithHint("Check the repository URL and your network access")
	}

	commit, err := g.resolve(ctx, repoDir, ref)
	if err != nil {
		return nil, err
	}

	treeDir := filepath.Join(base, treesDirName, commit)
	if err := g.ensureWorktree(ctx, repoDir, treeDir, commit); err != nil {
		return nil, errors.Wrapf(err, errors.ErrGitFailed, "failed to check out %s at %s", repo, commit).
			WithDetail("repo", repo)
	}

	log.Info().Str("commit", commit).Str("root", treeDir).Msg("Materialized import")
	return &Tree{Repo: repo, Ref: ref, Commit: commit, Root: treeDir}, nil
}

func (g *Git) sync(ctx context.Context, log zerolog.Logger, url, repoDir string) error {
	cloned := isDir(filepath.Join(repoDir, ".git"))
	return retry.Do(
		func() error {
			if cloned {
				_, err := runGit(ctx, "-C", repoDir, "fetch", "--all", "--tags", "--prune")
				return err
			}
			if err := os.RemoveAll(repoDir); err != nil {
				return retry.Unrecoverable(err)
			}
			_, err := runGit(ctx, "clone", "--no-checkout", url, repoDir)
			return err
		},
		retry.Attempts(g.opts.Attempts),
		retry.Delay(g.opts.Delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("attempt", n+1).Msg("Retrying git transfer")
		}),
	)
}

// resolve maps ref to a full commit id. Remote-tracking refs are preferred
// so a fetched branch wins over a stale local one.
func (g *Git) resolve(ctx context.Context, repoDir, ref string) (string, error) {
	var candidates []string
	if ref == "" {
		candidates = []string{"origin/HEAD", "HEAD"}
	} else {
		candidates = []string{"origin/" + ref, ref}
	}

	var lastErr error
	for _, candidate := range candidates {
		out, err := runGit(ctx, "-C", repoDir, "rev-parse", "--verify", "--quiet", candidate+"^{commit}")
		if err != nil {
			lastErr = err
			continue
		}
		commit := strings.TrimSpace(out)
		if commitPattern.MatchString(commit) {
			return commit, nil
		}
	}

	display := ref
	if display == "" {
		display = "HEAD"
	}
	e := errors.Newf(errors.ErrGitFailed, "cannot resolve ref %s", display).
		WithDetail("ref", display).
		WithHint("Check that the branch, tag or commit exists in the repository")
	e.Wrapped = lastErr
	return "", e
}

func (g *Git) ensureWorktree(ctx context.Context, repoDir, treeDir, commit string) error {
	if isFile(filepath.Join(treeDir, ".git")) {
		out, err := runGit(ctx, "-C", treeDir, "rev-parse", "HEAD")
		if err == nil && strings.TrimSpace(out) == commit {
			return nil
		}
	}

	if err := os.RemoveAll(treeDir); err != nil {
		return err
	}
	if _, err := runGit(ctx, "-C", repoDir, "worktree", "prune"); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(treeDir), 0755); err != nil {
		return err
	}
	_, err := runGit(ctx, "-C", repoDir, "worktree", "add", "--detach", "--force", treeDir, commit)
	return err
}

// gitError carries the stderr of a failed git command.
type gitError struct {
	args   []string
	stderr string
	err    error
}

func (e *gitError) Error() string {
	msg := strings.TrimSpace(e.stderr)
	if msg == "" {
		msg = e.err.Error()
	}
	return "git " + strings.Join(e.args, " ") + ": " + msg
}

func (e *gitError) Unwrap() error { return e.err }

func runGit(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger := logging.GetLogger("gitsource")
	logger.Trace().Strs("args", args).Msg("Running git")
	if err := cmd.Run(); err != nil {
		return "", &gitError{args: args, stderr: stderr.String(), err: err}
	}
	return stdout.String(), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
