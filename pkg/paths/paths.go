package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/skillpack/pkg/errors"
)

// Environment variable names
const (
	// EnvSkillpackHome overrides the skillpack home directory
	EnvSkillpackHome = "SKILLPACK_HOME"

	// EnvCacheDir overrides the git cache directory
	EnvCacheDir = "SKILLPACK_CACHE_DIR"
)

// Fixed layout below the skillpack home and the repository root.
const (
	HomeDirName    = ".skillpack"
	ConfigYAMLFile = "config.yaml"
	ConfigTOMLFile = "config.toml"
	StateFileName  = "state.json"
	LockSuffix     = ".lock"
	CacheDirName   = "cache"
	SkillsDirName  = "skills"
	PacksDirName   = "packs"
)

// Options configure New. Empty fields fall back to environment and defaults.
type Options struct {
	// Root is the skill repository root. When empty it is discovered from the
	// working directory.
	Root string
	// CacheDir overrides the git cache location.
	CacheDir string
}

// Paths provides centralized path management for skillpack
type Paths interface {
	Home() string
	ConfigFiles() []string
	StatePath() string
	LockPath() string
	CacheDir() string
	RepoRoot() string
	SkillsDir() string
	PacksDir() string
	UsedFallback() bool
}

type paths struct {
	home         string
	cacheDir     string
	repoRoot     string
	usedFallback bool
}

// New resolves every location once.
func New(opts Options) (Paths, error) {
	p := &paths{}

	home, err := SkillpackHome()
	if err != nil {
		return nil, err
	}
	p.home = home

	switch {
	case opts.CacheDir != "":
		p.cacheDir = ExpandHome(opts.CacheDir)
	case os.Getenv(EnvCacheDir) != "":
		p.cacheDir = ExpandHome(os.Getenv(EnvCacheDir))
	default:
		p.cacheDir = filepath.Join(p.home, CacheDirName)
	}
	if p.cacheDir, err = filepath.Abs(p.cacheDir); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to get absolute path for cache dir")
	}

	if opts.Root != "" {
		p.repoRoot, err = filepath.Abs(ExpandHome(opts.Root))
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to get absolute path for root %s", opts.Root)
		}
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrFileAccess, "failed to get working directory")
		}
		p.repoRoot, p.usedFallback = FindRepoRoot(cwd)
	}

	return p, nil
}

// SkillpackHome returns $SKILLPACK_HOME or ~/.skillpack.
func SkillpackHome() (string, error) {
	if home := os.Getenv(EnvSkillpackHome); home != "" {
		abs, err := filepath.Abs(ExpandHome(home))
		if err != nil {
			return "", errors.Wrapf(err, errors.ErrFileAccess, "invalid %s", EnvSkillpackHome)
		}
		return abs, nil
	}
	userHome := userHomeDir()
	if userHome == "" {
		return "", errors.New(errors.ErrConfigLoad, "cannot determine home directory").
			WithHint("set " + EnvSkillpackHome)
	}
	return filepath.Join(userHome, HomeDirName), nil
}

// FindRepoRoot walks up from start looking for a directory that holds
// skills/ or packs/. It falls back to start itself.
func FindRepoRoot(start string) (string, bool) {
	dir := filepath.Clean(start)
	for {
		for _, name := range []string{SkillsDirName, PacksDirName} {
			if info, err := os.Stat(filepath.Join(dir, name)); err == nil && info.IsDir() {
				return dir, false
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return filepath.Clean(start), true
		}
		dir = parent
	}
}

// ExpandHome expands a leading ~ to the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home := userHomeDir()
	if home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

func userHomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	return xdg.Home
}

func (p *paths) Home() string { return p.home }

// ConfigFiles lists candidate user config files in load order.
func (p *paths) ConfigFiles() []string {
	return []string{
		filepath.Join(p.home, ConfigTOMLFile),
		filepath.Join(p.home, ConfigYAMLFile),
	}
}

func (p *paths) StatePath() string  { return filepath.Join(p.home, StateFileName) }
func (p *paths) LockPath() string   { return p.StatePath() + LockSuffix }
func (p *paths) CacheDir() string   { return p.cacheDir }
func (p *paths) RepoRoot() string   { return p.repoRoot }
func (p *paths) SkillsDir() string  { return filepath.Join(p.repoRoot, SkillsDirName) }
func (p *paths) PacksDir() string   { return filepath.Join(p.repoRoot, PacksDirName) }
func (p *paths) UsedFallback() bool { return p.usedFallback }
