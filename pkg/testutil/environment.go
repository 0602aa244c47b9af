// pkg/testutil/environment.go
// DEPENDENCIES: None (base test utilities)
// PURPOSE: Orchestrate test environments with proper dependencies

package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/arthur-debert/skillpack/pkg/filesystem"
	"github.com/arthur-debert/skillpack/pkg/paths"
	"github.com/arthur-debert/skillpack/pkg/statestore"
	"github.com/arthur-debert/skillpack/pkg/types"
)

// FixedTime is the clock used by environments.
var FixedTime = time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)

// TestEnvironment is an isolated skillpack setup on the real filesystem.
type TestEnvironment struct {
	// Core paths
	RepoRoot      string
	HomeDir       string
	SkillpackHome string
	SinksDir      string

	// Core dependencies
	FS    types.FS
	Paths paths.Paths
	Git   *FakeGit
	Store statestore.Store

	t *testing.T
}

// NewTestEnvironment creates the directories, sets HOME and SKILLPACK_HOME
// and clears sink overrides from the environment.
func NewTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()

	base, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to resolve temp dir: %v", err)
	}

	env := &TestEnvironment{
		RepoRoot:      filepath.Join(base, "repo"),
		HomeDir:       filepath.Join(base, "home"),
		SkillpackHome: filepath.Join(base, "home", paths.HomeDirName),
		SinksDir:      filepath.Join(base, "sinks"),
		FS:            filesystem.NewOS(),
		Git:           NewFakeGit(),
		t:             t,
	}
	for _, dir := range []string{env.RepoRoot, env.SkillpackHome, env.SinksDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}

	t.Setenv("HOME", env.HomeDir)
	t.Setenv(paths.EnvSkillpackHome, env.SkillpackHome)
	t.Setenv(paths.EnvCacheDir, filepath.Join(env.SkillpackHome, paths.CacheDirName))
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "SKILLPACK_SINKS_") {
			name := kv[:strings.Index(kv, "=")]
			t.Setenv(name, "")
			_ = os.Unsetenv(name)
		}
	}

	p, err := paths.New(paths.Options{Root: env.RepoRoot})
	if err != nil {
		t.Fatalf("Failed to create paths: %v", err)
	}
	env.Paths = p
	env.Store = statestore.New(afero.NewOsFs(), p.StatePath(), p.LockPath())
	return env
}

// AddSkill creates skills/<id>/SKILL.md with optional frontmatter.
func (env *TestEnvironment) AddSkill(id string, frontmatter map[string]string) string {
	env.t.Helper()
	dir := filepath.Join(env.RepoRoot, paths.SkillsDirName, filepath.FromSlash(id))
	WriteSkill(env.t, dir, id, frontmatter)
	return dir
}

// AddPack writes packs/<file> with the given content.
func (env *TestEnvironment) AddPack(file, content string) string {
	env.t.Helper()
	path := filepath.Join(env.RepoRoot, paths.PacksDirName, file)
	writeFile(env.t, path, content)
	return path
}

// Sink returns a sink directory path below SinksDir. It is not created.
func (env *TestEnvironment) Sink(name string) string {
	return filepath.Join(env.SinksDir, name)
}

// WriteConfig writes the user config file in the skillpack home.
func (env *TestEnvironment) WriteConfig(content string) string {
	env.t.Helper()
	path := filepath.Join(env.SkillpackHome, paths.ConfigYAMLFile)
	writeFile(env.t, path, content)
	return path
}

// Entries lists the folder names in a sink, sorted.
func (env *TestEnvironment) Entries(sinkPath string) []string {
	env.t.Helper()
	list, err := os.ReadDir(sinkPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}
		}
		env.t.Fatalf("Failed to read %s: %v", sinkPath, err)
	}
	names := make([]string, 0, len(list))
	for _, e := range list {
		names = append(names, e.Name())
	}
	return names
}

// WriteSkill creates dir/SKILL.md. Frontmatter keys are written in sorted
// order when present.
func WriteSkill(t *testing.T, dir, id string, frontmatter map[string]string) {
	t.Helper()
	var b strings.Builder
	if len(frontmatter) > 0 {
		keys := make([]string, 0, len(frontmatter))
		for k := range frontmatter {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("---\n")
		for _, k := range keys {
			b.WriteString(k + ": " + frontmatter[k] + "\n")
		}
		b.WriteString("---\n")
	}
	b.WriteString("# " + id + "\n\nInstructions for " + id + ".\n")
	writeFile(t, filepath.Join(dir, types.SkillMarker), b.String())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}
