// TEST TYPE: Integration Test
// DEPENDENCIES: Real filesystem (t.TempDir), statestore on afero.OsFs
// PURPOSE: Verify install and uninstall reconcile sinks safely
package installer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/skillpack/pkg/errors"
	"github.com/arthur-debert/skillpack/pkg/filesystem"
	"github.com/arthur-debert/skillpack/pkg/planner"
	"github.com/arthur-debert/skillpack/pkg/statestore"
	"github.com/arthur-debert/skillpack/pkg/types"
)

type fixture struct {
	t       *testing.T
	source  string
	sink    string
	store   statestore.Store
	install *Installer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	home := t.TempDir()
	sink, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	store := statestore.New(afero.NewOsFs(), filepath.Join(home, "state.json"), filepath.Join(home, "state.json.lock"))
	in := New(filesystem.NewOS(), store)
	in.Now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	return &fixture{t: t, source: t.TempDir(), sink: sink, store: store, install: in}
}

func (f *fixture) skill(id string) types.Skill {
	f.t.Helper()
	dir := filepath.Join(f.source, filepath.FromSlash(id))
	require.NoError(f.t, os.MkdirAll(filepath.Join(dir, "docs"), 0755))
	require.NoError(f.t, os.WriteFile(filepath.Join(dir, types.SkillMarker), []byte("# "+id+"\n"), 0644))
	require.NoError(f.t, os.WriteFile(filepath.Join(dir, "docs", "notes.txt"), []byte("notes"), 0644))
	return types.Skill{ID: id, Origin: types.LocalOrigin(), SourcePath: dir}
}

func (f *fixture) request(pack string, selection ...types.Skill) Request {
	f.t.Helper()
	plan, err := planner.Build(selection, types.InstallOptions{Prefix: pack, Sep: "__"})
	require.NoError(f.t, err)
	return Request{Sink: "claude", SinkPath: f.sink, Pack: pack, PackFile: "/repo/packs/" + pack + ".yaml", Plan: plan}
}

func (f *fixture) entries() []string {
	f.t.Helper()
	list, err := os.ReadDir(f.sink)
	require.NoError(f.t, err)
	names := []string{}
	for _, e := range list {
		names = append(names, e.Name())
	}
	return names
}

func (f *fixture) record(pack string) (*statestore.Record, bool) {
	f.t.Helper()
	state, err := f.store.Load()
	require.NoError(f.t, err)
	return state.Find(statestore.Key{SinkPath: f.sink, Pack: pack})
}

func (f *fixture) seedRecord(rec statestore.Record) {
	f.t.Helper()
	state, err := f.store.Load()
	require.NoError(f.t, err)
	state.Put(rec)
	require.NoError(f.t, f.store.Save(state))
}

func TestInstallGeneralExample(t *testing.T) {
	f := newFixture(t)
	req := f.request("general", f.skill("general/a"), f.skill("general/b"))

	summary, err := f.install.Install(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []string{"general__general__a", "general__general__b"}, f.entries())
	assert.Len(t, summary.Added, 2)
	assert.Empty(t, summary.Updated)
	assert.Empty(t, summary.Removed)

	data, err := os.ReadFile(filepath.Join(f.sink, "general__general__a", "docs", "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "notes", string(data))

	rec, ok := f.record("general")
	require.True(t, ok)
	assert.Equal(t, []string{
		filepath.Join(f.sink, "general__general__a"),
		filepath.Join(f.sink, "general__general__b"),
	}, rec.InstalledPaths)
	assert.Equal(t, "claude", rec.Sink)
	assert.Equal(t, "general", rec.Prefix)
	assert.Equal(t, "__", rec.Sep)
	assert.Equal(t, "/repo/packs/general.yaml", rec.PackFile)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), rec.InstalledAt)
}

func TestReinstallConverges(t *testing.T) {
	f := newFixture(t)
	a, b := f.skill("general/a"), f.skill("general/b")

	_, err := f.install.Install(context.Background(), f.request("general", a, b))
	require.NoError(t, err)
	first, _ := f.record("general")

	summary, err := f.install.Install(context.Background(), f.request("general", a, b))
	require.NoError(t, err)
	second, _ := f.record("general")

	assert.Equal(t, first.InstalledPaths, second.InstalledPaths)
	assert.Len(t, summary.Updated, 2)
	assert.Empty(t, summary.Added)
	assert.Equal(t, []string{"general__general__a", "general__general__b"}, f.entries())
}

func TestReinstallRemovesStale(t *testing.T) {
	f := newFixture(t)
	a, b := f.skill("general/a"), f.skill("general/b")

	_, err := f.install.Install(context.Background(), f.request("general", a, b))
	require.NoError(t, err)

	summary, err := f.install.Install(context.Background(), f.request("general", a))
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(f.sink, "general__general__b")}, summary.Removed)
	assert.Equal(t, []string{"general__general__a"}, f.entries())
	rec, _ := f.record("general")
	assert.Equal(t, []string{filepath.Join(f.sink, "general__general__a")}, rec.InstalledPaths)
}

func TestReinstallPicksUpSourceChanges(t *testing.T) {
	f := newFixture(t)
	a := f.skill("general/a")
	_, err := f.install.Install(context.Background(), f.request("general", a))
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(a.SourcePath, "docs", "notes.txt")))
	require.NoError(t, os.WriteFile(filepath.Join(a.SourcePath, "new.txt"), []byte("new"), 0644))

	_, err = f.install.Install(context.Background(), f.request("general", a))
	require.NoError(t, err)

	dest := filepath.Join(f.sink, "general__general__a")
	assert.NoFileExists(t, filepath.Join(dest, "docs", "notes.txt"))
	assert.FileExists(t, filepath.Join(dest, "new.txt"))
}

func TestInstallOwnershipConflict(t *testing.T) {
	f := newFixture(t)
	foreign := filepath.Join(f.sink, "general__general__b")
	require.NoError(t, os.MkdirAll(foreign, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(foreign, "mine.txt"), []byte("keep"), 0644))

	_, err := f.install.Install(context.Background(), f.request("general", f.skill("general/a"), f.skill("general/b")))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrOwnership))
	assert.Equal(t, errors.KindOwnership, errors.KindOf(err))
	assert.Contains(t, err.Error(), foreign)

	data, err := os.ReadFile(filepath.Join(foreign, "mine.txt"))
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
	assert.Equal(t, []string{"general__general__b"}, f.entries(), "nothing else was written")
	_, ok := f.record("general")
	assert.False(t, ok)
}

func TestInstallOtherPackOwnsDestination(t *testing.T) {
	f := newFixture(t)
	a := f.skill("lint")
	_, err := f.install.Install(context.Background(), f.request("p", a))
	require.NoError(t, err)

	// Same folder name claimed by a second pack with the same prefix.
	req := f.request("q", a)
	req.Plan.Entries[0].Name = "p__lint"
	_, err = f.install.Install(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrOwnership))
}

func TestInstallRejectsAdversarialRecords(t *testing.T) {
	outside := t.TempDir()
	victim := filepath.Join(outside, "victim")
	require.NoError(t, os.MkdirAll(victim, 0755))

	cases := map[string]func(f *fixture) string{
		"absolute outside": func(f *fixture) string { return victim },
		"dot dot":          func(f *fixture) string { return f.sink + "/../" + filepath.Base(outside) + "/victim" },
		"sink root":        func(f *fixture) string { return f.sink },
		"relative":         func(f *fixture) string { return "victim" },
		"through symlink": func(f *fixture) string {
			require.NoError(t, os.Symlink(outside, filepath.Join(f.sink, "escape")))
			return filepath.Join(f.sink, "escape", "victim")
		},
	}

	for name, recorded := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.seedRecord(statestore.Record{
				Sink: "claude", SinkPath: f.sink, Pack: "general",
				InstalledPaths: []string{recorded(f)},
			})

			_, err := f.install.Install(context.Background(), f.request("general", f.skill("general/a")))
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrContainment))
			assert.Equal(t, errors.KindContainment, errors.KindOf(err))
			assert.DirExists(t, victim)
			assert.NoDirExists(t, filepath.Join(f.sink, "general__general__a"))

			_, err = f.install.Uninstall(context.Background(), "claude", f.sink, "general")
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrContainment))
			assert.DirExists(t, victim)
		})
	}
}

func TestInstallRecordedSymlinkIsRemovedAsLink(t *testing.T) {
	f := newFixture(t)
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "precious.txt"), []byte("x"), 0644))
	link := filepath.Join(f.sink, "general__old")
	require.NoError(t, os.Symlink(outside, link))
	f.seedRecord(statestore.Record{Sink: "claude", SinkPath: f.sink, Pack: "general", InstalledPaths: []string{link}})

	summary, err := f.install.Install(context.Background(), f.request("general", f.skill("general/a")))
	require.NoError(t, err)

	assert.Equal(t, []string{link}, summary.Removed)
	_, err = os.Lstat(link)
	assert.True(t, os.IsNotExist(err))
	assert.FileExists(t, filepath.Join(outside, "precious.txt"))
}

func TestInstallDereferencesSymlinks(t *testing.T) {
	f := newFixture(t)
	s := f.skill("tools/lint")
	shared := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(shared, "shared.md"), []byte("shared"), 0644))
	require.NoError(t, os.Symlink(filepath.Join(shared, "shared.md"), filepath.Join(s.SourcePath, "linked.md")))
	require.NoError(t, os.Symlink(shared, filepath.Join(s.SourcePath, "linkeddir")))

	_, err := f.install.Install(context.Background(), f.request("p", s))
	require.NoError(t, err)

	dest := filepath.Join(f.sink, "p__tools__lint")
	info, err := os.Lstat(filepath.Join(dest, "linked.md"))
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())
	info, err = os.Lstat(filepath.Join(dest, "linkeddir"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.FileExists(t, filepath.Join(dest, "linkeddir", "shared.md"))
}

func TestInstallCopyFailureLeavesSinkUntouched(t *testing.T) {
	f := newFixture(t)
	a, b := f.skill("general/a"), f.skill("general/b")
	_, err := f.install.Install(context.Background(), f.request("general", a, b))
	require.NoError(t, err)
	before, _ := f.record("general")

	broken := f.skill("general/c")
	require.NoError(t, os.Symlink(filepath.Join(f.source, "missing"), filepath.Join(broken.SourcePath, "dangling")))

	_, err = f.install.Install(context.Background(), f.request("general", a, broken))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileCopy))

	assert.Equal(t, []string{"general__general__a", "general__general__b"}, f.entries(),
		"stale folder kept and no staging left behind")
	after, _ := f.record("general")
	assert.Equal(t, before, after)
}

func TestInstallCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.install.Install(ctx, f.request("general", f.skill("general/a")))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCancelled))
	_, ok := f.record("general")
	assert.False(t, ok)
}

func TestInstallThroughSymlinkedSink(t *testing.T) {
	f := newFixture(t)
	alias := filepath.Join(t.TempDir(), "sink-alias")
	require.NoError(t, os.Symlink(f.sink, alias))

	req := f.request("general", f.skill("general/a"))
	req.SinkPath = alias
	summary, err := f.install.Install(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, f.sink, summary.SinkPath)

	_, ok := f.record("general")
	assert.True(t, ok, "records are keyed by the resolved sink path")

	_, err = f.install.Uninstall(context.Background(), "claude", alias, "general")
	require.NoError(t, err)
	assert.Empty(t, f.entries())
}

func TestInstallCreatesMissingSink(t *testing.T) {
	f := newFixture(t)
	req := f.request("general", f.skill("general/a"))
	req.SinkPath = filepath.Join(f.sink, "nested", "skills")

	_, err := f.install.Install(context.Background(), req)
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(f.sink, "nested", "skills", "general__general__a"))
}

func TestUninstall(t *testing.T) {
	f := newFixture(t)
	_, err := f.install.Install(context.Background(), f.request("general", f.skill("general/a"), f.skill("general/b")))
	require.NoError(t, err)
	_, err = f.install.Install(context.Background(), f.request("other", f.skill("x")))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(f.sink, "unrelated"), 0755))

	summary, err := f.install.Uninstall(context.Background(), "claude", f.sink, "general")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(f.sink, "general__general__a"),
		filepath.Join(f.sink, "general__general__b"),
	}, summary.Removed)
	assert.Equal(t, []string{"other__x", "unrelated"}, f.entries())

	_, ok := f.record("general")
	assert.False(t, ok)
	_, ok = f.record("other")
	assert.True(t, ok)

	_, err = f.install.Uninstall(context.Background(), "claude", f.sink, "general")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotInstalled))
}

func TestUninstallToleratesMissingFolders(t *testing.T) {
	f := newFixture(t)
	_, err := f.install.Install(context.Background(), f.request("general", f.skill("general/a"), f.skill("general/b")))
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(filepath.Join(f.sink, "general__general__a")))

	summary, err := f.install.Uninstall(context.Background(), "claude", f.sink, "general")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(f.sink, "general__general__b")}, summary.Removed)
	_, ok := f.record("general")
	assert.False(t, ok)
}
