package statestore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/skillpack/pkg/errors"
)

func record(sinkPath, pack string, paths ...string) Record {
	return Record{
		Sink:           "claude",
		SinkPath:       sinkPath,
		Pack:           pack,
		PackFile:       "/repo/packs/" + pack + ".yaml",
		Prefix:         pack,
		Sep:            "__",
		Imports:        []ImportRecord{},
		InstalledPaths: paths,
		InstalledAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestLoadMissingIsEmpty(t *testing.T) {
	store := New(afero.NewMemMapFs(), "/home/.skillpack/state.json", "")

	state, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, Version, state.Version)
	assert.Empty(t, state.Installs)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := New(fs, "/home/.skillpack/state.json", "")

	state := NewState()
	state.Put(record("/sinks/b", "general", "/sinks/b/general__a"))
	state.Put(record("/sinks/a", "general", "/sinks/a/general__a", "/sinks/a/general__b"))
	require.NoError(t, store.Save(state))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Installs, 2)
	assert.Equal(t, "/sinks/a", loaded.Installs[0].SinkPath, "records are sorted by sink path")
	assert.Equal(t, state.Installs, loaded.Installs)

	raw, err := afero.ReadFile(fs, "/home/.skillpack/state.json")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"version": 1`)
	assert.Contains(t, string(raw), `"installed_paths"`)
	assert.Contains(t, string(raw), `"installed_at": "2026-01-02T03:04:05Z"`)

	entries, err := afero.ReadDir(fs, "/home/.skillpack")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestPutReplacesRecord(t *testing.T) {
	state := NewState()
	state.Put(record("/s", "p", "/s/p__a", "/s/p__b"))
	state.Put(record("/s", "p", "/s/p__c"))
	state.Put(record("/s", "q", "/s/q__a"))

	require.Len(t, state.Installs, 2)
	rec, ok := state.Find(Key{SinkPath: "/s", Pack: "p"})
	require.True(t, ok)
	assert.Equal(t, []string{"/s/p__c"}, rec.InstalledPaths)
}

func TestFindReturnsCopy(t *testing.T) {
	state := NewState()
	state.Put(record("/s", "p", "/s/p__a"))

	rec, ok := state.Find(Key{SinkPath: "/s", Pack: "p"})
	require.True(t, ok)
	rec.Pack = "changed"

	_, ok = state.Find(Key{SinkPath: "/s", Pack: "p"})
	assert.True(t, ok)
}

func TestDelete(t *testing.T) {
	state := NewState()
	state.Put(record("/s", "p", "/s/p__a"))
	state.Put(record("/t", "p", "/t/p__a"))

	assert.True(t, state.Delete(Key{SinkPath: "/s", Pack: "p"}))
	assert.False(t, state.Delete(Key{SinkPath: "/s", Pack: "p"}))
	_, ok := state.Find(Key{SinkPath: "/s", Pack: "p"})
	assert.False(t, ok)
	assert.Len(t, state.Installs, 1)
}

func TestForSink(t *testing.T) {
	state := NewState()
	state.Put(record("/s", "p"))
	state.Put(record("/s", "q"))
	state.Put(record("/t", "p"))

	assert.Len(t, state.ForSink("/s"), 2)
	assert.Len(t, state.ForSink("/t"), 1)
	assert.Len(t, state.ForSink(""), 3)
	assert.Empty(t, state.ForSink("/none"))
}

func TestOwns(t *testing.T) {
	rec := record("/s", "p", "/s/p__a")
	assert.True(t, rec.Owns("/s/p__a"))
	assert.True(t, rec.Owns("/s/./p__a"))
	assert.False(t, rec.Owns("/s/p__b"))

	var none *Record
	assert.False(t, none.Owns("/s/p__a"))
}

func TestLoadCorrupt(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/state.json", []byte("{not json"), 0644))

	_, err := New(fs, "/state.json", "").Load()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrStateLoad))
	assert.NotEmpty(t, errors.HintOf(err))
}

func TestLoadUnsupportedVersion(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/state.json", []byte(`{"version": 9, "installs": []}`), 0644))

	_, err := New(fs, "/state.json", "").Load()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrStateLoad))
}

func TestLockIsExclusive(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "state.json.lock")
	first := New(afero.NewMemMapFs(), "/state.json", lockPath)
	second := New(afero.NewMemMapFs(), "/state.json", lockPath)

	unlock, err := first.Lock(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	_, err = second.Lock(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrStateLocked))

	unlock()
	unlockAgain, err := second.Lock(context.Background())
	require.NoError(t, err)
	unlockAgain()
}

func TestLockDisabled(t *testing.T) {
	unlock, err := New(afero.NewMemMapFs(), "/state.json", "").Lock(context.Background())
	require.NoError(t, err)
	unlock()
}
