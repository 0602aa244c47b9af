// Package statestore persists install records.
//
// The store is a single JSON document holding one record per (sink path,
// pack name). It is read once when an operation starts and rewritten once
// when it ends; writes go to a temporary file that is synced and renamed
// over the previous document. Concurrent processes are serialized with an
// advisory lock file next to the document.
package statestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/arthur-debert/skillpack/pkg/errors"
	"github.com/arthur-debert/skillpack/pkg/logging"
)

// Version is the current document version.
const Version = 1

// ImportRecord pins one import of an installed pack.
type ImportRecord struct {
	Repo   string `json:"repo"`
	Ref    string `json:"ref,omitempty"`
	Commit string `json:"commit"`
}

// Record describes one pack installed into one sink.
type Record struct {
	Sink     string `json:"sink"`
	SinkPath string `json:"sink_path"`
	Pack     string `json:"pack"`
	PackFile string `json:"pack_file"`
	Prefix   string `json:"prefix"`
	Sep      string `json:"sep"`
	Flatten  bool   `json:"flatten"`

	Imports []ImportRecord `json:"imports"`
	// InstalledPaths are absolute, sorted folder paths inside SinkPath.
	InstalledPaths []string  `json:"installed_paths"`
	InstalledAt    time.Time `json:"installed_at"`
}

// Key identifies a record.
type Key struct {
	SinkPath string
	Pack     string
}

// Key returns the record key.
func (r Record) Key() Key {
	return Key{SinkPath: r.SinkPath, Pack: r.Pack}
}

// Owns reports whether path is one of the recorded folders.
func (r *Record) Owns(path string) bool {
	if r == nil {
		return false
	}
	clean := filepath.Clean(path)
	for _, p := range r.InstalledPaths {
		if filepath.Clean(p) == clean {
			return true
		}
	}
	return false
}

// State is the whole document.
type State struct {
	Version  int      `json:"version"`
	Installs []Record `json:"installs"`
}

// NewState returns an empty document.
func NewState() *State {
	return &State{Version: Version, Installs: []Record{}}
}

// Find returns the record stored under key.
func (s *State) Find(key Key) (*Record, bool) {
	for i := range s.Installs {
		if s.Installs[i].Key() == key {
			rec := s.Installs[i]
			return &rec, true
		}
	}
	return nil, false
}

// Put stores rec, replacing any record with the same key.
func (s *State) Put(rec Record) {
	for i := range s.Installs {
		if s.Installs[i].Key() == rec.Key() {
			s.Installs[i] = rec
			return
		}
	}
	s.Installs = append(s.Installs, rec)
	s.sort()
}

// Delete removes the record stored under key and reports whether it existed.
func (s *State) Delete(key Key) bool {
	for i := range s.Installs {
		if s.Installs[i].Key() == key {
			s.Installs = append(s.Installs[:i], s.Installs[i+1:]...)
			return true
		}
	}
	return false
}

// ForSink returns the records of one sink path; an empty path returns all.
func (s *State) ForSink(sinkPath string) []Record {
	out := []Record{}
	for _, rec := range s.Installs {
		if sinkPath == "" || rec.SinkPath == sinkPath {
			out = append(out, rec)
		}
	}
	return out
}

func (s *State) sort() {
	sort.SliceStable(s.Installs, func(i, j int) bool {
		a, b := s.Installs[i], s.Installs[j]
		if a.SinkPath != b.SinkPath {
			return a.SinkPath < b.SinkPath
		}
		return a.Pack < b.Pack
	})
}

// Store loads and saves the document.
type Store interface {
	Load() (*State, error)
	Save(state *State) error
	// Lock takes the advisory lock, waiting until ctx is done.
	Lock(ctx context.Context) (unlock func(), err error)
	Path() string
}

type fileStore struct {
	fs       afero.Fs
	path     string
	lockPath string
	logger   zerolog.Logger
}

// New returns a Store backed by fs. lockPath is an OS path; an empty
// lockPath disables locking.
func New(fs afero.Fs, path, lockPath string) Store {
	return &fileStore{
		fs:       fs,
		path:     path,
		lockPath: lockPath,
		logger:   logging.GetLogger("statestore").With().Str("path", path).Logger(),
	}
}

func (s *fileStore) Path() string { return s.path }

// Load reads the document. A missing file is an empty state.
func (s *fileStore) Load() (*State, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug().Msg("No state file, starting empty")
			return NewState(), nil
		}
		return nil, errors.Wrapf(err, errors.ErrStateLoad, "failed to read state %s", s.path)
	}

	state := NewState()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, errors.Wrapf(err, errors.ErrStateLoad, "failed to parse state %s", s.path).
			WithDetail("path", s.path).
			WithHint("Fix or remove the state file; installed folders will then be treated as unowned")
	}
	if state.Version != Version {
		return nil, errors.Newf(errors.ErrStateLoad, "unsupported state version %d in %s", state.Version, s.path).
			WithDetail("version", state.Version)
	}
	if state.Installs == nil {
		state.Installs = []Record{}
	}
	state.sort()
	s.logger.Debug().Int("records", len(state.Installs)).Msg("Loaded state")
	return state, nil
}

// Save replaces the document atomically.
func (s *fileStore) Save(state *State) error {
	state.Version = Version
	state.sort()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrStateWrite, "failed to encode state")
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create state directory %s", dir)
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, errors.ErrStateWrite, "failed to create temporary state file in %s", dir)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = s.fs.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.Wrap(err, errors.ErrStateWrite, "failed to write state")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.Wrap(err, errors.ErrStateWrite, "failed to sync state")
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.Wrap(err, errors.ErrStateWrite, "failed to close state")
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		cleanup()
		return errors.Wrapf(err, errors.ErrStateWrite, "failed to replace state %s", s.path)
	}
	s.syncDir(dir)

	s.logger.Debug().Int("records", len(state.Installs)).Msg("Saved state")
	return nil
}

// syncDir makes the rename durable where the platform allows it.
func (s *fileStore) syncDir(dir string) {
	d, err := s.fs.Open(dir)
	if err != nil {
		return
	}
	defer func() { _ = d.Close() }()
	if err := d.Sync(); err != nil {
		s.logger.Trace().Err(err).Msg("Directory sync not supported")
	}
}

// Lock takes an exclusive lock on the lock file, polling until ctx is done.
func (s *fileStore) Lock(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCancelled, "cancelled before taking the state lock")
	}
	if s.lockPath == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.lockPath), 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrDirCreate, "failed to create lock directory for %s", s.lockPath)
	}

	lock := flock.New(s.lockPath)
	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil || !locked {
		e := errors.Newf(errors.ErrStateLocked, "state is locked by another process: %s", s.lockPath).
			WithDetail("lock", s.lockPath).
			WithHint("Wait for the other sp command to finish")
		e.Wrapped = err
		return nil, e
	}
	s.logger.Trace().Str("lock", s.lockPath).Msg("Acquired state lock")

	return func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to release state lock")
		}
	}, nil
}
