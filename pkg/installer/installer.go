// Package installer reconciles a sink with an install plan.
//
// An install runs in three phases. Validation checks that every stale path
// recorded by the previous install lies inside the sink and that no planned
// destination belongs to someone else. Staging copies every skill into a
// hidden directory inside the sink. Commit deletes stale folders, moves the
// staged folders into place and finally replaces the install record. Nothing
// in the sink changes until validation and staging have both succeeded, and
// the record is written only after every folder is in place.
package installer

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/skillpack/pkg/errors"
	"github.com/arthur-debert/skillpack/pkg/logging"
	"github.com/arthur-debert/skillpack/pkg/planner"
	"github.com/arthur-debert/skillpack/pkg/statestore"
	"github.com/arthur-debert/skillpack/pkg/types"
)

// StagingPrefix starts the name of every staging directory.
const StagingPrefix = ".sp-staging-"

// Request describes one pack going into one sink.
type Request struct {
	Sink     string
	SinkPath string
	Pack     string
	PackFile string
	Plan     *planner.Plan
	Imports  []statestore.ImportRecord
}

// Summary reports what an install or uninstall changed.
type Summary struct {
	Sink     string   `json:"sink"`
	SinkPath string   `json:"sink_path"`
	Pack     string   `json:"pack"`
	Added    []string `json:"added"`
	Updated  []string `json:"updated"`
	Removed  []string `json:"removed"`

	Record *statestore.Record `json:"record,omitempty"`
}

// Installer applies plans to sinks and keeps the state store in step.
type Installer struct {
	fs     types.FS
	store  statestore.Store
	logger zerolog.Logger

	// Now stamps new records.
	Now func() time.Time
}

// New returns an Installer working on fs and persisting to store.
func New(fs types.FS, store statestore.Store) *Installer {
	return &Installer{
		fs:     fs,
		store:  store,
		logger: logging.GetLogger("installer"),
		Now:    time.Now,
	}
}

// ResolveSink creates the sink directory if needed and returns its absolute,
// symlink-free form. All containment checks use this form.
func (in *Installer) ResolveSink(sinkPath string) (string, error) {
	abs, err := filepath.Abs(sinkPath)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "invalid sink path %s", sinkPath)
	}
	if err := in.fs.MkdirAll(abs, 0755); err != nil {
		return "", errors.Wrapf(err, errors.ErrDirCreate, "failed to create sink %s", abs).
			WithDetail("path", abs)
	}
	root, err := in.fs.EvalSymlinks(abs)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "failed to resolve sink %s", abs).
			WithDetail("path", abs)
	}
	return root, nil
}

// Install reconciles one sink with req.Plan and records the result.
func (in *Installer) Install(ctx context.Context, req Request) (*Summary, error) {
	log := in.logger.With().Str("pack", req.Pack).Str("sink", req.Sink).Logger()
	done := logging.LogOperationStart(log, "install")
	defer done()

	root, err := in.ResolveSink(req.SinkPath)
	if err != nil {
		return nil, err
	}
	log = log.With().Str("path", root).Logger()

	unlock, err := in.store.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	state, err := in.store.Load()
	if err != nil {
		return nil, err
	}
	key := statestore.Key{SinkPath: root, Pack: req.Pack}
	prior, _ := state.Find(key)

	// Validation.
	desired := make(map[string]string, len(req.Plan.Entries))
	for _, entry := range req.Plan.Entries {
		desired[filepath.Join(root, entry.Name)] = entry.Name
	}
	var stale []string
	if prior != nil {
		for _, p := range prior.InstalledPaths {
			if _, keep := desired[filepath.Clean(p)]; !keep {
				stale = append(stale, p)
			}
		}
	}
	staleTargets, err := in.containedTargets(root, stale)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Sink: req.Sink, SinkPath: root, Pack: req.Pack,
		Added: []string{}, Updated: []string{}, Removed: []string{}}
	for _, entry := range req.Plan.Entries {
		dest := filepath.Join(root, entry.Name)
		exists := in.exists(dest)
		if exists && !prior.Owns(dest) {
			return nil, errors.Newf(errors.ErrOwnership, "destination %s exists and is not owned by pack %s", dest, req.Pack).
				WithDetail("path", dest).
				WithDetail("skill", entry.Skill.ID).
				WithHint("Remove or rename the folder, or change install.prefix in the pack")
		}
		if prior.Owns(dest) {
			summary.Updated = append(summary.Updated, dest)
		} else {
			summary.Added = append(summary.Added, dest)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCancelled, "install cancelled")
	}

	// Staging.
	staging := filepath.Join(root, StagingPrefix+uuid.NewString())
	if err := in.fs.MkdirAll(staging, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrDirCreate, "failed to create staging directory in %s", root)
	}
	defer func() {
		if err := in.fs.RemoveAll(staging); err != nil {
			log.Warn().Err(err).Str("staging", staging).Msg("Failed to remove staging directory")
		}
	}()

	for _, entry := range req.Plan.Entries {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCancelled, "install cancelled")
		}
		target := filepath.Join(staging, entry.Name)
		if err := in.copyTree(entry.Skill.SourcePath, target, nil); err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileCopy, "failed to copy skill %s", entry.Skill.ID).
				WithDetail("skill", entry.Skill.ID).
				WithDetail("source", entry.Skill.SourcePath)
		}
		log.Debug().Str("skill", entry.Skill.ID).Str("name", entry.Name).Msg("Staged skill")
	}

	// Commit.
	for _, target := range staleTargets {
		if err := in.fs.RemoveAll(target); err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileRemove, "failed to remove stale folder %s", target).
				WithDetail("path", target)
		}
		summary.Removed = append(summary.Removed, target)
		log.Debug().Str("path", target).Msg("Removed stale folder")
	}

	installed := make([]string, 0, len(req.Plan.Entries))
	for _, entry := range req.Plan.Entries {
		dest := filepath.Join(root, entry.Name)
		if in.exists(dest) {
			if err := in.fs.RemoveAll(dest); err != nil {
				return nil, errors.Wrapf(err, errors.ErrFileRemove, "failed to replace %s", dest).
					WithDetail("path", dest)
			}
		}
		if err := in.fs.Rename(filepath.Join(staging, entry.Name), dest); err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileCopy, "failed to move %s into place", entry.Name).
				WithDetail("path", dest)
		}
		installed = append(installed, dest)
	}
	sort.Strings(installed)

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCancelled, "install cancelled before recording state")
	}

	opts := req.Plan.Options
	imports := req.Imports
	if imports == nil {
		imports = []statestore.ImportRecord{}
	}
	record := statestore.Record{
		Sink:           req.Sink,
		SinkPath:       root,
		Pack:           req.Pack,
		PackFile:       req.PackFile,
		Prefix:         opts.Prefix,
		Sep:            opts.Sep,
		Flatten:        opts.Flatten,
		Imports:        imports,
		InstalledPaths: installed,
		InstalledAt:    in.Now().UTC().Truncate(time.Second),
	}
	state.Put(record)
	if err := in.store.Save(state); err != nil {
		return nil, err
	}

	summary.Record = &record
	log.Info().Int("added", len(summary.Added)).Int("updated", len(summary.Updated)).
		Int("removed", len(summary.Removed)).Msg("Installed pack")
	return summary, nil
}

// Uninstall deletes the folders recorded for (sink, pack) and drops the
// record.
func (in *Installer) Uninstall(ctx context.Context, sink, sinkPath, pack string) (*Summary, error) {
	log := in.logger.With().Str("pack", pack).Str("sink", sink).Logger()
	done := logging.LogOperationStart(log, "uninstall")
	defer done()

	root := in.resolveExisting(sinkPath)

	unlock, err := in.store.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	state, err := in.store.Load()
	if err != nil {
		return nil, err
	}
	key := statestore.Key{SinkPath: root, Pack: pack}
	record, ok := state.Find(key)
	if !ok {
		return nil, errors.Newf(errors.ErrNotInstalled, "pack %s is not installed in %s", pack, root).
			WithDetail("pack", pack).
			WithDetail("path", root).
			WithHint("Run sp installed to list installed packs")
	}

	targets, err := in.containedTargets(root, record.InstalledPaths)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCancelled, "uninstall cancelled")
	}

	summary := &Summary{Sink: sink, SinkPath: root, Pack: pack,
		Added: []string{}, Updated: []string{}, Removed: []string{}}
	for _, target := range targets {
		if err := in.fs.RemoveAll(target); err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileRemove, "failed to remove %s", target).
				WithDetail("path", target)
		}
		summary.Removed = append(summary.Removed, target)
	}

	state.Delete(key)
	if err := in.store.Save(state); err != nil {
		return nil, err
	}

	log.Info().Int("removed", len(summary.Removed)).Msg("Uninstalled pack")
	return summary, nil
}

// resolveExisting resolves a sink that may no longer exist without creating
// it.
func (in *Installer) resolveExisting(sinkPath string) string {
	abs, err := filepath.Abs(sinkPath)
	if err != nil {
		abs = filepath.Clean(sinkPath)
	}
	if resolved, err := in.fs.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

func (in *Installer) exists(path string) bool {
	_, err := in.fs.Lstat(path)
	return err == nil
}
