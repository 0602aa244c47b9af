// Package commands provides the high-level operations behind the sp CLI.
//
// Each exported function takes an *Env and an options struct and returns a
// result value that pkg/output knows how to render. Commands never print.
package commands

import (
	"time"

	"github.com/spf13/afero"

	"github.com/arthur-debert/skillpack/pkg/config"
	"github.com/arthur-debert/skillpack/pkg/filesystem"
	"github.com/arthur-debert/skillpack/pkg/gitsource"
	"github.com/arthur-debert/skillpack/pkg/paths"
	"github.com/arthur-debert/skillpack/pkg/statestore"
	"github.com/arthur-debert/skillpack/pkg/types"
)

// Env bundles the collaborators every command works with.
type Env struct {
	FS    types.FS
	Paths paths.Paths
	Git   gitsource.Materializer
	Store statestore.Store
	// Now stamps install records. Nil means time.Now.
	Now func() time.Time

	cfg *config.Detail
}

// NewEnv wires the real filesystem, git and state store.
func NewEnv(opts paths.Options) (*Env, error) {
	p, err := paths.New(opts)
	if err != nil {
		return nil, err
	}
	return &Env{
		FS:    filesystem.NewOS(),
		Paths: p,
		Git:   gitsource.New(gitsource.Options{CacheDir: p.CacheDir()}),
		Store: statestore.New(afero.NewOsFs(), p.StatePath(), p.LockPath()),
	}, nil
}

// ConfigDetail loads the layered configuration once.
func (e *Env) ConfigDetail() (*config.Detail, error) {
	if e.cfg != nil {
		return e.cfg, nil
	}
	detail, err := config.LoadDetail(e.Paths.ConfigFiles())
	if err != nil {
		return nil, err
	}
	e.cfg = detail
	return detail, nil
}

// Config returns the effective configuration.
func (e *Env) Config() (*config.Config, error) {
	detail, err := e.ConfigDetail()
	if err != nil {
		return nil, err
	}
	return detail.Config(), nil
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}
