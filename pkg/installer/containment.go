package installer

import (
	"path/filepath"

	"github.com/arthur-debert/skillpack/pkg/errors"
	"github.com/arthur-debert/skillpack/pkg/paths"
)

// containedTargets checks that every path lies strictly inside root and
// returns the existing ones, with their parent directories resolved. One
// violation fails the whole batch so nothing is deleted.
//
// The lexical check rejects absolute escapes and ".." segments. Resolving
// the parent catches a symlinked directory inside the sink that points
// elsewhere. The final component itself is never followed: a recorded
// symlink is removed as a link.
func (in *Installer) containedTargets(root string, recorded []string) ([]string, error) {
	var targets []string
	for _, raw := range recorded {
		if !filepath.IsAbs(raw) {
			return nil, violation(root, raw, "path is not absolute")
		}
		clean := filepath.Clean(raw)
		if !paths.IsWithin(root, clean) {
			return nil, violation(root, raw, "path is outside the sink")
		}

		parent, err := in.fs.EvalSymlinks(filepath.Dir(clean))
		if err != nil {
			// Missing parent: nothing left to delete.
			in.logger.Debug().Str("path", clean).Msg("Recorded path no longer exists")
			continue
		}
		if parent != root && !paths.IsWithin(root, parent) {
			return nil, violation(root, raw, "path resolves outside the sink through "+parent)
		}

		target := filepath.Join(parent, filepath.Base(clean))
		if !in.exists(target) {
			in.logger.Debug().Str("path", target).Msg("Recorded path no longer exists")
			continue
		}
		targets = append(targets, target)
	}
	return targets, nil
}

func violation(root, path, reason string) error {
	return errors.Newf(errors.ErrContainment, "refusing to delete %s: %s", path, reason).
		WithDetail("path", path).
		WithDetail("sink", root).
		WithHint("The install record looks corrupted; inspect the state file before retrying")
}
