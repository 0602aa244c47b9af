package paths

import (
	"path/filepath"
	"strings"

	"github.com/arthur-debert/skillpack/pkg/errors"
)

// IsWithin reports whether child lies strictly below parent. Both paths are
// cleaned first; no symlinks are resolved.
func IsWithin(parent, child string) bool {
	rel, err := filepath.Rel(filepath.Clean(parent), filepath.Clean(child))
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}

// ValidateFolderName ensures name can be used as a single directory entry.
func ValidateFolderName(name string) error {
	if name == "" {
		return errors.New(errors.ErrNameInvalid, "folder name cannot be empty")
	}
	if name == "." || name == ".." {
		return errors.Newf(errors.ErrNameInvalid, "folder name cannot be %q", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return errors.Newf(errors.ErrNameInvalid, "folder name %q cannot contain path separators", name)
	}
	for _, r := range name {
		if r < 32 {
			return errors.Newf(errors.ErrNameInvalid, "folder name %q contains control characters", name)
		}
	}
	return nil
}
