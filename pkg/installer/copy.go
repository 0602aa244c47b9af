package installer

import (
	"fmt"
	"path/filepath"
)

// copyTree copies src to dst, following symlinks so the copy holds real
// files and directories. ancestors carries the resolved directories on the
// current path to stop symlink cycles.
func (in *Installer) copyTree(src, dst string, ancestors []string) error {
	info, err := in.fs.Stat(src)
	if err != nil {
		return err
	}

	switch {
	case info.IsDir():
		resolved, err := in.fs.EvalSymlinks(src)
		if err != nil {
			return err
		}
		for _, a := range ancestors {
			if a == resolved {
				return fmt.Errorf("symlink cycle at %s", src)
			}
		}
		if err := in.fs.MkdirAll(dst, info.Mode().Perm()|0700); err != nil {
			return err
		}
		entries, err := in.fs.ReadDir(src)
		if err != nil {
			return err
		}
		ancestors = append(ancestors, resolved)
		for _, entry := range entries {
			name := entry.Name()
			if err := in.copyTree(filepath.Join(src, name), filepath.Join(dst, name), ancestors); err != nil {
				return err
			}
		}
		return nil

	case info.Mode().IsRegular():
		data, err := in.fs.ReadFile(src)
		if err != nil {
			return err
		}
		return in.fs.WriteFile(dst, data, info.Mode().Perm())

	default:
		in.logger.Debug().Str("path", src).Str("mode", info.Mode().String()).Msg("Skipping special file")
		return nil
	}
}
