// Package filesystem provides implementations of types.FS: the real OS
// filesystem and an afero-backed one used by tests.
package filesystem
