// Package paths centralizes every location skillpack reads or writes: the
// skillpack home (config, state, lock, git cache), the skill repository
// root and its skills/ and packs/ directories.
package paths
