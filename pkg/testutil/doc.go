// Package testutil provides test environments for skillpack.
//
// A TestEnvironment lays out an isolated skill repository, a skillpack home
// and a sinks directory under t.TempDir(), and points HOME and
// SKILLPACK_HOME at them. Imports are served by FakeGit so tests never touch
// the network.
package testutil
