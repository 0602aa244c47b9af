// Package types holds the data model shared by every skillpack stage:
// skills and their origins, pack definitions, install options and the
// filesystem abstraction used by discovery, the installer and the state
// store.
package types
