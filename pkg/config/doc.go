// Package config loads skillpack's layered configuration with koanf.
//
// Layers, last one wins:
//  1. embedded defaults (embedded/defaults.toml)
//  2. the user file in the skillpack home: config.toml, then config.yaml
//  3. environment variables SKILLPACK_SINKS_<NAME>
//
// The only configurable surface today is the sink table: agent name to the
// directory its skills are installed into.
package config
