// Package config loads applytrack settings.
//
// Settings come from, in increasing precedence: built-in defaults, a YAML
// file (with ${VAR} references expanded from the environment), and
// APPLYTRACK_* environment variables. Command-line flags are applied on
// top by the cmd package.
package config
