// Package config loads, normalizes, and validates kfntool configuration.
//
// Settings come from an optional TOML file (by default
// ~/.config/kfntools/config.toml, or kfntools.toml in the working
// directory). A missing file yields the built-in defaults.
package config
