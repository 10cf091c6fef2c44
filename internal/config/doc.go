// Package config loads, validates, and normalizes the bindery configuration
// file. Configuration lives in a TOML file, by default at
// ~/.config/bindery/config.toml, with every path field expanded to an
// absolute path during load.
package config
