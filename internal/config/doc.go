// Package config loads, normalizes, and validates scribe's TOML
// configuration. Defaults live in defaults.go; user values are merged from
// ~/.config/scribe/config.toml or a scribe.toml in the working directory,
// with ~ expansion applied to every path field and env fallbacks for
// credentials.
package config
