// Package config loads, validates, and normalizes the TOML configuration for
// the roastreel daemon and CLI.
//
// Load resolves the config path (explicit flag, ~/.config/roastreel, or a
// project-local roastreel.toml), merges file values over Default(), expands
// paths, and validates the result. An absent file is not an error: defaults
// plus the GEMINI_API_KEY environment variable are enough to run.
package config
