// Package config loads the CLI settings from a TOML file and the
// ANONYMIZER_* environment variables.
package config
