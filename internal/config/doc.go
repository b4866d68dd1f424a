// Package config turns command-line flags and an optional JSON or YAML file
// into a validated run configuration.
//
// Precedence is defaults, then the config file, then explicitly set flags.
// Validation reports every problem at once and happens before any load is
// generated.
package config
