// Package config loads the parley client configuration from YAML with
// environment variable expansion and human-readable duration strings.
package config
