// Package config loads engine configuration from defaults, an optional
// YAML file and SPECTABLE_* environment variables.
package config
