// Package config loads the gradenotify YAML configuration file, applies
// defaults and environment overrides, and validates the result.
package config
