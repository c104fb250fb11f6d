// Package config loads and validates application settings from defaults,
// an optional YAML file and TASKMANAGER_* environment variables.
package config
