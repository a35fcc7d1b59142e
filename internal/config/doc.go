// Package config loads, merges, and validates the application configuration
// for both the sync server and the sync client.
//
// Values are collected from environment variables, command-line flags, and
// an optional JSON file, merged in that order with mergo (first non-zero
// value wins), and finally validated by the consuming view (ServerConfig or
// ClientConfig).
package config
