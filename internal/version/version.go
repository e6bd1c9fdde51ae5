// Package version holds the build-time version string for the CLI.
package version

// Version is overridden at build time via -ldflags.
var Version = "dev"
