// Package version holds the current version of the cadenza command.
package version

// Version is overridden at link time for release builds.
var Version = "dev"
