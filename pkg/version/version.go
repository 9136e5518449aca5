// Package version exposes the build version reported on /api/version.
package version

// Version is the current release identifier.
const Version = "0.3.0"
