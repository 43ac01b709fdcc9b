// SPDX-License-Identifier: MIT

// Package version carries build metadata for the client and CLI.
package version

var (
	// Version is the current release.
	// It should be populated by the build system (ldflags).
	Version = "v0.1.0"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)
