package version

import (
	"runtime"
	"time"
)

// Build information. Populated at build-time via -ldflags.
var (
	// Version is the current version of the application. (ex: v0.3.0)
	Version = "dev"
	// Commit is the git commit hash of the build. (ex: 1b5a2fd)
	Commit = "none"
	// BuildDate is the date of the build. (ex: 2026-01-12T14:03:11Z)
	BuildDate = time.Now().Format(time.RFC3339)
	// GoVersion is the version of Go used to build the binary.
	GoVersion = runtime.Version()
)
