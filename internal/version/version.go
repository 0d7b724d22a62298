// Package version carries build metadata stamped by ldflags.
package version

var (
	// Version is the current application version.
	// It should be populated by the build system (ldflags).
	Version = "v0.1.0"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// String returns the version with commit and date when they are known.
func String() string {
	s := Version
	if Commit != "unknown" {
		s += " (" + Commit
		if Date != "unknown" {
			s += ", " + Date
		}
		s += ")"
	}
	return s
}
