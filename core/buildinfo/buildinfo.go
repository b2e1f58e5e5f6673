// Package buildinfo carries version metadata stamped at link time:
//
//	-X 'github.com/m3rciful/partybot/core/buildinfo.Version=v1.2.3'
//	-X 'github.com/m3rciful/partybot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/partybot/core/buildinfo.Date=2026-10-19T12:00:00Z'
package buildinfo

var (
	// Version reports the semantic version or tag of the build.
	Version = "dev"
	// Commit reports the source control commit used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)
