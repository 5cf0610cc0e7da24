// Package version reports build information for the graphstep binary.
//
// Version, git commit, branch and build time are set at compile time via
// -ldflags and filled in from the embedded VCS stamp when absent:
//
//	go build -ldflags "-X github.com/kbukum/graphstep/version.Version=1.0.0"
package version
