// Package cliversion parses and compares the build's version string, used
// by both the core CLI's "-version" banner and the self-update helper.
// The teacher module shadows github.com/blang/semver with a hand-rolled
// pkg/semver instead of importing it; this package imports the real
// dependency the go.mod already declares.
package cliversion

import "github.com/blang/semver"

// Version is set at build time via -ldflags "-X ...cliversion.Version=...".
var Version = "0.0.0-dev"

// Parse parses s as a semantic version, matching blang/semver's relaxed
// acceptance of a leading "v".
func Parse(s string) (semver.Version, error) {
	if len(s) > 0 && s[0] == 'v' {
		s = s[1:]
	}
	return semver.Parse(s)
}

// Current returns the parsed build version, or the zero version if Version
// is not valid semver (e.g. an unset dev build).
func Current() semver.Version {
	v, err := Parse(Version)
	if err != nil {
		return semver.Version{}
	}
	return v
}

// IsNewer reports whether candidate is a strictly newer version than base.
func IsNewer(candidate, base semver.Version) bool {
	return candidate.GT(base)
}

// CurrentIsOlderThan reports whether the build's current version is
// strictly older than candidate.
func CurrentIsOlderThan(candidate semver.Version) bool {
	return IsNewer(candidate, Current())
}
