// Package version parses dotted integer version strings such as the one
// reported by `git --version` and orders them component by component.
package version
