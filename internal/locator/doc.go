// Package locator resolves executable names against an ordered search path,
// the way a shell consults PATH, without executing anything.
package locator
