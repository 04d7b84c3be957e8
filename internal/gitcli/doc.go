// Package gitcli locates the git executable and answers the questions the
// rest of the application asks about it: which git to run, which version it
// is, which gistore tasks are registered in git configuration, and whether a
// directory holds a git repository.
//
// Toolchain caches the located executable and the parsed version after the
// first successful lookup. Every command goes through an execshell executor.
package gitcli
