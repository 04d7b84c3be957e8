// Package cli constructs the gistore-shell command-line interface. It wires the
// Cobra command hierarchy, the configuration loader, the zap loggers and the
// shell executor, and exposes subcommands that drive the git toolchain and run
// arbitrary commands through the executor.
package cli
