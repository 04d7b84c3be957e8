// Package utils exposes the CLI plumbing shared by every subcommand.
//
// It houses ConfigurationLoader and LoggerFactory, which integrate Viper,
// environment variables and zap logging, plus small writer and context helpers.
package utils
