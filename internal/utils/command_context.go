package utils

import (
	"context"

	"github.com/temirov/gistore/internal/execshell"
	"github.com/temirov/gistore/internal/gitcli"
)

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	shellExecutorContextKeyConstant         = commandContextKey("shellExecutor")
	gitToolchainContextKeyConstant          = commandContextKey("gitToolchain")
)

type commandContextKey string

// CommandContextAccessor manages the services stored in command execution contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath attaches the configuration file path to the provided context.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	return context.WithValue(ensureContext(parentContext), configurationFilePathContextKeyConstant, configurationFilePath)
}

// ConfigurationFilePath extracts the configuration file path from the provided context.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	configurationFilePath, configurationFilePathAvailable := executionContext.Value(configurationFilePathContextKeyConstant).(string)
	if !configurationFilePathAvailable {
		return "", false
	}
	return configurationFilePath, true
}

// WithShellExecutor attaches the configured shell executor to the provided context.
func (accessor CommandContextAccessor) WithShellExecutor(parentContext context.Context, executor *execshell.ShellExecutor) context.Context {
	return context.WithValue(ensureContext(parentContext), shellExecutorContextKeyConstant, executor)
}

// ShellExecutor extracts the shell executor from the provided context.
func (accessor CommandContextAccessor) ShellExecutor(executionContext context.Context) (*execshell.ShellExecutor, bool) {
	if executionContext == nil {
		return nil, false
	}
	executor, executorAvailable := executionContext.Value(shellExecutorContextKeyConstant).(*execshell.ShellExecutor)
	return executor, executorAvailable && executor != nil
}

// WithGitToolchain attaches the git toolchain to the provided context.
func (accessor CommandContextAccessor) WithGitToolchain(parentContext context.Context, toolchain *gitcli.Toolchain) context.Context {
	return context.WithValue(ensureContext(parentContext), gitToolchainContextKeyConstant, toolchain)
}

// GitToolchain extracts the git toolchain from the provided context.
func (accessor CommandContextAccessor) GitToolchain(executionContext context.Context) (*gitcli.Toolchain, bool) {
	if executionContext == nil {
		return nil, false
	}
	toolchain, toolchainAvailable := executionContext.Value(gitToolchainContextKeyConstant).(*gitcli.Toolchain)
	return toolchain, toolchainAvailable && toolchain != nil
}

func ensureContext(parentContext context.Context) context.Context {
	if parentContext == nil {
		return context.Background()
	}
	return parentContext
}
