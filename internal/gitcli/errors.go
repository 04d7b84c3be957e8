package gitcli

import (
	"errors"
	"fmt"
)

const (
	notFoundMessageTemplateConstant = "Please install %s first."
	unknownGitVersionMessage        = "unable to determine git version"
	executorNotConfiguredMessage    = "shell executor not configured"
)

var (
	// ErrUnknownGitVersion indicates `git --version` printed something that is not a version line.
	ErrUnknownGitVersion = errors.New(unknownGitVersionMessage)
	// ErrExecutorNotConfigured indicates a Toolchain was requested without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessage)
)

// NotFoundError reports an executable missing from the search path.
type NotFoundError struct {
	Command    string
	SearchPath string
}

// Error returns the installation hint shown to users.
func (notFoundError NotFoundError) Error() string {
	return fmt.Sprintf(notFoundMessageTemplateConstant, notFoundError.Command)
}
