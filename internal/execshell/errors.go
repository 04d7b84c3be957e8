package execshell

import (
	"errors"
	"fmt"
)

const (
	stageErrorTemplateConstant         = "%s: %v"
	loggerNotConfiguredMessageConstant = "logger not configured"
	runnerNotConfiguredMessageConstant = "command runner not configured"
	unknownStageFailureMessageConstant = "unknown error"
)

var (
	// ErrLoggerNotConfigured indicates a ShellExecutor was requested without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates a ShellExecutor was requested without a runner.
	ErrCommandRunnerNotConfigured = errors.New(runnerNotConfiguredMessageConstant)
)

// ExecutionStage names the phase of an invocation in which a failure occurred.
type ExecutionStage string

// Execution stages reported by StageError.
const (
	ExecutionStageSpawn   ExecutionStage = ExecutionStage("spawn")
	ExecutionStageConsume ExecutionStage = ExecutionStage("consume")
	ExecutionStageStream  ExecutionStage = ExecutionStage("stream")
	ExecutionStageWait    ExecutionStage = ExecutionStage("wait")
	ExecutionStageClose   ExecutionStage = ExecutionStage("close")
)

// StageError is the raw failure a CommandRunner reports before translation.
type StageError struct {
	Stage ExecutionStage
	Cause error
}

func newStageError(stage ExecutionStage, cause error) StageError {
	return StageError{Stage: stage, Cause: cause}
}

// Error describes the failed stage and its cause.
func (stageError StageError) Error() string {
	if stageError.Cause == nil {
		return fmt.Sprintf(stageErrorTemplateConstant, stageError.Stage, unknownStageFailureMessageConstant)
	}
	return fmt.Sprintf(stageErrorTemplateConstant, stageError.Stage, stageError.Cause)
}

// Unwrap exposes the underlying failure.
func (stageError StageError) Unwrap() error {
	return stageError.Cause
}

// ReturnCodeError reports a child that ran and exited with a non-zero status while a check was requested.
type ReturnCodeError struct {
	ExitCode    int
	CommandLine string
	Message     string
}

// Error returns the diagnostic message.
func (returnCodeError ReturnCodeError) Error() string {
	return returnCodeError.Message
}

// ExceptionError reports any other failure around running a command: spawning it,
// streaming its input or output, or waiting for it.
type ExceptionError struct {
	CommandLine string
	Message     string
	Cause       error
}

// Error returns the diagnostic message.
func (exceptionError ExceptionError) Error() string {
	return exceptionError.Message
}

// Unwrap exposes the underlying failure.
func (exceptionError ExceptionError) Unwrap() error {
	return exceptionError.Cause
}
