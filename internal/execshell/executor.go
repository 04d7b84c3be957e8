package execshell

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	safeSystemFailureTemplateConstant = "Failure while executing: %s"
	logMessageCommandStartedConstant  = "executing command"
	logMessageCommandFinishedConstant = "command finished"
	logMessageCommandFailedConstant   = "command execution failed"
	logMessageCommandRejectedConstant = "command exited with non-zero status"
	logFieldCommandConstant           = "command"
	logFieldExitCodeConstant          = "exit_code"
	logFieldRoutingModeConstant       = "routing_mode"
	logFieldAttachedConstant          = "attached"
)

// ExecutorOption customizes a ShellExecutor.
type ExecutorOption func(executor *ShellExecutor)

// WithCredentialRedactor sets the redactor applied to error messages and echoed command lines.
func WithCredentialRedactor(redactor CredentialRedactor) ExecutorOption {
	return func(executor *ShellExecutor) {
		executor.translator = NewErrorTranslator(redactor)
	}
}

// WithCommandEventObserver registers an observer for command lifecycle events.
func WithCommandEventObserver(observer CommandEventObserver) ExecutorOption {
	return func(executor *ShellExecutor) {
		if observer != nil {
			executor.observer = observer
		}
	}
}

// WithInheritedStreams replaces the process streams System and SafeSystem attach children to.
func WithInheritedStreams(streams AttachedStreams) ExecutorOption {
	return func(executor *ShellExecutor) {
		executor.inheritedStreams = streams
	}
}

// ShellExecutor runs commands through a CommandRunner, enforces return code checks and
// translates every failure into ReturnCodeError or ExceptionError.
type ShellExecutor struct {
	logger           *zap.Logger
	runner           CommandRunner
	translator       ErrorTranslator
	observer         CommandEventObserver
	inheritedStreams AttachedStreams
}

// NewShellExecutor constructs a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner, options ...ExecutorOption) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	executor := &ShellExecutor{
		logger:     logger,
		runner:     runner,
		translator: NewErrorTranslator(PassThroughRedactor),
		observer:   silentCommandEventObserver{},
		inheritedStreams: AttachedStreams{
			StandardInput:  os.Stdin,
			StandardOutput: os.Stdout,
			StandardError:  os.Stderr,
		},
	}
	for _, option := range options {
		if option != nil {
			option(executor)
		}
	}

	return executor, nil
}

// Redact applies the executor's credential redactor to text.
func (executor *ShellExecutor) Redact(text string) string {
	return executor.translator.Redact(text)
}

// Execute runs command, handing its routed streams to consumer.
// With CheckReturnCode set, a non-zero exit yields ReturnCodeError; every other failure yields ExceptionError.
func (executor *ShellExecutor) Execute(command ShellCommand, consumer StreamConsumer) (ExecutionResult, error) {
	redactedCommandLine := executor.translator.Redact(command.CommandLine())
	routingMode, _ := command.Details.Options.RoutingMode()
	executor.logger.Debug(
		logMessageCommandStartedConstant,
		zap.String(logFieldCommandConstant, redactedCommandLine),
		zap.Int(logFieldRoutingModeConstant, int(routingMode)),
	)
	executor.observer.CommandStarted(command)

	result, runError := executor.runner.Run(command, consumer)
	return executor.conclude(command, redactedCommandLine, result, runError)
}

// Shellout runs command with only standard output routed to consumer.
func (executor *ShellExecutor) Shellout(command ShellCommand, consumer func(standardOutput io.Reader) error) (ExecutionResult, error) {
	options := command.Details.Options
	options.StandardOutputOnly = true
	return executor.Execute(command.WithOptions(options), func(streams ProcessStreams) error {
		if consumer == nil {
			return nil
		}
		return consumer(streams.StandardOutput)
	})
}

// Shellpipe runs command with the routing selected by its options.
func (executor *ShellExecutor) Shellpipe(command ShellCommand, consumer StreamConsumer) (ExecutionResult, error) {
	return executor.Execute(command, consumer)
}

// CaptureOutput runs command with three independent streams, closes its standard input and
// collects standard output and standard error concurrently.
func (executor *ShellExecutor) CaptureOutput(command ShellCommand) (ExecutionResult, error) {
	options := command.Details.Options
	options.StandardOutputOnly = false
	options.MergeStandardError = false

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	result, executionError := executor.Execute(command.WithOptions(options), func(streams ProcessStreams) error {
		if closeError := streams.StandardInput.Close(); closeError != nil {
			return closeError
		}
		captureGroup := errgroup.Group{}
		captureGroup.Go(func() error {
			_, copyError := io.Copy(&standardOutputBuffer, streams.StandardOutput)
			return copyError
		})
		captureGroup.Go(func() error {
			_, copyError := io.Copy(&standardErrorBuffer, streams.StandardError)
			return copyError
		})
		return captureGroup.Wait()
	})

	result.StandardOutput = standardOutputBuffer.String()
	result.StandardError = standardErrorBuffer.String()
	return result, executionError
}

// System runs command attached to the executor's inherited streams and reports whether it succeeded.
// Failing to start the child counts as failure.
func (executor *ShellExecutor) System(command ShellCommand) bool {
	result, runError := executor.runAttached(command, executor.inheritedStreams)
	return runError == nil && result.Success()
}

// SafeSystem behaves like System but returns ReturnCodeError when the command did not succeed.
func (executor *ShellExecutor) SafeSystem(command ShellCommand) error {
	result, runError := executor.runAttached(command, executor.inheritedStreams)
	if runError == nil && result.Success() {
		return nil
	}

	exitCode := result.ExitCode
	if runError != nil && exitCode == 0 {
		exitCode = 1
	}
	escapedCommandLine := executor.translator.Redact(ShellEscapedCommandLine(command.Argv()))
	return ReturnCodeError{
		ExitCode:    exitCode,
		CommandLine: escapedCommandLine,
		Message:     fmt.Sprintf(safeSystemFailureTemplateConstant, escapedCommandLine),
	}
}

// QuietSystem behaves like System with the child's standard output and standard error sent to the null device.
func (executor *ShellExecutor) QuietSystem(command ShellCommand) bool {
	quietStreams := AttachedStreams{StandardInput: executor.inheritedStreams.StandardInput}
	result, runError := executor.runAttached(command, quietStreams)
	return runError == nil && result.Success()
}

func (executor *ShellExecutor) runAttached(command ShellCommand, streams AttachedStreams) (ExecutionResult, error) {
	redactedCommandLine := executor.translator.Redact(command.CommandLine())
	executor.logger.Debug(
		logMessageCommandStartedConstant,
		zap.String(logFieldCommandConstant, redactedCommandLine),
		zap.Bool(logFieldAttachedConstant, true),
	)
	executor.observer.CommandStarted(command)

	result, runError := executor.runner.RunAttached(command, streams)
	return executor.conclude(command, redactedCommandLine, result, runError)
}

func (executor *ShellExecutor) conclude(command ShellCommand, redactedCommandLine string, result ExecutionResult, runError error) (ExecutionResult, error) {
	if runError != nil {
		translatedError := executor.translator.Translate(command, runError)
		executor.logger.Debug(
			logMessageCommandFailedConstant,
			zap.String(logFieldCommandConstant, redactedCommandLine),
			zap.Error(translatedError),
		)
		executor.observer.CommandExecutionFailed(command, translatedError)
		return result, translatedError
	}

	executor.observer.CommandCompleted(command, result)

	if command.Details.Options.CheckReturnCode && !result.Success() {
		translatedError := executor.translator.ReturnCodeFailure(command, result.ExitCode)
		executor.logger.Debug(
			logMessageCommandRejectedConstant,
			zap.String(logFieldCommandConstant, redactedCommandLine),
			zap.Int(logFieldExitCodeConstant, result.ExitCode),
		)
		return result, translatedError
	}

	executor.logger.Debug(
		logMessageCommandFinishedConstant,
		zap.String(logFieldCommandConstant, redactedCommandLine),
		zap.Int(logFieldExitCodeConstant, result.ExitCode),
	)
	return result, nil
}
