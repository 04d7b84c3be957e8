package execshell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

const (
	environmentAssignmentSeparatorConstant = "="
	environmentAssignmentTemplateConstant  = "%s%s%s"
	localeAllEnvironmentNameConstant       = "LC_ALL"
	localeLanguageEnvironmentNameConstant  = "LANG"
	localeLanguageListEnvironmentConstant  = "LANGUAGE"
	localeCategoryPrefixConstant           = "LC_"
	neutralLocaleValueConstant             = "C"
)

// CommandRunner executes shell commands.
type CommandRunner interface {
	// Run spawns the command, routes its streams to consumer and waits for it to exit.
	// A non-zero exit is reported through the result only.
	Run(command ShellCommand, consumer StreamConsumer) (ExecutionResult, error)
	// RunAttached spawns the command connected to the supplied streams and waits for it to exit.
	RunAttached(command ShellCommand, streams AttachedStreams) (ExecutionResult, error)
}

// AttachedStreams connects a child directly to existing readers and writers.
// Nil fields connect the corresponding child stream to the null device.
type AttachedStreams struct {
	StandardInput  io.Reader
	StandardOutput io.Writer
	StandardError  io.Writer
}

// ExecutionResult reports how a child exited. StandardOutput and StandardError are
// only populated by helpers that buffer output, such as ShellExecutor.CaptureOutput.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// Success reports whether the child exited with status zero.
func (result ExecutionResult) Success() bool {
	return result.ExitCode == 0
}

// OSCommandRunner executes commands using the operating system facilities.
//
// The runner owns every pipe it opens. Once the consumer returns, standard input
// is closed, unread output is drained while the child is waited for, and all
// handles are closed. When the consumer fails, the handles are closed before
// waiting so a child still writing receives a broken pipe instead of blocking.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run executes the supplied command using os/exec.
func (runner *OSCommandRunner) Run(command ShellCommand, consumer StreamConsumer) (ExecutionResult, error) {
	if validationError := command.validate(); validationError != nil {
		return ExecutionResult{}, newStageError(ExecutionStageSpawn, validationError)
	}

	routingMode, routingError := command.Details.Options.RoutingMode()
	if routingError != nil {
		return ExecutionResult{}, newStageError(ExecutionStageSpawn, routingError)
	}

	executable := runner.buildExecutable(command)
	pipes, pipeError := openPipes(executable, routingMode)
	if pipeError != nil {
		return ExecutionResult{}, newStageError(ExecutionStageSpawn, pipeError)
	}
	started := false
	defer func() {
		recovered := recover()
		_ = pipes.closeChildEnds()
		_ = pipes.closeParentHandles()
		if recovered == nil {
			return
		}
		// A panicking consumer still must not leave the child unreaped.
		if started {
			_ = executable.Wait()
		}
		panic(recovered)
	}()

	if startError := executable.Start(); startError != nil {
		return ExecutionResult{}, newStageError(ExecutionStageSpawn, multierr.Combine(startError, pipes.closeChildEnds(), pipes.closeParentHandles()))
	}
	started = true

	if closeError := pipes.closeChildEnds(); closeError != nil {
		abandonError := runner.abandon(executable, pipes)
		return ExecutionResult{}, newStageError(ExecutionStageSpawn, multierr.Append(closeError, abandonError))
	}

	var consumerError error
	if consumer != nil {
		consumerError = consumer(pipes.streams)
	}
	if consumerError != nil {
		result, abandonError := runner.abandonWithResult(executable, pipes)
		return result, newStageError(ExecutionStageConsume, multierr.Append(consumerError, abandonError))
	}

	return runner.finish(executable, pipes)
}

// RunAttached executes the command with its streams connected directly to the supplied ones.
func (runner *OSCommandRunner) RunAttached(command ShellCommand, streams AttachedStreams) (ExecutionResult, error) {
	if validationError := command.validate(); validationError != nil {
		return ExecutionResult{}, newStageError(ExecutionStageSpawn, validationError)
	}

	executable := runner.buildExecutable(command)
	executable.Stdin = streams.StandardInput
	executable.Stdout = streams.StandardOutput
	executable.Stderr = streams.StandardError

	if startError := executable.Start(); startError != nil {
		return ExecutionResult{}, newStageError(ExecutionStageSpawn, startError)
	}

	return waitForExit(executable)
}

func (runner *OSCommandRunner) buildExecutable(command ShellCommand) *exec.Cmd {
	commandArguments := append([]string{}, command.Details.Arguments...)
	executable := exec.Command(string(command.Name), commandArguments...)

	if len(command.Details.WorkingDirectory) > 0 {
		executable.Dir = command.Details.WorkingDirectory
	}

	if command.Details.Options.WithoutLocale || len(command.Details.EnvironmentVariables) > 0 {
		executable.Env = buildEnvironment(os.Environ(), command.Details)
	}

	return executable
}

func (runner *OSCommandRunner) finish(executable *exec.Cmd, pipes *pipeSet) (ExecutionResult, error) {
	inputCloseError := pipes.closeStandardInput()
	drainGroup := pipes.drainOutputs()

	result, waitError := waitForExit(executable)
	drainError := drainGroup.Wait()
	closeError := pipes.closeParentHandles()

	switch {
	case waitError != nil:
		return result, waitError
	case drainError != nil:
		return result, newStageError(ExecutionStageStream, drainError)
	case inputCloseError != nil && !errors.Is(inputCloseError, os.ErrClosed):
		return result, newStageError(ExecutionStageStream, inputCloseError)
	case closeError != nil:
		return result, newStageError(ExecutionStageClose, closeError)
	default:
		return result, nil
	}
}

func (runner *OSCommandRunner) abandonWithResult(executable *exec.Cmd, pipes *pipeSet) (ExecutionResult, error) {
	closeError := pipes.closeParentHandles()
	result, waitError := waitForExit(executable)
	return result, multierr.Append(closeError, waitError)
}

func (runner *OSCommandRunner) abandon(executable *exec.Cmd, pipes *pipeSet) error {
	_, abandonError := runner.abandonWithResult(executable, pipes)
	return abandonError
}

func waitForExit(executable *exec.Cmd) (ExecutionResult, error) {
	waitError := executable.Wait()
	if waitError != nil {
		exitError := &exec.ExitError{}
		if errors.As(waitError, &exitError) {
			return ExecutionResult{ExitCode: exitError.ExitCode()}, nil
		}
		return ExecutionResult{}, newStageError(ExecutionStageWait, waitError)
	}
	return ExecutionResult{ExitCode: executable.ProcessState.ExitCode()}, nil
}

func openPipes(executable *exec.Cmd, routingMode RoutingMode) (*pipeSet, error) {
	pipes := &pipeSet{}

	if routingMode != RoutingModeStandardOutputOnly {
		inputPipe, inputPipeError := openPipePair()
		if inputPipeError != nil {
			return nil, inputPipeError
		}
		executable.Stdin = inputPipe.readEnd
		pipes.childEnds = append(pipes.childEnds, inputPipe.readEnd)
		pipes.standardInput = newStreamHandle(inputPipe.writeEnd)
		pipes.streams.StandardInput = pipes.standardInput
	}

	outputPipe, outputPipeError := openPipePair()
	if outputPipeError != nil {
		return nil, multierr.Append(outputPipeError, pipes.closeAll())
	}
	executable.Stdout = outputPipe.writeEnd
	pipes.childEnds = append(pipes.childEnds, outputPipe.writeEnd)
	outputHandle := newStreamHandle(outputPipe.readEnd)
	pipes.outputHandles = append(pipes.outputHandles, outputHandle)
	pipes.streams.StandardOutput = outputHandle

	switch routingMode {
	case RoutingModeMergedStandardError:
		executable.Stderr = outputPipe.writeEnd
	case RoutingModeThreeStreams:
		errorPipe, errorPipeError := openPipePair()
		if errorPipeError != nil {
			return nil, multierr.Append(errorPipeError, pipes.closeAll())
		}
		executable.Stderr = errorPipe.writeEnd
		pipes.childEnds = append(pipes.childEnds, errorPipe.writeEnd)
		errorHandle := newStreamHandle(errorPipe.readEnd)
		pipes.outputHandles = append(pipes.outputHandles, errorHandle)
		pipes.streams.StandardError = errorHandle
	}

	return pipes, nil
}

func buildEnvironment(baseEnvironment []string, details CommandDetails) []string {
	mergedEnvironment := make([]string, 0, len(baseEnvironment)+len(details.EnvironmentVariables)+1)
	for _, assignment := range baseEnvironment {
		if details.Options.WithoutLocale && isLocaleAssignment(assignment) {
			continue
		}
		mergedEnvironment = append(mergedEnvironment, assignment)
	}

	if details.Options.WithoutLocale {
		mergedEnvironment = append(mergedEnvironment, fmt.Sprintf(environmentAssignmentTemplateConstant, localeAllEnvironmentNameConstant, environmentAssignmentSeparatorConstant, neutralLocaleValueConstant))
	}

	environmentKeys := make([]string, 0, len(details.EnvironmentVariables))
	for environmentKey := range details.EnvironmentVariables {
		environmentKeys = append(environmentKeys, environmentKey)
	}
	sort.Strings(environmentKeys)
	for _, environmentKey := range environmentKeys {
		mergedEnvironment = append(mergedEnvironment, fmt.Sprintf(environmentAssignmentTemplateConstant, environmentKey, environmentAssignmentSeparatorConstant, details.EnvironmentVariables[environmentKey]))
	}

	return mergedEnvironment
}

func isLocaleAssignment(assignment string) bool {
	environmentName, _, _ := strings.Cut(assignment, environmentAssignmentSeparatorConstant)
	switch {
	case environmentName == localeLanguageEnvironmentNameConstant:
		return true
	case environmentName == localeLanguageListEnvironmentConstant:
		return true
	default:
		return strings.HasPrefix(environmentName, localeCategoryPrefixConstant)
	}
}
