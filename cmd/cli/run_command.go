package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/gistore/internal/execshell"
	"github.com/temirov/gistore/internal/utils"
)

const (
	runCommandUseConstant                  = "run [flags] -- COMMAND [ARGUMENT...]"
	runCommandShortConstant                = "Run a command through the gistore shell executor"
	runCommandLongConstant                 = "run executes COMMAND with its output streamed to the terminal. Standard input is closed unless --attached is given. Without --check a non-zero exit is logged and tolerated."
	runCheckFlagNameConstant               = "check"
	runCheckFlagUsageConstant              = "Fail when the command exits with a non-zero status."
	runQuietFlagNameConstant               = "quiet"
	runQuietFlagUsageConstant              = "Discard the command output and report only success or failure."
	runAttachedFlagNameConstant            = "attached"
	runAttachedFlagUsageConstant           = "Connect the command directly to this terminal."
	runMergeStandardErrorFlagNameConstant  = "merge-stderr"
	runMergeStandardErrorFlagUsageConstant = "Merge standard error into standard output."
	runStandardOutputOnlyFlagNameConstant  = "stdout-only"
	runStandardOutputOnlyFlagUsageConstant = "Capture standard output only and discard standard error."
	runWithoutLocaleFlagNameConstant       = "without-locale"
	runWithoutLocaleFlagUsageConstant      = "Remove locale settings and run with LC_ALL=C."
	runEchoFlagNameConstant                = "echo"
	runEchoFlagUsageConstant               = "Print the shell-escaped command line before running it."
	runDirectoryFlagNameConstant           = "directory"
	runDirectoryFlagShorthandConstant      = "C"
	runDirectoryFlagUsageConstant          = "Run the command in this directory."
	runEnvironmentFlagNameConstant         = "env"
	runEnvironmentFlagUsageConstant        = "Set an environment variable as KEY=VALUE (repeatable)."
	runEchoTemplateConstant                = "+ %s\n"
	runQuietFailureTemplateConstant        = "%w: %s"
	runEnvironmentErrorTemplateConstant    = "invalid environment assignment %q: expected KEY=VALUE"
	runEnvironmentSeparatorConstant        = "="
	runCommandFailedMessageConstant        = "command did not succeed"
	runNonZeroExitMessageConstant          = "command exited with non-zero status"
	logFieldExitCodeConstant               = "exit_code"
	logFieldCommandConstant                = "command"
)

var errRunCommandFailed = errors.New(runCommandFailedMessageConstant)

type runCommandOptions struct {
	checkReturnCode        bool
	quiet                  bool
	attached               bool
	mergeStandardError     bool
	standardOutputOnly     bool
	withoutLocale          bool
	echo                   bool
	workingDirectory       string
	environmentAssignments []string
}

func (application *Application) newRunCommand() *cobra.Command {
	options := &runCommandOptions{}

	runCommand := &cobra.Command{
		Use:   runCommandUseConstant,
		Short: runCommandShortConstant,
		Long:  runCommandLongConstant,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runShellCommand(command, arguments, *options)
		},
	}

	runFlags := runCommand.Flags()
	runFlags.SetInterspersed(false)
	runFlags.BoolVar(&options.checkReturnCode, runCheckFlagNameConstant, false, runCheckFlagUsageConstant)
	runFlags.BoolVar(&options.quiet, runQuietFlagNameConstant, false, runQuietFlagUsageConstant)
	runFlags.BoolVar(&options.attached, runAttachedFlagNameConstant, false, runAttachedFlagUsageConstant)
	runFlags.BoolVar(&options.mergeStandardError, runMergeStandardErrorFlagNameConstant, false, runMergeStandardErrorFlagUsageConstant)
	runFlags.BoolVar(&options.standardOutputOnly, runStandardOutputOnlyFlagNameConstant, false, runStandardOutputOnlyFlagUsageConstant)
	runFlags.BoolVar(&options.withoutLocale, runWithoutLocaleFlagNameConstant, false, runWithoutLocaleFlagUsageConstant)
	runFlags.BoolVar(&options.echo, runEchoFlagNameConstant, false, runEchoFlagUsageConstant)
	runFlags.StringVarP(&options.workingDirectory, runDirectoryFlagNameConstant, runDirectoryFlagShorthandConstant, "", runDirectoryFlagUsageConstant)
	runFlags.StringArrayVar(&options.environmentAssignments, runEnvironmentFlagNameConstant, nil, runEnvironmentFlagUsageConstant)
	runCommand.MarkFlagsMutuallyExclusive(runQuietFlagNameConstant, runAttachedFlagNameConstant)

	return runCommand
}

func (application *Application) runShellCommand(command *cobra.Command, arguments []string, options runCommandOptions) error {
	executor, executorError := application.shellExecutor(command)
	if executorError != nil {
		return executorError
	}

	shellCommand, commandError := execshell.NewShellCommand(arguments, execshell.InvocationOptions{
		StandardOutputOnly: options.standardOutputOnly,
		MergeStandardError: options.mergeStandardError,
		CheckReturnCode:    options.checkReturnCode,
		WithoutLocale:      options.withoutLocale,
	})
	if commandError != nil {
		return commandError
	}
	shellCommand.Details.WorkingDirectory = options.workingDirectory

	environmentVariables, environmentError := parseEnvironmentAssignments(options.environmentAssignments)
	if environmentError != nil {
		return environmentError
	}
	shellCommand.Details.EnvironmentVariables = environmentVariables

	if options.echo {
		if _, echoError := fmt.Fprintf(command.ErrOrStderr(), runEchoTemplateConstant, executor.Redact(execshell.ShellEscapedCommandLine(shellCommand.Argv()))); echoError != nil {
			return echoError
		}
	}

	switch {
	case options.quiet:
		if !executor.QuietSystem(shellCommand) {
			return fmt.Errorf(runQuietFailureTemplateConstant, errRunCommandFailed, executor.Redact(execshell.ShellEscapedCommandLine(shellCommand.Argv())))
		}
		return nil
	case options.attached && options.checkReturnCode:
		return executor.SafeSystem(shellCommand)
	case options.attached:
		if !executor.System(shellCommand) {
			application.logger.Warn(runNonZeroExitMessageConstant, zap.String(logFieldCommandConstant, executor.Redact(shellCommand.CommandLine())))
		}
		return nil
	}

	result, executionError := executor.Shellpipe(shellCommand, streamToTerminal(command.OutOrStdout(), command.ErrOrStderr()))
	if executionError != nil {
		return executionError
	}
	if !result.Success() {
		application.logger.Warn(
			runNonZeroExitMessageConstant,
			zap.String(logFieldCommandConstant, executor.Redact(shellCommand.CommandLine())),
			zap.Int(logFieldExitCodeConstant, result.ExitCode),
		)
	}
	return nil
}

func streamToTerminal(standardOutput io.Writer, standardError io.Writer) execshell.StreamConsumer {
	return func(streams execshell.ProcessStreams) error {
		if streams.StandardInput != nil {
			if closeError := streams.StandardInput.Close(); closeError != nil {
				return closeError
			}
		}

		outputWriter := utils.NewFlushingWriter(standardOutput)
		errorWriter := utils.NewFlushingWriter(standardError)
		copyGroup := errgroup.Group{}
		copyGroup.Go(func() error {
			_, copyError := io.Copy(outputWriter, streams.StandardOutput)
			return errors.Join(copyError, outputWriter.Flush())
		})
		if streams.StandardError != nil {
			copyGroup.Go(func() error {
				_, copyError := io.Copy(errorWriter, streams.StandardError)
				return errors.Join(copyError, errorWriter.Flush())
			})
		}
		return copyGroup.Wait()
	}
}

func parseEnvironmentAssignments(assignments []string) (map[string]string, error) {
	if len(assignments) == 0 {
		return nil, nil
	}
	environmentVariables := make(map[string]string, len(assignments))
	for _, assignment := range assignments {
		environmentName, environmentValue, separatorFound := strings.Cut(assignment, runEnvironmentSeparatorConstant)
		if !separatorFound || len(strings.TrimSpace(environmentName)) == 0 {
			return nil, fmt.Errorf(runEnvironmentErrorTemplateConstant, assignment)
		}
		environmentVariables[environmentName] = environmentValue
	}
	return environmentVariables, nil
}
