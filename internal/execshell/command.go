package execshell

import (
	"errors"
	"strings"
)

const (
	commandLineArgumentSeparatorConstant = " "
	emptyCommandMessageConstant          = "command name must not be empty"
	conflictingRoutingMessageConstant    = "standard output only and merged standard error routing are mutually exclusive"
)

var (
	// ErrEmptyCommand indicates a command without a program to execute.
	ErrEmptyCommand = errors.New(emptyCommandMessageConstant)
	// ErrConflictingRoutingOptions indicates both routing selectors were requested at once.
	ErrConflictingRoutingOptions = errors.New(conflictingRoutingMessageConstant)
)

// CommandName identifies the program executed by a ShellCommand.
type CommandName string

// CommandGit names the git executable when it is resolved through PATH.
const CommandGit CommandName = CommandName("git")

// RoutingMode selects which child streams a StreamConsumer receives.
type RoutingMode int

// Supported routing modes.
const (
	// RoutingModeThreeStreams hands over standard input, output and error as independent streams.
	RoutingModeThreeStreams RoutingMode = iota
	// RoutingModeStandardOutputOnly closes standard input, discards standard error and hands over standard output.
	RoutingModeStandardOutputOnly
	// RoutingModeMergedStandardError hands over standard input and one stream carrying output and error.
	RoutingModeMergedStandardError
)

// InvocationOptions controls stream routing, exit status checking and environment for one invocation.
type InvocationOptions struct {
	StandardOutputOnly bool
	MergeStandardError bool
	CheckReturnCode    bool
	WithoutLocale      bool
	// WithGitConfig marks invocations that read git configuration from a test-provided file.
	WithGitConfig bool
	// SystemScope and GlobalScope select the git configuration scope for callers that build config commands.
	SystemScope bool
	GlobalScope bool
}

// RoutingMode resolves the routing selectors.
func (options InvocationOptions) RoutingMode() (RoutingMode, error) {
	switch {
	case options.StandardOutputOnly && options.MergeStandardError:
		return RoutingModeThreeStreams, ErrConflictingRoutingOptions
	case options.StandardOutputOnly:
		return RoutingModeStandardOutputOnly, nil
	case options.MergeStandardError:
		return RoutingModeMergedStandardError, nil
	default:
		return RoutingModeThreeStreams, nil
	}
}

// CommandDetails captures the arguments and process settings of a command.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	Options              InvocationOptions
}

// ShellCommand describes a single program invocation; Name is argv[0].
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// NewShellCommand builds a command from an already tokenized argument vector.
func NewShellCommand(argumentVector []string, options InvocationOptions) (ShellCommand, error) {
	if len(argumentVector) == 0 || len(strings.TrimSpace(argumentVector[0])) == 0 {
		return ShellCommand{}, ErrEmptyCommand
	}
	return ShellCommand{
		Name: CommandName(argumentVector[0]),
		Details: CommandDetails{
			Arguments: append([]string{}, argumentVector[1:]...),
			Options:   options,
		},
	}, nil
}

// Argv returns the full argument vector starting with the program.
func (command ShellCommand) Argv() []string {
	argumentVector := make([]string, 0, len(command.Details.Arguments)+1)
	argumentVector = append(argumentVector, string(command.Name))
	return append(argumentVector, command.Details.Arguments...)
}

// CommandLine renders the argument vector separated by single spaces.
func (command ShellCommand) CommandLine() string {
	return strings.Join(command.Argv(), commandLineArgumentSeparatorConstant)
}

// WithOptions returns a copy of the command using the supplied options.
func (command ShellCommand) WithOptions(options InvocationOptions) ShellCommand {
	command.Details.Options = options
	command.Details.Arguments = append([]string{}, command.Details.Arguments...)
	return command
}

func (command ShellCommand) validate() error {
	if len(strings.TrimSpace(string(command.Name))) == 0 {
		return ErrEmptyCommand
	}
	return nil
}
