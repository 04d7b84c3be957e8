package gitcli

import (
	"bufio"
	"io"
	"regexp"

	"go.uber.org/zap"

	"github.com/temirov/gistore/internal/execshell"
)

const (
	gitConfigSubcommandConstant         = "config"
	gitConfigSystemFlagConstant         = "--system"
	gitConfigGlobalFlagConstant         = "--global"
	gitConfigGetRegexpFlagConstant      = "--get-regexp"
	taskKeyPatternConstant              = "gistore.task."
	taskLinePatternConstant             = `^gistore\.task\.(\S+) (.*)$`
	logMessageTaskListingFailedConstant = "listing gistore tasks failed"
	logFieldScopeConstant               = "scope"
	taskScopeDefaultNameConstant        = "default"
	taskScopeSystemNameConstant         = "system"
	taskScopeGlobalNameConstant         = "global"
)

var taskLinePattern = regexp.MustCompile(taskLinePatternConstant)

// TaskScope selects which git configuration file is searched for tasks.
type TaskScope int

// Supported task scopes.
const (
	TaskScopeDefault TaskScope = iota
	TaskScopeSystem
	TaskScopeGlobal
)

// String returns the scope name.
func (scope TaskScope) String() string {
	switch scope {
	case TaskScopeSystem:
		return taskScopeSystemNameConstant
	case TaskScopeGlobal:
		return taskScopeGlobalNameConstant
	default:
		return taskScopeDefaultNameConstant
	}
}

// ListTasks returns the gistore tasks registered in git configuration as name to path.
// Any failure, including a missing git, yields an empty map.
func (toolchain *Toolchain) ListTasks(scope TaskScope) map[string]string {
	tasks := make(map[string]string)

	gitPath, locateError := toolchain.GitCommand()
	if locateError != nil {
		toolchain.logger.Debug(logMessageTaskListingFailedConstant, zap.Stringer(logFieldScopeConstant, scope), zap.Error(locateError))
		return tasks
	}

	_, executionError := toolchain.executor.Shellout(toolchain.taskListingCommand(gitPath, scope), func(standardOutput io.Reader) error {
		lineScanner := bufio.NewScanner(standardOutput)
		for lineScanner.Scan() {
			matches := taskLinePattern.FindStringSubmatch(lineScanner.Text())
			if matches == nil {
				continue
			}
			tasks[matches[1]] = matches[2]
		}
		return lineScanner.Err()
	})
	if executionError != nil {
		toolchain.logger.Debug(logMessageTaskListingFailedConstant, zap.Stringer(logFieldScopeConstant, scope), zap.Error(executionError))
		return make(map[string]string)
	}

	return tasks
}

func (toolchain *Toolchain) taskListingCommand(gitPath string, scope TaskScope) execshell.ShellCommand {
	arguments := []string{gitConfigSubcommandConstant}
	testGitConfig := toolchain.effectiveTestGitConfig()
	if len(testGitConfig) == 0 {
		switch scope {
		case TaskScopeSystem:
			arguments = append(arguments, gitConfigSystemFlagConstant)
		case TaskScopeGlobal:
			arguments = append(arguments, gitConfigGlobalFlagConstant)
		}
	}
	arguments = append(arguments, gitConfigGetRegexpFlagConstant, taskKeyPatternConstant)

	command := execshell.ShellCommand{
		Name: execshell.CommandName(gitPath),
		Details: execshell.CommandDetails{
			Arguments: arguments,
			Options:   execshell.InvocationOptions{StandardOutputOnly: true},
		},
	}
	if len(testGitConfig) > 0 {
		command.Details.Options.WithGitConfig = true
		command.Details.EnvironmentVariables = map[string]string{
			gitConfigEnvironmentNameConstant: testGitConfig,
		}
	}
	return command
}
