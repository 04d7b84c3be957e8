package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/temirov/gistore/internal/gitcli"
	"github.com/temirov/gistore/internal/locator"
	"github.com/temirov/gistore/internal/version"
)

const (
	whichCommandUseConstant                  = "which NAME"
	whichCommandShortConstant                = "Print the first executable named NAME on the git search path"
	gitVersionCommandUseConstant             = "git-version"
	gitVersionCommandShortConstant           = "Print the installed git version"
	versionCompareCommandUseConstant         = "version-compare CURRENT [CHECK]"
	versionCompareCommandShortConstant       = "Compare dotted versions and print -1, 0 or 1"
	versionCompareCommandLongConstant        = "With two arguments CURRENT is compared against CHECK. With one argument the installed git version is compared against it. A longer CHECK always wins a tie, so 1.5 compared against 1.5.0 prints -1."
	tasksCommandUseConstant                  = "tasks"
	tasksCommandShortConstant                = "List gistore tasks registered in git configuration"
	tasksSystemFlagNameConstant              = "system"
	tasksSystemFlagUsageConstant             = "Read the system git configuration."
	tasksGlobalFlagNameConstant              = "global"
	tasksGlobalFlagUsageConstant             = "Read the global git configuration."
	discoverCommandUseConstant               = "discover ROOT..."
	discoverCommandShortConstant             = "List git repositories found below the given roots"
	configCommandUseConstant                 = "config"
	configCommandShortConstant               = "Print the effective configuration as YAML"
	configDefaultsFlagNameConstant           = "defaults"
	configDefaultsFlagUsageConstant          = "Print the embedded defaults instead of the effective configuration."
	configFileCommentTemplateConstant        = "# %s\n"
	taskLineTemplateConstant                 = "%s\t%s\n"
	outputLineTemplateConstant               = "%s\n"
	yamlIndentConstant                       = 2
	configurationEncodeErrorTemplateConstant = "unable to encode configuration: %w"
)

func (application *Application) newWhichCommand() *cobra.Command {
	return &cobra.Command{
		Use:   whichCommandUseConstant,
		Short: whichCommandShortConstant,
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			searchPath := application.homeExpander.ExpandSearchPath(strings.TrimSpace(application.configuration.Git.SearchPath))
			executablePath, found := locateExecutable(arguments[0], searchPath)
			if !found {
				return gitcli.NotFoundError{Command: arguments[0], SearchPath: searchPath}
			}
			_, writeError := fmt.Fprintf(command.OutOrStdout(), outputLineTemplateConstant, executablePath)
			return writeError
		},
	}
}

// locateExecutable searches the configured search path, or PATH when none is configured.
func locateExecutable(name string, searchPath string) (string, bool) {
	if len(searchPath) == 0 {
		return locator.LocateInEnvironment(name)
	}
	return locator.Locate(name, searchPath)
}

func (application *Application) newGitVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   gitVersionCommandUseConstant,
		Short: gitVersionCommandShortConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			toolchain, toolchainError := application.gitToolchain(command)
			if toolchainError != nil {
				return toolchainError
			}
			installedVersion, versionError := toolchain.GitVersion()
			if versionError != nil {
				return versionError
			}
			_, writeError := fmt.Fprintf(command.OutOrStdout(), outputLineTemplateConstant, installedVersion.String())
			return writeError
		},
	}
}

func (application *Application) newVersionCompareCommand() *cobra.Command {
	return &cobra.Command{
		Use:   versionCompareCommandUseConstant,
		Short: versionCompareCommandShortConstant,
		Long:  versionCompareCommandLongConstant,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(command *cobra.Command, arguments []string) error {
			var comparison int
			if len(arguments) == 2 {
				comparison = version.CompareStrings(arguments[0], arguments[1])
			} else {
				toolchain, toolchainError := application.gitToolchain(command)
				if toolchainError != nil {
					return toolchainError
				}
				installedComparison, compareError := toolchain.CompareGitVersion(arguments[0])
				if compareError != nil {
					return compareError
				}
				comparison = installedComparison
			}
			_, writeError := fmt.Fprintf(command.OutOrStdout(), outputLineTemplateConstant, strconv.Itoa(comparison))
			return writeError
		},
	}
}

func (application *Application) newTasksCommand() *cobra.Command {
	var systemScope bool
	var globalScope bool

	tasksCommand := &cobra.Command{
		Use:   tasksCommandUseConstant,
		Short: tasksCommandShortConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			toolchain, toolchainError := application.gitToolchain(command)
			if toolchainError != nil {
				return toolchainError
			}

			scope := gitcli.TaskScopeDefault
			switch {
			case systemScope:
				scope = gitcli.TaskScopeSystem
			case globalScope:
				scope = gitcli.TaskScopeGlobal
			}

			tasks := toolchain.ListTasks(scope)
			taskNames := make([]string, 0, len(tasks))
			for taskName := range tasks {
				taskNames = append(taskNames, taskName)
			}
			sort.Strings(taskNames)

			for _, taskName := range taskNames {
				if _, writeError := fmt.Fprintf(command.OutOrStdout(), taskLineTemplateConstant, taskName, tasks[taskName]); writeError != nil {
					return writeError
				}
			}
			return nil
		},
	}

	tasksCommand.Flags().BoolVar(&systemScope, tasksSystemFlagNameConstant, false, tasksSystemFlagUsageConstant)
	tasksCommand.Flags().BoolVar(&globalScope, tasksGlobalFlagNameConstant, false, tasksGlobalFlagUsageConstant)
	tasksCommand.MarkFlagsMutuallyExclusive(tasksSystemFlagNameConstant, tasksGlobalFlagNameConstant)

	return tasksCommand
}

func (application *Application) newDiscoverCommand() *cobra.Command {
	return &cobra.Command{
		Use:   discoverCommandUseConstant,
		Short: discoverCommandShortConstant,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			toolchain, toolchainError := application.gitToolchain(command)
			if toolchainError != nil {
				return toolchainError
			}

			roots := make([]string, 0, len(arguments))
			for _, argument := range arguments {
				roots = append(roots, application.homeExpander.Expand(argument))
			}

			repositories, discoverError := toolchain.DiscoverRepositories(roots)
			if discoverError != nil {
				return discoverError
			}
			for _, repositoryPath := range repositories {
				if _, writeError := fmt.Fprintf(command.OutOrStdout(), outputLineTemplateConstant, repositoryPath); writeError != nil {
					return writeError
				}
			}
			return nil
		},
	}
}

func (application *Application) newConfigCommand() *cobra.Command {
	var printDefaults bool

	configCommand := &cobra.Command{
		Use:   configCommandUseConstant,
		Short: configCommandShortConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			configuration := application.configuration
			if printDefaults {
				defaultConfiguration, defaultsError := DefaultConfiguration()
				if defaultsError != nil {
					return defaultsError
				}
				configuration = defaultConfiguration
			} else if configurationFilePath, available := application.commandContextAccessor.ConfigurationFilePath(command.Context()); available && len(configurationFilePath) > 0 {
				if _, writeError := fmt.Fprintf(command.OutOrStdout(), configFileCommentTemplateConstant, configurationFilePath); writeError != nil {
					return writeError
				}
			}

			encoder := yaml.NewEncoder(command.OutOrStdout())
			encoder.SetIndent(yamlIndentConstant)
			encodeError := encoder.Encode(configuration)
			if closeError := encoder.Close(); encodeError == nil {
				encodeError = closeError
			}
			if encodeError != nil {
				return fmt.Errorf(configurationEncodeErrorTemplateConstant, encodeError)
			}
			return nil
		},
	}

	configCommand.Flags().BoolVar(&printDefaults, configDefaultsFlagNameConstant, false, configDefaultsFlagUsageConstant)
	return configCommand
}
