package cli

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/temirov/gistore/internal/execshell"
	"github.com/temirov/gistore/internal/gitcli"
	"github.com/temirov/gistore/internal/ui"
	"github.com/temirov/gistore/internal/utils"
	flagutils "github.com/temirov/gistore/internal/utils/flags"
	pathutils "github.com/temirov/gistore/internal/utils/path"
)

const (
	applicationNameConstant                     = "gistore-shell"
	applicationShortDescriptionConstant         = "Run git and other commands the way gistore does"
	applicationLongDescriptionConstant          = "gistore-shell locates git, inspects its version and configured tasks, and runs commands through the gistore shell executor."
	configFileFlagNameConstant                  = "config"
	configFileFlagUsageConstant                 = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                    = "log-level"
	logLevelFlagUsageConstant                   = "Override the configured log level."
	logFormatFlagNameConstant                   = "log-format"
	logFormatFlagUsageConstant                  = "Override the configured log format."
	commonConfigurationKeyConstant              = "common"
	commonLogLevelConfigKeyConstant             = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant            = commonConfigurationKeyConstant + ".log_format"
	environmentPrefixConstant                   = "GISTORE"
	configurationNameConstant                   = "config"
	configurationTypeConstant                   = "yaml"
	configurationInitializedMessageConstant     = "configuration initialized"
	configurationLogLevelFieldConstant          = "log_level"
	configurationLogFormatFieldConstant         = "log_format"
	configurationFileFieldConstant              = "config_file"
	configurationSearchPathFieldConstant        = "git_search_path"
	configurationLoadErrorTemplateConstant      = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant         = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant             = "unable to flush logger: %w"
	redactionConfigurationErrorTemplateConstant = "unable to configure redaction: %w"
	executorCreationErrorTemplateConstant       = "unable to create shell executor: %w"
	toolchainCreationErrorTemplateConstant      = "unable to create git toolchain: %w"
	servicesNotInitializedMessageConstant       = "command services not initialized"
	defaultConfigurationSearchPathConstant      = "."
	userConfigurationSearchPathConstant         = "~/.config/gistore"
	developmentVersionConstant                  = "(devel)"
	unknownVersionConstant                      = "dev"
	genericFailureExitCodeConstant              = 1
)

var errServicesNotInitialized = errors.New(servicesNotInitializedMessageConstant)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common        ApplicationCommonConfiguration    `mapstructure:"common" yaml:"common"`
	Git           ApplicationGitConfiguration       `mapstructure:"git" yaml:"git"`
	Redaction     ApplicationRedactionConfiguration `mapstructure:"redaction" yaml:"redaction"`
	TestGitConfig string                            `mapstructure:"test_git_config" yaml:"test_git_config"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// ApplicationGitConfiguration controls how git is located.
type ApplicationGitConfiguration struct {
	SearchPath string `mapstructure:"search_path" yaml:"search_path"`
}

// ApplicationRedactionConfiguration controls which fragments are masked in diagnostics.
type ApplicationRedactionConfiguration struct {
	StripURLCredentials bool     `mapstructure:"strip_url_credentials" yaml:"strip_url_credentials"`
	Patterns            []string `mapstructure:"patterns" yaml:"patterns"`
}

// Application wires the Cobra root command, configuration loader, structured logger and shell services.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	loggerOutputs          utils.LoggerOutputs
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	commandContextAccessor utils.CommandContextAccessor
	commandRunner          execshell.CommandRunner
	homeExpander           *pathutils.HomeExpander
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant, userConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		commandRunner:          execshell.NewOSCommandRunner(),
		homeExpander:           pathutils.NewHomeExpander(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       resolveApplicationVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}

	cobraCommand.SetContext(context.Background())
	persistentFlags := cobraCommand.PersistentFlags()
	persistentFlags.StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	flagutils.AddChoiceFlag(persistentFlags, &application.logLevelFlagValue, logLevelFlagNameConstant, "", utils.SupportedLogLevels, logLevelFlagUsageConstant)
	flagutils.AddChoiceFlag(persistentFlags, &application.logFormatFlagValue, logFormatFlagNameConstant, "", utils.SupportedLogFormats, logFormatFlagUsageConstant)

	cobraCommand.AddCommand(
		application.newWhichCommand(),
		application.newGitVersionCommand(),
		application.newVersionCompareCommand(),
		application.newTasksCommand(),
		application.newDiscoverCommand(),
		application.newRunCommand(),
		application.newConfigCommand(),
	)

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLoggers(); syncError != nil {
		return multierr.Append(executionError, fmt.Errorf(loggerSyncErrorTemplateConstant, syncError))
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

// ExitCodeForError maps an execution error to a process exit status.
// Commands that failed their return code check propagate the child's status.
func ExitCodeForError(executionError error) int {
	if executionError == nil {
		return 0
	}
	returnCodeError := execshell.ReturnCodeError{}
	if errors.As(executionError, &returnCodeError) && returnCodeError.ExitCode > 0 {
		return returnCodeError.ExitCode
	}
	return genericFailureExitCodeConstant
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelError),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	logLevel, logLevelError := utils.ParseLogLevel(application.configuration.Common.LogLevel)
	if logLevelError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, logLevelError)
	}
	logFormat, logFormatError := utils.ParseLogFormat(application.configuration.Common.LogFormat)
	if logFormatError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, logFormatError)
	}

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(logLevel, logFormat)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.loggerOutputs = loggerOutputs
	application.logger = loggerOutputs.DiagnosticLogger

	searchPath := application.homeExpander.ExpandSearchPath(strings.TrimSpace(application.configuration.Git.SearchPath))
	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, string(logLevel)),
		zap.String(configurationLogFormatFieldConstant, string(logFormat)),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.String(configurationSearchPathFieldConstant, searchPath),
	)

	executor, executorError := application.buildShellExecutor(command)
	if executorError != nil {
		return executorError
	}

	toolchain, toolchainError := gitcli.NewToolchain(
		executor,
		gitcli.WithSearchPath(searchPath),
		gitcli.WithTestGitConfig(strings.TrimSpace(application.configuration.TestGitConfig)),
		gitcli.WithLogger(application.logger),
	)
	if toolchainError != nil {
		return fmt.Errorf(toolchainCreationErrorTemplateConstant, toolchainError)
	}

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(command.Context(), application.configurationMetadata.ConfigFileUsed)
		updatedContext = application.commandContextAccessor.WithShellExecutor(updatedContext, executor)
		updatedContext = application.commandContextAccessor.WithGitToolchain(updatedContext, toolchain)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) buildShellExecutor(command *cobra.Command) (*execshell.ShellExecutor, error) {
	redactor, redactorError := application.buildCredentialRedactor()
	if redactorError != nil {
		return nil, fmt.Errorf(redactionConfigurationErrorTemplateConstant, redactorError)
	}

	executorOptions := []execshell.ExecutorOption{execshell.WithCredentialRedactor(redactor)}
	if application.humanReadableLoggingEnabled() {
		executorOptions = append(executorOptions, execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(application.loggerOutputs.ConsoleLogger, redactor)))
	}
	if command != nil {
		executorOptions = append(executorOptions, execshell.WithInheritedStreams(execshell.AttachedStreams{
			StandardInput:  command.InOrStdin(),
			StandardOutput: command.OutOrStdout(),
			StandardError:  command.ErrOrStderr(),
		}))
	}

	executor, executorError := execshell.NewShellExecutor(application.logger, application.commandRunner, executorOptions...)
	if executorError != nil {
		return nil, fmt.Errorf(executorCreationErrorTemplateConstant, executorError)
	}
	return executor, nil
}

func (application *Application) buildCredentialRedactor() (execshell.CredentialRedactor, error) {
	patternRedactor, patternError := execshell.NewPatternRedactor(application.configuration.Redaction.Patterns)
	if patternError != nil {
		return nil, patternError
	}
	if application.configuration.Redaction.StripURLCredentials {
		return execshell.ChainRedactors(execshell.URLCredentialRedactor, patternRedactor), nil
	}
	return patternRedactor, nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) shellExecutor(command *cobra.Command) (*execshell.ShellExecutor, error) {
	executor, executorAvailable := application.commandContextAccessor.ShellExecutor(command.Context())
	if !executorAvailable {
		return nil, errServicesNotInitialized
	}
	return executor, nil
}

func (application *Application) gitToolchain(command *cobra.Command) (*gitcli.Toolchain, error) {
	toolchain, toolchainAvailable := application.commandContextAccessor.GitToolchain(command.Context())
	if !toolchainAvailable {
		return nil, errServicesNotInitialized
	}
	return toolchain, nil
}

func (application *Application) flushLoggers() error {
	return multierr.Combine(
		application.syncLoggerInstance(application.loggerOutputs.DiagnosticLogger),
		application.syncLoggerInstance(application.loggerOutputs.ConsoleLogger),
	)
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}

func resolveApplicationVersion() string {
	buildInformation, buildInformationAvailable := debug.ReadBuildInfo()
	if !buildInformationAvailable {
		return unknownVersionConstant
	}
	mainVersion := strings.TrimSpace(buildInformation.Main.Version)
	if len(mainVersion) == 0 || mainVersion == developmentVersionConstant {
		return unknownVersionConstant
	}
	return mainVersion
}
