package gitcli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/gistore/internal/execshell"
	"github.com/temirov/gistore/internal/locator"
	"github.com/temirov/gistore/internal/version"
)

const (
	gitExecutableNameConstant           = "git"
	pathEnvironmentNameConstant         = "PATH"
	testGitConfigEnvironmentConstant    = "GISTORE_TEST_GIT_CONFIG"
	gitConfigEnvironmentNameConstant    = "GIT_CONFIG"
	gitVersionFlagConstant              = "--version"
	gitVersionReadErrorTemplateConstant = "%w: %q"
	logMessageGitLocatedConstant        = "located git executable"
	logFieldPathConstant                = "path"
)

// ShellExecutor is the subset of execshell.ShellExecutor used by Toolchain.
type ShellExecutor interface {
	Shellout(command execshell.ShellCommand, consumer func(standardOutput io.Reader) error) (execshell.ExecutionResult, error)
}

// EnvironmentLookup resolves an environment variable.
type EnvironmentLookup func(name string) (string, bool)

// ToolchainOption customizes a Toolchain.
type ToolchainOption func(toolchain *Toolchain)

// WithSearchPath overrides PATH for locating git. An empty value keeps PATH.
func WithSearchPath(searchPath string) ToolchainOption {
	return func(toolchain *Toolchain) {
		toolchain.searchPath = searchPath
	}
}

// WithEnvironmentLookup replaces os.LookupEnv.
func WithEnvironmentLookup(lookup EnvironmentLookup) ToolchainOption {
	return func(toolchain *Toolchain) {
		if lookup != nil {
			toolchain.environmentLookup = lookup
		}
	}
}

// WithFileSystem replaces the operating system filesystem used for repository checks.
func WithFileSystem(fileSystem afero.Fs) ToolchainOption {
	return func(toolchain *Toolchain) {
		if fileSystem != nil {
			toolchain.fileSystem = fileSystem
		}
	}
}

// WithTestGitConfig points task listing at a standalone git configuration file.
// When empty, GISTORE_TEST_GIT_CONFIG is consulted.
func WithTestGitConfig(gitConfigPath string) ToolchainOption {
	return func(toolchain *Toolchain) {
		toolchain.testGitConfig = gitConfigPath
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) ToolchainOption {
	return func(toolchain *Toolchain) {
		if logger != nil {
			toolchain.logger = logger
		}
	}
}

// Toolchain runs git on behalf of the application.
// The located executable and its version are cached once resolved; a Toolchain must not be copied.
type Toolchain struct {
	executor          ShellExecutor
	logger            *zap.Logger
	searchPath        string
	environmentLookup EnvironmentLookup
	fileSystem        afero.Fs
	testGitConfig     string
	gitCommand        atomic.Pointer[string]
	gitVersion        atomic.Pointer[version.Vector]
}

// NewToolchain constructs a Toolchain around executor.
func NewToolchain(executor ShellExecutor, options ...ToolchainOption) (*Toolchain, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}

	toolchain := &Toolchain{
		executor:          executor,
		logger:            zap.NewNop(),
		environmentLookup: os.LookupEnv,
		fileSystem:        afero.NewOsFs(),
	}
	for _, option := range options {
		if option != nil {
			option(toolchain)
		}
	}
	return toolchain, nil
}

// GitCommand returns the path of the first git executable on the search path.
func (toolchain *Toolchain) GitCommand() (string, error) {
	if cachedCommand := toolchain.gitCommand.Load(); cachedCommand != nil {
		return *cachedCommand, nil
	}

	searchPath := toolchain.effectiveSearchPath()
	gitPath, found := locator.Locate(gitExecutableNameConstant, searchPath)
	if !found {
		return "", NotFoundError{Command: gitExecutableNameConstant, SearchPath: searchPath}
	}

	toolchain.gitCommand.CompareAndSwap(nil, &gitPath)
	toolchain.logger.Debug(logMessageGitLocatedConstant, zap.String(logFieldPathConstant, gitPath))
	return *toolchain.gitCommand.Load(), nil
}

// GitVersion runs `git --version` without locale settings and returns the parsed version.
func (toolchain *Toolchain) GitVersion() (version.Vector, error) {
	if cachedVersion := toolchain.gitVersion.Load(); cachedVersion != nil {
		return cachedVersion.Clone(), nil
	}

	gitPath, locateError := toolchain.GitCommand()
	if locateError != nil {
		return nil, locateError
	}

	var versionOutput string
	versionCommand := execshell.ShellCommand{
		Name: execshell.CommandName(gitPath),
		Details: execshell.CommandDetails{
			Arguments: []string{gitVersionFlagConstant},
			Options:   execshell.InvocationOptions{StandardOutputOnly: true, WithoutLocale: true},
		},
	}
	_, executionError := toolchain.executor.Shellout(versionCommand, func(standardOutput io.Reader) error {
		outputBytes, readError := io.ReadAll(standardOutput)
		versionOutput = string(outputBytes)
		return readError
	})
	if executionError != nil {
		return nil, executionError
	}

	parsedVersion, parsed := version.ParseGitVersionOutput(strings.TrimSpace(versionOutput))
	if !parsed {
		return nil, fmt.Errorf(gitVersionReadErrorTemplateConstant, ErrUnknownGitVersion, strings.TrimSpace(versionOutput))
	}

	toolchain.gitVersion.CompareAndSwap(nil, &parsedVersion)
	return toolchain.gitVersion.Load().Clone(), nil
}

// CompareGitVersion compares the installed git version against check,
// returning -1, 0 or 1 with the semantics of version.Compare.
func (toolchain *Toolchain) CompareGitVersion(check string) (int, error) {
	installedVersion, versionError := toolchain.GitVersion()
	if versionError != nil {
		return 0, versionError
	}
	return version.Compare(installedVersion, version.Parse(check)), nil
}

func (toolchain *Toolchain) effectiveSearchPath() string {
	if len(toolchain.searchPath) > 0 {
		return toolchain.searchPath
	}
	environmentPath, _ := toolchain.environmentLookup(pathEnvironmentNameConstant)
	return environmentPath
}

func (toolchain *Toolchain) effectiveTestGitConfig() string {
	if len(toolchain.testGitConfig) > 0 {
		return toolchain.testGitConfig
	}
	testGitConfig, _ := toolchain.environmentLookup(testGitConfigEnvironmentConstant)
	return testGitConfig
}
