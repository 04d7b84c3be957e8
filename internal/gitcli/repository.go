package gitcli

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

const (
	gitObjectsDirectoryNameConstant    = "objects"
	gitReferencesDirectoryNameConstant = "refs"
	gitConfigFileNameConstant          = "config"
	gitMetadataDirectoryNameConstant   = ".git"
)

// IsGitRepository reports whether path is a git directory: it holds objects and refs
// directories plus a config entry. Bare repositories and .git directories both qualify.
func (toolchain *Toolchain) IsGitRepository(path string) bool {
	return isGitDirectory(toolchain.fileSystem, path)
}

// DiscoverRepositories walks roots and returns every bare repository and every working
// tree whose .git directory is a git directory. Results are sorted and unique; unreadable
// entries are skipped.
func (toolchain *Toolchain) DiscoverRepositories(roots []string) ([]string, error) {
	seen := make(map[string]struct{})
	var repositories []string

	for _, root := range roots {
		walkError := afero.Walk(toolchain.fileSystem, root, func(path string, fileInfo os.FileInfo, walkError error) error {
			if walkError != nil || !fileInfo.IsDir() {
				return nil
			}

			repositoryPath := ""
			switch {
			case fileInfo.Name() == gitMetadataDirectoryNameConstant && isGitDirectory(toolchain.fileSystem, path):
				repositoryPath = filepath.Dir(path)
			case isGitDirectory(toolchain.fileSystem, path):
				repositoryPath = path
			default:
				return nil
			}

			if _, alreadySeen := seen[repositoryPath]; !alreadySeen {
				seen[repositoryPath] = struct{}{}
				repositories = append(repositories, repositoryPath)
			}
			return filepath.SkipDir
		})
		if walkError != nil {
			return nil, walkError
		}
	}

	sort.Strings(repositories)
	return repositories, nil
}

func isGitDirectory(fileSystem afero.Fs, path string) bool {
	if !isDirectory(fileSystem, filepath.Join(path, gitObjectsDirectoryNameConstant)) {
		return false
	}
	if !isDirectory(fileSystem, filepath.Join(path, gitReferencesDirectoryNameConstant)) {
		return false
	}
	_, statError := fileSystem.Stat(filepath.Join(path, gitConfigFileNameConstant))
	return statError == nil
}

func isDirectory(fileSystem afero.Fs, path string) bool {
	isDirectoryResult, statError := afero.IsDir(fileSystem, path)
	return statError == nil && isDirectoryResult
}
