package locator

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	pathEnvironmentVariableNameConstant = "PATH"
)

// Locate returns the first directory/name in searchPath that exists and is executable.
// Directories are tried in listed order; empty entries are skipped.
func Locate(name string, searchPath string) (string, bool) {
	trimmedName := strings.TrimSpace(name)
	if len(trimmedName) == 0 {
		return "", false
	}

	for _, directory := range filepath.SplitList(searchPath) {
		if len(directory) == 0 {
			continue
		}
		candidatePath := filepath.Join(directory, trimmedName)
		if isExecutableFile(candidatePath) {
			return candidatePath, true
		}
	}
	return "", false
}

// LocateInEnvironment resolves name against the PATH of the current process.
func LocateInEnvironment(name string) (string, bool) {
	return Locate(name, os.Getenv(pathEnvironmentVariableNameConstant))
}
