//go:build unix

package locator

import (
	"os"

	"golang.org/x/sys/unix"
)

func isExecutableFile(candidatePath string) bool {
	fileInfo, statError := os.Stat(candidatePath)
	if statError != nil || fileInfo.IsDir() {
		return false
	}
	return unix.Access(candidatePath, unix.X_OK) == nil
}
