//go:build !unix

package locator

import "os"

const executablePermissionMaskConstant = 0o111

func isExecutableFile(candidatePath string) bool {
	fileInfo, statError := os.Stat(candidatePath)
	if statError != nil || fileInfo.IsDir() {
		return false
	}
	return fileInfo.Mode().Perm()&executablePermissionMaskConstant != 0
}
