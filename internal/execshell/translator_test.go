package execshell_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gistore/internal/execshell"
)

func TestErrorTranslatorTranslate(testInstance *testing.T) {
	command := execshell.ShellCommand{
		Name:    execshell.CommandGit,
		Details: execshell.CommandDetails{Arguments: []string{"fetch", "https://secret@example.com/repo.git"}},
	}
	translator := execshell.NewErrorTranslator(execshell.URLCredentialRedactor)

	testInstance.Run("return_code", func(testInstance *testing.T) {
		translated := translator.ReturnCodeFailure(command, 128)

		returnCodeError := execshell.ReturnCodeError{}
		require.ErrorAs(testInstance, translated, &returnCodeError)
		require.Equal(testInstance, 128, returnCodeError.ExitCode)
		require.Equal(testInstance, "git fetch https://***@example.com/repo.git", returnCodeError.CommandLine)
		require.Equal(testInstance, "Command failed: Command failed (return 128).\n    >> git fetch https://***@example.com/repo.git", returnCodeError.Error())
	})

	testInstance.Run("exception", func(testInstance *testing.T) {
		underlying := errors.New("could not reach https://secret@example.com")
		translated := translator.Translate(command, underlying)

		exceptionError := execshell.ExceptionError{}
		require.ErrorAs(testInstance, translated, &exceptionError)
		require.ErrorIs(testInstance, translated, underlying)
		require.NotContains(testInstance, exceptionError.Error(), "secret")
		require.Equal(testInstance, "Command failed: could not reach https://***@example.com\n    >> git fetch https://***@example.com/repo.git", exceptionError.Error())
	})

	testInstance.Run("nil_failure", func(testInstance *testing.T) {
		require.NoError(testInstance, translator.Translate(command, nil))
	})

	testInstance.Run("default_redactor", func(testInstance *testing.T) {
		passThrough := execshell.NewErrorTranslator(nil)
		require.Equal(testInstance, "https://secret@example.com", passThrough.Redact("https://secret@example.com"))
	})
}
