package execshell

import (
	"errors"
	"fmt"
)

const (
	translatedMessageTemplateConstant = "Command failed: %s\n    >> %s"
	returnCodeMessageTemplateConstant = "Command failed (return %d)."
	unknownFailureMessageConstant     = "unknown error"
)

// ErrorTranslator normalizes invocation failures into ReturnCodeError or ExceptionError.
type ErrorTranslator struct {
	redactor CredentialRedactor
}

// NewErrorTranslator builds a translator applying redactor to messages and command lines.
// A nil redactor behaves like PassThroughRedactor.
func NewErrorTranslator(redactor CredentialRedactor) ErrorTranslator {
	if redactor == nil {
		redactor = PassThroughRedactor
	}
	return ErrorTranslator{redactor: redactor}
}

// Redact applies the configured redactor.
func (translator ErrorTranslator) Redact(text string) string {
	if translator.redactor == nil {
		return text
	}
	return translator.redactor(text)
}

// ReturnCodeFailure builds the translated error for a child that exited with exitCode.
func (translator ErrorTranslator) ReturnCodeFailure(command ShellCommand, exitCode int) error {
	return translator.Translate(command, ReturnCodeError{
		ExitCode: exitCode,
		Message:  fmt.Sprintf(returnCodeMessageTemplateConstant, exitCode),
	})
}

// Translate wraps failure for command. Failures carrying a ReturnCodeError stay
// ReturnCodeError; everything else becomes ExceptionError wrapping failure.
func (translator ErrorTranslator) Translate(command ShellCommand, failure error) error {
	if failure == nil {
		return nil
	}

	redactedCommandLine := translator.Redact(command.CommandLine())

	returnCodeFailure := ReturnCodeError{}
	if errors.As(failure, &returnCodeFailure) {
		return ReturnCodeError{
			ExitCode:    returnCodeFailure.ExitCode,
			CommandLine: redactedCommandLine,
			Message:     translator.formatMessage(returnCodeFailure.Message, redactedCommandLine),
		}
	}

	return ExceptionError{
		CommandLine: redactedCommandLine,
		Message:     translator.formatMessage(failure.Error(), redactedCommandLine),
		Cause:       failure,
	}
}

func (translator ErrorTranslator) formatMessage(failureMessage string, redactedCommandLine string) string {
	if len(failureMessage) == 0 {
		failureMessage = unknownFailureMessageConstant
	}
	return fmt.Sprintf(translatedMessageTemplateConstant, translator.Redact(failureMessage), redactedCommandLine)
}
