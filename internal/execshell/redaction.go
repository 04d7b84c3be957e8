package execshell

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	redactionMaskConstant                   = "***"
	urlCredentialPatternConstant            = `([A-Za-z][A-Za-z0-9+.\-]*://)[^/\s@]+@`
	urlCredentialReplacementConstant        = "${1}" + redactionMaskConstant + "@"
	redactionPatternCompileTemplateConstant = "invalid redaction pattern %q: %w"
)

var urlCredentialPattern = regexp.MustCompile(urlCredentialPatternConstant)

// CredentialRedactor removes sensitive fragments from diagnostic text.
// Implementations must be idempotent: redacting twice equals redacting once.
type CredentialRedactor func(text string) string

// PassThroughRedactor returns text unchanged. It is the default redactor.
func PassThroughRedactor(text string) string {
	return text
}

// URLCredentialRedactor masks the user information of URLs, e.g. tokens embedded in remote URLs.
func URLCredentialRedactor(text string) string {
	return urlCredentialPattern.ReplaceAllString(text, urlCredentialReplacementConstant)
}

// NewPatternRedactor masks every match of the supplied regular expressions.
// Patterns must not match the mask itself to keep the redactor idempotent.
func NewPatternRedactor(patterns []string) (CredentialRedactor, error) {
	compiledPatterns := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if len(trimmedPattern) == 0 {
			continue
		}
		compiledPattern, compileError := regexp.Compile(trimmedPattern)
		if compileError != nil {
			return nil, fmt.Errorf(redactionPatternCompileTemplateConstant, trimmedPattern, compileError)
		}
		compiledPatterns = append(compiledPatterns, compiledPattern)
	}

	if len(compiledPatterns) == 0 {
		return PassThroughRedactor, nil
	}

	return func(text string) string {
		redactedText := text
		for _, compiledPattern := range compiledPatterns {
			redactedText = compiledPattern.ReplaceAllLiteralString(redactedText, redactionMaskConstant)
		}
		return redactedText
	}, nil
}

// ChainRedactors applies redactors in order, skipping nil entries.
func ChainRedactors(redactors ...CredentialRedactor) CredentialRedactor {
	activeRedactors := make([]CredentialRedactor, 0, len(redactors))
	for _, redactor := range redactors {
		if redactor != nil {
			activeRedactors = append(activeRedactors, redactor)
		}
	}

	if len(activeRedactors) == 0 {
		return PassThroughRedactor
	}

	return func(text string) string {
		redactedText := text
		for _, redactor := range activeRedactors {
			redactedText = redactor(redactedText)
		}
		return redactedText
	}
}
