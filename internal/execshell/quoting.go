package execshell

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

const (
	unquotableSpaceConstant        = " "
	unquotableSpaceEscapedConstant = "\\ "
)

// ShellEscapedCommandLine renders the argument vector so a POSIX shell would parse it back into the same words.
func ShellEscapedCommandLine(argumentVector []string) string {
	escapedArguments := make([]string, 0, len(argumentVector))
	for _, argument := range argumentVector {
		escapedArguments = append(escapedArguments, shellEscape(argument))
	}
	return strings.Join(escapedArguments, commandLineArgumentSeparatorConstant)
}

func shellEscape(argument string) string {
	quotedArgument, quoteError := syntax.Quote(argument, syntax.LangBash)
	if quoteError != nil {
		// Null bytes cannot be quoted; keep the argument readable instead.
		return strings.ReplaceAll(argument, unquotableSpaceConstant, unquotableSpaceEscapedConstant)
	}
	return quotedArgument
}
