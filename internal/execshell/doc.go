// Package execshell runs external programs such as git for gistore.
//
// OSCommandRunner spawns one child per call and hands the routed standard
// streams to a caller-supplied StreamConsumer while the child runs. Three
// routing modes exist: standard output only, merged standard error, and the
// default three independent streams. Every parent-side stream handle is closed
// exactly once before a call returns, on success and failure alike.
//
// ShellExecutor layers return-code checking, logging and error translation on
// top of a CommandRunner. Every failure leaves the executor as either a
// ReturnCodeError (the child ran and exited non-zero while a check was
// requested) or an ExceptionError (spawning, streaming or waiting failed). Both
// carry the command line after it passed through the configured
// CredentialRedactor.
//
// Callers that write to standard input while the child produces output must
// drain or close the output streams they do not read; otherwise a child blocked
// on a full pipe and a parent blocked on its input can deadlock. No timeout or
// cancellation is provided: a call lasts as long as the child does.
package execshell
