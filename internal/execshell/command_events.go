package execshell

// CommandEventObserver is notified around every invocation a ShellExecutor makes,
// including attached ones started by System, SafeSystem and QuietSystem.
type CommandEventObserver interface {
	// CommandStarted is called before the child is spawned.
	CommandStarted(command ShellCommand)
	// CommandCompleted is called once the child exited without a runner failure,
	// whatever its exit status; the return code check happens afterwards.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed receives the translated error of an invocation the runner
	// could not complete. It is usually an ExceptionError, or a ReturnCodeError when a
	// stream consumer itself returned one.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// silentCommandEventObserver is installed when no observer is configured.
type silentCommandEventObserver struct{}

func (silentCommandEventObserver) CommandStarted(ShellCommand) {}

func (silentCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

func (silentCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}
