package core

// Exit codes for the bgforge process.
// Signal-based exits follow the Unix convention of 128 + signal number.
const (
	// ExitCodeSuccess indicates the workflow reached Done (exit code 0)
	ExitCodeSuccess = 0

	// ExitCodeError indicates the workflow failed: generation, validation,
	// configuration or filesystem error (exit code 1)
	ExitCodeError = 1

	// ExitCodeAborted indicates the user aborted the workflow or the process
	// was interrupted with SIGINT. Convention: 128 + 2 (SIGINT) = 130
	ExitCodeAborted = 130

	// ExitCodeSIGTERM indicates termination due to SIGTERM.
	// Convention: 128 + 15 (SIGTERM) = 143
	ExitCodeSIGTERM = 143
)

// ExitCodeName returns a human-readable name for an exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitCodeSuccess:
		return "success"
	case ExitCodeError:
		return "error"
	case ExitCodeAborted:
		return "aborted"
	case ExitCodeSIGTERM:
		return "terminated (SIGTERM)"
	default:
		return "unknown"
	}
}

// IsSignalExit returns true if the exit code indicates a signal-based
// termination.
func IsSignalExit(code int) bool {
	return code == ExitCodeAborted || code == ExitCodeSIGTERM
}
