package cli

// ExitError carries a process exit code from a command to main.
type ExitError struct {
	Code   int
	Reason string
}

func (e *ExitError) Error() string {
	return e.Reason
}
