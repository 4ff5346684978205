package task

import "fmt"

// TranslationError means natural-language input could not be turned into a
// command. Input is kept so the caller can retry it as a direct command.
type TranslationError struct {
	Input string
	Err   error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("failed to translate request: %v", e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }

// ExecutionError means the remote command could not be run or reported a
// failure.
type ExecutionError struct {
	Command string
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("failed to execute %q: %v", e.Command, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
