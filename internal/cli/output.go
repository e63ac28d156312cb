package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	ExitSuccess      = 0
	ExitFailure      = 1 // verification failed
	ExitCommandError = 2 // bad arguments or unreadable input
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func commandError(message string, err error) *ExitError {
	return &ExitError{Code: ExitCommandError, Message: message, Err: err}
}

// ExitCode extracts the exit code from an error. Errors that are not an
// ExitError map to ExitFailure.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// field is one labelled value in text output.
type field struct {
	Label string
	Value string
}

// render writes v as indented JSON or the fields as aligned text lines.
func render(w io.Writer, format string, v any, fields []field) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	width := 0
	for _, f := range fields {
		width = max(width, len(f.Label))
	}
	for _, f := range fields {
		if _, err := fmt.Fprintf(w, "%-*s  %s\n", width+1, f.Label+":", f.Value); err != nil {
			return err
		}
	}
	return nil
}
