package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
)

// Exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // The command ran and failed (bad manifest, server error)
	ExitCommandError = 2 // The command could not start (bad flags, config, paths)
)

// ExitError carries the process exit code for an error.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// withExit wraps err with code. A nil err stays nil.
func withExit(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

// GetExitCode extracts the exit code from an error. Errors without one
// exit with ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the JSON envelope of --format=json output.
type Response struct {
	Status string `json:"status"` // "ok" or "error"
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Output writes command results as text or a JSON envelope.
type Output struct {
	Format string
	W      io.Writer
}

// Result writes data. In text mode text renders it; a nil text prints data
// with %v.
func (o *Output) Result(data any, text func(w io.Writer)) error {
	if o.Format == "json" {
		return json.NewEncoder(o.W).Encode(Response{Status: "ok", Data: data})
	}
	if text == nil {
		_, err := fmt.Fprintln(o.W, data)
		return err
	}
	text(o.W)
	return nil
}

// Fail reports err and returns it with the exit code attached.
func (o *Output) Fail(code int, err error) error {
	if o.Format == "json" {
		if encErr := json.NewEncoder(o.W).Encode(Response{Status: "error", Error: err.Error()}); encErr != nil {
			return withExit(code, errors.CombineErrors(err, encErr))
		}
	} else {
		fmt.Fprintf(o.W, "Error: %v\n", err)
	}
	return withExit(code, err)
}
