package contract

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup that must succeed finds no record.
var ErrNotFound = errors.New("record not found")

// ErrMalformedResponse marks a remote response that could not be interpreted.
var ErrMalformedResponse = errors.New("malformed response")

// CommandExecutionError reports an external process that failed, timed out or could not start.
type CommandExecutionError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *CommandExecutionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("command %q failed: %v: %s", e.Command, e.Err, e.Stderr)
	}
	return fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
}

func (e *CommandExecutionError) Unwrap() error { return e.Err }

// RemoteMetadataError reports a failed or unintelligible hosted-repository query.
type RemoteMetadataError struct {
	Endpoint   string
	StatusCode int // 0 when no HTTP response was received
	Message    string
	Err        error
}

func (e *RemoteMetadataError) Error() string {
	msg := fmt.Sprintf("remote metadata request to %s failed", e.Endpoint)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *RemoteMetadataError) Unwrap() error { return e.Err }

// IsMalformed reports whether the failure was an unparseable or incomplete response.
func (e *RemoteMetadataError) IsMalformed() bool {
	return errors.Is(e.Err, ErrMalformedResponse)
}

// ConfigurationError reports invalid configuration. It is fatal at startup.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %s", e.Field, e.Message)
}

// ValidationError reports a rejected request argument, such as an unknown sort field.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Message)
}

func configErr(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
