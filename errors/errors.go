package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the bridge's call chain the error occurred
type Phase string

const (
	PhaseLoad      Phase = "load"      // payload resolution / factory install
	PhaseBootstrap Phase = "bootstrap" // factory invocation and linking
	PhaseExec      Phase = "exec"      // driving the simulation session
	PhaseDecode    Phase = "decode"    // embedded payload decoding
	PhaseHost      Phase = "host"      // host capability access
)

// Kind categorizes the error
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindFetchFailed   Kind = "fetch_failed"
	KindNoDecoder     Kind = "no_decoder"
	KindInstantiation Kind = "instantiation"
	KindFilesystem    Kind = "filesystem"
	KindLinkFailed    Kind = "link_failed"
	KindInvalidInput  Kind = "invalid_input"
	KindRegistration  Kind = "registration"
	KindRunFailed     Kind = "run_failed"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Cause    error
	Phase    Phase
	Kind     Kind
	Resource string
	Detail   string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Resource != "" {
		b.WriteString(" at ")
		b.WriteString(e.Resource)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Message returns the text reported to the host for err: the structured
// detail line when err carries one, else the error's string form.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := err.(*Error); ok && e.Detail != "" {
		return e.Detail
	}
	return err.Error()
}

// Convenience constructors for common error patterns

// NotFound reports that no resolution strategy produced the resource
func NotFound(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: detail,
	}
}

// Fetch reports a network fetch returning a non-success status
func Fetch(path string, status int) *Error {
	return &Error{
		Phase:    PhaseLoad,
		Kind:     KindFetchFailed,
		Resource: path,
		Detail:   fmt.Sprintf("fetch %s: status %d", path, status),
	}
}

// Decode reports an undecodable embedded payload
func Decode(resource string, cause error) *Error {
	return &Error{
		Phase:    PhaseDecode,
		Kind:     KindNoDecoder,
		Resource: resource,
		Detail:   fmt.Sprintf("decode embedded payload %s", resource),
		Cause:    cause,
	}
}

// Bootstrap reports a rejection during factory invocation
func Bootstrap(op string, cause error) *Error {
	return &Error{
		Phase:  PhaseBootstrap,
		Kind:   KindInstantiation,
		Detail: op,
		Cause:  cause,
	}
}

// Filesystem reports a virtual filesystem failure during bootstrap
func Filesystem(path string, cause error) *Error {
	return &Error{
		Phase:    PhaseBootstrap,
		Kind:     KindFilesystem,
		Resource: path,
		Detail:   fmt.Sprintf("virtual filesystem write %s", path),
		Cause:    cause,
	}
}

// Link reports a dynamic library load failure
func Link(path string, cause error) *Error {
	return &Error{
		Phase:    PhaseBootstrap,
		Kind:     KindLinkFailed,
		Resource: path,
		Detail:   fmt.Sprintf("dynamic library load %s", path),
		Cause:    cause,
	}
}

// Exec reports a failure while driving a simulation session
func Exec(op string, cause error) *Error {
	return &Error{
		Phase:  PhaseExec,
		Kind:   KindRunFailed,
		Detail: op,
		Cause:  cause,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Registration reports a host listener registration failure
func Registration(name string, cause error) *Error {
	return &Error{
		Phase:    PhaseHost,
		Kind:     KindRegistration,
		Resource: name,
		Detail:   fmt.Sprintf("register listener %s", name),
		Cause:    cause,
	}
}
