package core

import (
	"strings"

	"github.com/pkg/errors"
)

// Messages shown to the user when an error carries nothing more useful.
const (
	MsgInvalidData  = "Server returned invalid data. Please try again later."
	MsgNetworkError = "Network error. Please check your connection."
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a local input failure. It never reaches a remote call.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// Field returns the message reported for fld, if any.
func (err ValidationError) Field(fld string) string {
	for _, f := range err.Fields {
		if f.Field == fld {
			return f.Error
		}
	}
	return ""
}

// SessionError means no session could be established or it was lost; the user must log in again.
type SessionError struct {
	message string
}

func NewSessionError(msg string) error {
	return &SessionError{message: msg}
}

func (err SessionError) Error() string {
	return err.message
}

// RemoteError is a failure reported by the backend itself (success:false, non-2xx status).
type RemoteError struct {
	Message string
}

func NewRemoteError(msg string) error {
	return &RemoteError{Message: msg}
}

func (err RemoteError) Error() string {
	if err.Message == "" {
		return "remote request failed"
	}
	return err.Message
}

// ParseError means a response body did not have the expected shape.
type ParseError struct {
	Err error
}

func NewParseError(err error) error {
	return &ParseError{Err: err}
}

func (err ParseError) Error() string {
	if err.Err == nil {
		return "server returned invalid data"
	}
	return "server returned invalid data: " + err.Err.Error()
}

func (err ParseError) Unwrap() error { return err.Err }

// NetworkError wraps a transport failure (dial, timeout, connection reset...).
type NetworkError struct {
	Err error
}

func NewNetworkError(err error) error {
	return &NetworkError{Err: err}
}

func (err NetworkError) Error() string {
	return "Network request failed: " + err.Err.Error()
}

func (err NetworkError) Unwrap() error { return err.Err }

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsSession(err error) bool {
	var target *SessionError
	return errors.As(err, &target)
}

func IsRemote(err error) bool {
	var target *RemoteError
	return errors.As(err, &target)
}

func IsParse(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}

// IsNetwork reports typed network errors and, like the mobile client always did, anything whose
// message mentions the network or the connection.
func IsNetwork(err error) bool {
	var target *NetworkError
	if errors.As(err, &target) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Network") || strings.Contains(msg, "connection")
}

// FriendlyMessage turns err into the text shown in an alert or inline error.
func FriendlyMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var (
		vErr *ValidationError
		rErr *RemoteError
		sErr *SessionError
	)
	switch {
	case errors.As(err, &vErr):
		return vErr.Error()
	case IsParse(err):
		return MsgInvalidData
	case IsNetwork(err):
		return MsgNetworkError
	case errors.As(err, &rErr):
		if rErr.Message != "" {
			return rErr.Message
		}
	case errors.As(err, &sErr):
		if sErr.message != "" {
			return sErr.message
		}
	}
	if fallback != "" {
		return fallback
	}
	return err.Error()
}
