package errors

import (
	stdErrors "errors"
	"fmt"
)

type Code string

const (
	CodeValidation  Code = "VALIDATION_ERROR"
	CodeNotFound    Code = "NOT_FOUND"
	CodeRateLimited Code = "RATE_LIMITED"
	CodeGeneration  Code = "GENERATION_FAILED"
	CodeDecode      Code = "DECODE_FAILED"
	CodeEnvironment Code = "ENVIRONMENT_ERROR"
	CodeDependency  Code = "DEPENDENCY_ERROR"
	CodeInternal    Code = "INTERNAL_ERROR"
)

// Metadata describes how callers should treat an error code.
type Metadata struct {
	Retryable bool
	Fatal     bool
	Summary   string
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		Retryable: false,
		Fatal:     false,
		Summary:   "record failed validation",
	},
	CodeNotFound: {
		Retryable: false,
		Fatal:     false,
		Summary:   "resource not found",
	},
	CodeRateLimited: {
		Retryable: true,
		Fatal:     false,
		Summary:   "request throttled",
	},
	CodeGeneration: {
		Retryable: false,
		Fatal:     false,
		Summary:   "generation request rejected",
	},
	CodeDecode: {
		Retryable: false,
		Fatal:     false,
		Summary:   "payload could not be decoded",
	},
	CodeEnvironment: {
		Retryable: false,
		Fatal:     true,
		Summary:   "environment misconfigured",
	},
	CodeDependency: {
		Retryable: false,
		Fatal:     false,
		Summary:   "dependency unavailable",
	},
	CodeInternal: {
		Retryable: false,
		Fatal:     true,
		Summary:   "internal error",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf returns the typed code carried by err, or CodeInternal for untyped errors.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeInternal
}

// IsRetryable reports whether err carries a code whose metadata allows a retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return MetadataFor(CodeOf(err)).Retryable
}
