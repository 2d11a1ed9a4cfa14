package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a caller-facing failure.
type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeTokenization Code = "TOKENIZATION_ERROR"
	CodeResolution   Code = "RESOLUTION_ERROR"
	CodeSubmission   Code = "SUBMISSION_ERROR"
	CodeConflict     Code = "CONFLICT"
	CodeNotFound     Code = "NOT_FOUND"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeUnavailable  Code = "UNAVAILABLE"
	CodeInternal     Code = "INTERNAL_ERROR"
)

// Metadata describes how a code is presented to callers.
type Metadata struct {
	HTTPStatus int
	// PublicMessage is used when the error carries no message of its own.
	PublicMessage string
	// ExposeMessage allows the error's own message to reach the caller.
	ExposeMessage bool
	// DetailsAllowed allows structured details (field errors) to reach the caller.
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "validation failed",
		ExposeMessage:  true,
		DetailsAllowed: true,
	},
	CodeTokenization: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "the payment method was rejected",
		ExposeMessage:  true,
		DetailsAllowed: true,
	},
	CodeResolution: {
		HTTPStatus:    http.StatusBadGateway,
		PublicMessage: "could not identify customer or save address",
		ExposeMessage: true,
	},
	CodeSubmission: {
		HTTPStatus:    http.StatusBadGateway,
		PublicMessage: "the order could not be placed, please try again",
		ExposeMessage: true,
	},
	CodeConflict: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "conflict detected",
		ExposeMessage: true,
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
		ExposeMessage: true,
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "not authorized",
		ExposeMessage: true,
	},
	CodeUnavailable: {
		HTTPStatus:    http.StatusServiceUnavailable,
		PublicMessage: "the payment gateway is unavailable, please try again",
		ExposeMessage: true,
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		PublicMessage: "internal server error",
	},
}

// MetadataFor returns the presentation metadata of a code, falling back to CodeInternal.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is a coded error with a user-readable message.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and a user-readable message to err.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

// WithDetails returns a copy carrying structured details.
func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	cp := *e
	cp.details = details
	return &cp
}

// Code returns the error code.
func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

// Message returns the user-readable message.
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Details returns the structured details, if any.
func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
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

// As returns the first *Error in err's chain, or nil.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// Public returns the HTTP status, message and details that may be shown to a caller.
// Errors without a code are reported as internal errors with the generic message.
func Public(err error) (int, Code, string, any) {
	typed := As(err)
	if typed == nil {
		meta := MetadataFor(CodeInternal)
		return meta.HTTPStatus, CodeInternal, meta.PublicMessage, nil
	}

	meta := MetadataFor(typed.code)
	msg := meta.PublicMessage
	if meta.ExposeMessage && typed.message != "" {
		msg = typed.message
	}

	var details any
	if meta.DetailsAllowed {
		details = typed.details
	}

	return meta.HTTPStatus, typed.Code(), msg, details
}
