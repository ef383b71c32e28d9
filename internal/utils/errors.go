package utils

import (
	"errors"
	"net/http"
)

// ErrorKind classifies failures that reach API callers.
type ErrorKind string

const (
	KindDecode       ErrorKind = "DecodeError"
	KindStorageWrite ErrorKind = "StorageWriteError"
	KindStorageRead  ErrorKind = "StorageReadError"
	KindNotFound     ErrorKind = "NotFoundError"
	KindBadRequest   ErrorKind = "BadRequest"
	KindInternal     ErrorKind = "InternalError"
)

// AppError is the error type handlers translate into HTTP responses.
type AppError struct {
	StatusCode int
	Kind       ErrorKind
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewBadRequestError(message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Kind: KindBadRequest, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{StatusCode: http.StatusNotFound, Kind: KindNotFound, Message: message}
}

func NewInternalError(message string) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Kind: KindInternal, Message: message}
}

func NewDecodeError(message string, err error) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Kind: KindDecode, Message: message, Err: err}
}

func NewStorageWriteError(message string, err error) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Kind: KindStorageWrite, Message: message, Err: err}
}

func NewStorageReadError(message string, err error) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Kind: KindStorageRead, Message: message, Err: err}
}

// KindOf returns the kind of an AppError anywhere in err's chain, or
// KindInternal when there is none.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
