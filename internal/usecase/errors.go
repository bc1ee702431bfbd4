package usecase

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind はエラーの分類。HTTPステータスへの対応もここで持つ。
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindTransaction  ErrorKind = "transaction"
	KindStorage      ErrorKind = "storage"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
)

// Status は分類に対応するHTTPステータス。
func (k ErrorKind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// Internal はクライアントに詳細を見せない分類か。
func (k ErrorKind) Internal() bool {
	return k == KindTransaction || k == KindStorage
}

// AppError は usecase が返すエラー。
// Err は原因（ログ用）で、レスポンスには出さない。
type AppError struct {
	Kind    ErrorKind
	Message string
	Details []string
	Err     error
}

func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if len(e.Details) > 0 {
		msg += " (" + strings.Join(e.Details, "; ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AppError) Unwrap() error { return e.Err }

func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	ok := errors.As(err, &ae)
	return ae, ok
}

// IsKind は err が kind の AppError かを返す。
func IsKind(err error, kind ErrorKind) bool {
	ae, ok := AsAppError(err)
	return ok && ae.Kind == kind
}

func NewValidationError(message string, details ...string) error {
	return &AppError{Kind: KindValidation, Message: message, Details: details}
}

func NewNotFoundError(message string) error {
	return &AppError{Kind: KindNotFound, Message: message}
}

func NewConflictError(message string) error {
	return &AppError{Kind: KindConflict, Message: message}
}

func NewTransactionError(cause error) error {
	return &AppError{Kind: KindTransaction, Message: "checkout could not be completed", Err: cause}
}

func NewStorageError(cause error) error {
	return &AppError{Kind: KindStorage, Message: "internal error", Err: cause}
}

func NewUnauthorizedError() error {
	return &AppError{Kind: KindUnauthorized, Message: "unauthorized"}
}

func NewForbiddenError() error {
	return &AppError{Kind: KindForbidden, Message: "forbidden"}
}
