package internal

import (
	"encoding/json"
	"fmt"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation         ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound           ErrorType = "NOT_FOUND"
	ErrorTypePermissionDenied   ErrorType = "PERMISSION_DENIED"
	ErrorTypeInvariantViolation ErrorType = "INVARIANT_VIOLATION"
	ErrorTypeConflict           ErrorType = "CONFLICT"
	ErrorTypePersistence        ErrorType = "PERSISTENCE_ERROR"
	ErrorTypeAuthentication     ErrorType = "AUTHENTICATION_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed      ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidEmail          ErrorCode = "INVALID_EMAIL"
	ErrCodeInvalidPhone          ErrorCode = "INVALID_PHONE"
	ErrCodeInvalidEmployeeNumber ErrorCode = "INVALID_EMPLOYEE_NUMBER"
	ErrCodeWeakPassword          ErrorCode = "WEAK_PASSWORD"
	ErrCodeInvalidDepartment     ErrorCode = "INVALID_DEPARTMENT"
	ErrCodeInvalidAmount         ErrorCode = "INVALID_AMOUNT"
	ErrCodeInvalidDateRange      ErrorCode = "INVALID_DATE_RANGE"
	ErrCodeInvalidAttendees      ErrorCode = "INVALID_ATTENDEES"

	ErrCodeUserNotFound     ErrorCode = "USER_NOT_FOUND"
	ErrCodeClientNotFound   ErrorCode = "CLIENT_NOT_FOUND"
	ErrCodeContractNotFound ErrorCode = "CONTRACT_NOT_FOUND"
	ErrCodeEventNotFound    ErrorCode = "EVENT_NOT_FOUND"

	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	ErrCodeContractNotSigned ErrorCode = "CONTRACT_NOT_SIGNED"
	ErrCodeContractUnsign    ErrorCode = "CONTRACT_UNSIGN"
	ErrCodeDependentRows     ErrorCode = "DEPENDENT_ROWS"
	ErrCodeLastGestionUser   ErrorCode = "LAST_GESTION_USER"
	ErrCodeNotSupportUser    ErrorCode = "NOT_SUPPORT_USER"
	ErrCodeNotCommercialUser ErrorCode = "NOT_COMMERCIAL_USER"

	ErrCodeDuplicateEmail          ErrorCode = "DUPLICATE_EMAIL"
	ErrCodeDuplicateEmployeeNumber ErrorCode = "DUPLICATE_EMPLOYEE_NUMBER"
	ErrCodeUniqueViolation         ErrorCode = "UNIQUE_VIOLATION"

	ErrCodePersistenceFailed ErrorCode = "PERSISTENCE_FAILED"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeSessionExpired     ErrorCode = "SESSION_EXPIRED"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeNoSession          ErrorCode = "NO_SESSION"
)

type AppError struct {
	Type    ErrorType   `json:"type"`
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Cause   error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Code:    ErrCodeValidationFailed,
		Message: "validation failed",
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Code:    code,
		Message: message,
	}
}

// NewPermissionDeniedError wraps a policy denial. The reason is the
// human-readable rule explanation produced by the evaluator and is
// surfaced to the caller verbatim.
func NewPermissionDeniedError(reason string) *AppError {
	return &AppError{
		Type:    ErrorTypePermissionDenied,
		Code:    ErrCodePermissionDenied,
		Message: reason,
	}
}

func NewInvariantViolationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:    ErrorTypeInvariantViolation,
		Code:    code,
		Message: message,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Code:    code,
		Message: message,
	}
}

func NewPersistenceError(message string, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypePersistence,
		Code:    ErrCodePersistenceFailed,
		Message: message,
		Cause:   cause,
	}
}

func NewAuthenticationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:    ErrorTypeAuthentication,
		Code:    code,
		Message: message,
	}
}

var (
	ErrUserNotFound     = NewNotFoundError("user not found", ErrCodeUserNotFound)
	ErrClientNotFound   = NewNotFoundError("client not found", ErrCodeClientNotFound)
	ErrContractNotFound = NewNotFoundError("contract not found", ErrCodeContractNotFound)
	ErrEventNotFound    = NewNotFoundError("event not found", ErrCodeEventNotFound)

	ErrInvalidCredentials = NewAuthenticationError("invalid email or password", ErrCodeInvalidCredentials)
	ErrSessionExpired     = NewAuthenticationError("session has expired", ErrCodeSessionExpired)
	ErrInvalidToken       = NewAuthenticationError("invalid session token", ErrCodeInvalidToken)
	ErrNoSession          = NewAuthenticationError("no active session", ErrCodeNoSession)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

func IsErrorType(err error, t ErrorType) bool {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Type == t
	}
	return false
}

func IsValidationError(err error) bool {
	return IsErrorType(err, ErrorTypeValidation)
}

func IsNotFoundError(err error) bool {
	return IsErrorType(err, ErrorTypeNotFound)
}

func IsPermissionDeniedError(err error) bool {
	return IsErrorType(err, ErrorTypePermissionDenied)
}

func IsInvariantViolationError(err error) bool {
	return IsErrorType(err, ErrorTypeInvariantViolation)
}

func IsConflictError(err error) bool {
	return IsErrorType(err, ErrorTypeConflict)
}

func IsPersistenceError(err error) bool {
	return IsErrorType(err, ErrorTypePersistence)
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
