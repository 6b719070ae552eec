package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorCode is a stable machine readable error identifier.
type ErrorCode string

const (
	// Generic
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeConflict     ErrorCode = "CONFLICT"

	// Giveaway input
	ErrCodeInvalidDuration ErrorCode = "INVALID_DURATION"
	ErrCodeInvalidWinners  ErrorCode = "INVALID_WINNERS_COUNT"
	ErrCodeInvalidPrize    ErrorCode = "INVALID_PRIZE"

	// Giveaway lifecycle
	ErrCodeGiveawayNotFound   ErrorCode = "GIVEAWAY_NOT_FOUND"
	ErrCodeGiveawayClosed     ErrorCode = "GIVEAWAY_CLOSED"
	ErrCodeAlreadyClosed      ErrorCode = "ALREADY_CLOSED"
	ErrCodeGiveawayOpen       ErrorCode = "GIVEAWAY_OPEN"
	ErrCodeAlreadyJoined      ErrorCode = "ALREADY_JOINED"
	ErrCodeNotEntered         ErrorCode = "NOT_ENTERED"
	ErrCodeNotEligible        ErrorCode = "NOT_ELIGIBLE"
	ErrCodeNoEligibleEntrants ErrorCode = "NO_ELIGIBLE_ENTRANTS"
	ErrCodeTargetNotEligible  ErrorCode = "TARGET_NOT_ELIGIBLE"
	ErrCodeAlreadyWinner      ErrorCode = "ALREADY_WINNER"
	ErrCodeNotAWinner         ErrorCode = "NOT_A_WINNER"

	// Vouches
	ErrCodeAlreadyVouched ErrorCode = "ALREADY_VOUCHED"
	ErrCodeVouchBlocked   ErrorCode = "VOUCH_BLOCKED"
	ErrCodeNoSuchVouch    ErrorCode = "NO_SUCH_VOUCH"

	// Infrastructure
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrCodeCacheError    ErrorCode = "CACHE_ERROR"
	ErrCodeLockTimeout   ErrorCode = "LOCK_TIMEOUT"
	ErrCodeDiscordAPI    ErrorCode = "DISCORD_API_ERROR"
)

// AppError is a typed application error. Two AppErrors are considered the
// same error by errors.Is when their codes match.
type AppError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Stack   []string               `json:"-"`
	Cause   error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) IsNotFound() bool {
	switch e.Code {
	case ErrCodeNotFound, ErrCodeGiveawayNotFound, ErrCodeNoSuchVouch:
		return true
	}
	return false
}

func (e *AppError) IsValidation() bool {
	switch e.Code {
	case ErrCodeValidation, ErrCodeInvalidDuration, ErrCodeInvalidWinners, ErrCodeInvalidPrize:
		return true
	}
	return false
}

func (e *AppError) IsConflict() bool {
	switch e.Code {
	case ErrCodeConflict, ErrCodeGiveawayClosed, ErrCodeAlreadyClosed, ErrCodeGiveawayOpen,
		ErrCodeAlreadyJoined, ErrCodeNotEntered, ErrCodeNotEligible, ErrCodeNoEligibleEntrants,
		ErrCodeTargetNotEligible, ErrCodeAlreadyWinner, ErrCodeNotAWinner,
		ErrCodeAlreadyVouched, ErrCodeVouchBlocked:
		return true
	}
	return false
}

func (e *AppError) IsUnauthorized() bool {
	return e.Code == ErrCodeUnauthorized || e.Code == ErrCodeForbidden
}

// IsTransient marks infrastructure failures that may succeed on retry.
func (e *AppError) IsTransient() bool {
	switch e.Code {
	case ErrCodeDatabaseError, ErrCodeCacheError, ErrCodeLockTimeout:
		return true
	}
	return false
}

func (e *AppError) IsInternal() bool {
	return e.Code == ErrCodeInternal || e.Code == ErrCodeDiscordAPI || e.IsTransient()
}

// WithDetail returns a copy of the error with the detail set, so shared
// sentinel values are never mutated.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	cp := *e
	cp.Details = make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

// WithStack records the current call stack.
func (e *AppError) WithStack() *AppError {
	e.Stack = getStackTrace()
	return e
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

func getStackTrace() []string {
	var stack []string
	for i := 2; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		if strings.Contains(fn.Name(), "internal/common/errors") {
			continue
		}
		stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, fn.Name()))
		if len(stack) >= 10 {
			break
		}
	}
	return stack
}

func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseError, fmt.Sprintf("Database operation failed: %s", operation)).
		WithDetail("operation", operation).
		WithStack()
}

func NewCacheError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeCacheError, fmt.Sprintf("Cache operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewDiscordAPIError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDiscordAPI, fmt.Sprintf("Discord API operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err == nil {
		return nil, false
	}
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// CodeOf returns the code of the first AppError in err's chain, or
// ErrCodeInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}

func IsTransient(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.IsTransient()
}
