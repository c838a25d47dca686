package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses. Every
// rejection carries a distinguishable code so callers can tell the user
// exactly what to correct.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Transfer validation (TRF) ----

func ErrSameWalletTransfer() *AppError {
	return New("TRF_001", "Cannot transfer funds to the same wallet", http.StatusBadRequest)
}

func ErrNonPositiveAmount() *AppError {
	return New("TRF_002", "Amount must be positive", http.StatusBadRequest)
}

func ErrInsufficientFunds() *AppError {
	return New("TRF_003", "Insufficient funds in source wallet", http.StatusPaymentRequired)
}

func ErrSettlementConflict(err error) *AppError {
	return Wrap("TRF_004", "Settlement conflicted with concurrent activity, try again", http.StatusConflict, err)
}

func ErrClearingUnavailable() *AppError {
	return New("TRF_005", "Clearing wallet cannot cover the conversion, try again later", http.StatusServiceUnavailable)
}

// ---- Rate lookup (RATE) ----

func ErrRateUnavailable(currency string) *AppError {
	return New("RATE_001", fmt.Sprintf("No exchange rate available for %s", currency), http.StatusServiceUnavailable)
}

// ---- Wallet lifecycle (WAL) ----

func ErrWalletNotFound() *AppError {
	return New("WAL_001", "Wallet not found", http.StatusNotFound)
}

func ErrWalletNotEmpty() *AppError {
	return New("WAL_002", "Wallet still holds funds and cannot be deleted", http.StatusConflict)
}

func ErrWalletLimitExceeded() *AppError {
	return New("WAL_003", "Wallet allowance for this account is exhausted", http.StatusUnprocessableEntity)
}

func ErrMasterWalletUnavailable(currency string) *AppError {
	return New("WAL_004", fmt.Sprintf("No clearing wallet configured for %s", currency), http.StatusServiceUnavailable)
}

// ---- Account (ACC) ----

func ErrAccountNotFound() *AppError {
	return New("ACC_001", "Account not found", http.StatusNotFound)
}

func ErrInvalidToken() *AppError {
	return New("ACC_002", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate limiting (LIMIT) ----

func ErrRateLimitExceeded() *AppError {
	return New("LIMIT_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_002", "Internal database error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error with a caller-facing message.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
