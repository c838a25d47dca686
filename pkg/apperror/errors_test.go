package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	e := New("TRF_001", "Cannot transfer funds to the same wallet", http.StatusBadRequest)
	assert.Equal(t, "[TRF_001] Cannot transfer funds to the same wallet", e.Error())
}

func TestAppError_Error_Wrapped(t *testing.T) {
	inner := fmt.Errorf("row lock timeout")
	e := Wrap("SYS_002", "Internal database error", http.StatusInternalServerError, inner)
	assert.Contains(t, e.Error(), "SYS_002")
	assert.Contains(t, e.Error(), "row lock timeout")
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("boom")
	e := InternalError(inner)
	assert.Equal(t, inner, errors.Unwrap(e))
}

func TestErrorsAs_ThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", ErrInsufficientFunds())

	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, "TRF_003", appErr.Code)
	assert.Equal(t, http.StatusPaymentRequired, appErr.HTTPStatus)
}

func TestValidationPrecedenceCodes(t *testing.T) {
	// Each rejection reason carries its own distinguishable code.
	codes := map[string]*AppError{
		"TRF_001":  ErrSameWalletTransfer(),
		"TRF_002":  ErrNonPositiveAmount(),
		"TRF_003":  ErrInsufficientFunds(),
		"RATE_001": ErrRateUnavailable("EUR"),
	}
	for want, e := range codes {
		assert.Equal(t, want, e.Code)
	}
}

func TestErrRateUnavailable_NamesCurrency(t *testing.T) {
	e := ErrRateUnavailable("CHF")
	assert.Contains(t, e.Message, "CHF")
	assert.Equal(t, http.StatusServiceUnavailable, e.HTTPStatus)
}

func TestErrSettlementConflict_IsTransient(t *testing.T) {
	e := ErrSettlementConflict(fmt.Errorf("serialization failure"))
	assert.Equal(t, "TRF_004", e.Code)
	assert.Equal(t, http.StatusConflict, e.HTTPStatus)
	assert.NotNil(t, errors.Unwrap(e))
}
