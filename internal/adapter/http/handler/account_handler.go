package handler

import (
	"net/http"
	"time"

	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/adapter/http/dto"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/adapter/http/middleware"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/domain"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/ports"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/pkg/apperror"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AccountHandler handles account provisioning and profile endpoints.
type AccountHandler struct {
	accountSvc ports.AccountService
	tokenSvc   ports.TokenService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc ports.AccountService, tokenSvc ports.TokenService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc, tokenSvc: tokenSvc}
}

// Create handles POST /api/v1/accounts.
func (h *AccountHandler) Create(c *gin.Context) {
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	account, err := h.accountSvc.Create(c.Request.Context(), req.Username, domain.AccountType(req.AccountType))
	if err != nil {
		response.Error(c, err)
		return
	}

	token, expiry, err := h.tokenSvc.Generate(account.ID)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}

	response.Created(c, dto.CreateAccountResponse{
		AccountID:            account.ID.String(),
		Username:             account.Username,
		AccountType:          string(account.Type),
		TransactionAllowance: account.TransactionAllowance,
		WalletAllowance:      account.WalletAllowance,
		Token:                token,
		TokenExpiry:          expiry.Unix(),
	})
}

// Me handles GET /api/v1/accounts/me.
func (h *AccountHandler) Me(c *gin.Context) {
	accountID, ok := c.Get(middleware.CtxAccountID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	account, err := h.accountSvc.Get(c.Request.Context(), accountID.(uuid.UUID))
	if err != nil {
		response.Error(c, err)
		return
	}

	used, _, err := h.accountSvc.MonthlyUsage(c.Request.Context(), account.ID, time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.AccountResponse{
		AccountID:            account.ID.String(),
		Username:             account.Username,
		AccountType:          string(account.Type),
		TransactionAllowance: account.TransactionAllowance,
		WalletAllowance:      account.WalletAllowance,
		MonthlySettlements:   used,
	})
}

// HealthCheck handles GET /health. Pings every registered dependency and
// reports degraded with 503 when any of them fails.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
