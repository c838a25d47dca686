package handler

import (
	"time"

	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/adapter/http/dto"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/adapter/http/middleware"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/ports"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/pkg/apperror"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferHandler handles transfer and estimate endpoints.
type TransferHandler struct {
	settlementSvc ports.SettlementService
	accountSvc    ports.AccountService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(settlementSvc ports.SettlementService, accountSvc ports.AccountService) *TransferHandler {
	return &TransferHandler{settlementSvc: settlementSvc, accountSvc: accountSvc}
}

// Transfer handles POST /api/v1/transfers.
func (h *TransferHandler) Transfer(c *gin.Context) {
	req, ok := h.bindTransfer(c)
	if !ok {
		return
	}

	result, err := h.settlementSvc.SettleTransfer(c.Request.Context(), *req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.TransferResponse{
		SourceAccountNumber:      req.SourceNumber,
		DestinationAccountNumber: req.DestinationNumber,
		Amount:                   req.Amount.StringFixed(2),
		ConvertedAmount:          result.ConvertedAmount.StringFixed(2),
		EffectiveRate:            result.EffectiveRate.String(),
		Spread:                   result.Spread.String(),
		BrokerFee:                result.BrokerFee.StringFixed(2),
		SourceBalance:            result.SourceBalance.StringFixed(2),
		DestinationBalance:       result.DestinationBalance.StringFixed(2),
	})
}

// Estimate handles POST /api/v1/transfers/estimate.
func (h *TransferHandler) Estimate(c *gin.Context) {
	req, ok := h.bindTransfer(c)
	if !ok {
		return
	}

	estimate, err := h.settlementSvc.Estimate(c.Request.Context(), *req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.EstimateResponse{
		Spread:          estimate.Spread.String(),
		EffectiveRate:   estimate.EffectiveRate.String(),
		ConvertedAmount: estimate.ConvertedAmount.StringFixed(2),
	})
}

// bindTransfer parses the request body and resolves the caller's monthly
// usage, which drives the promotional spread selection. On failure it has
// already written the error response.
func (h *TransferHandler) bindTransfer(c *gin.Context) (*ports.TransferRequest, bool) {
	accountID, ok := c.Get(middleware.CtxAccountID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return nil, false
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return nil, false
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.Error(c, apperror.Validation("amount is not a valid decimal"))
		return nil, false
	}

	count, allowance, err := h.accountSvc.MonthlyUsage(c.Request.Context(), accountID.(uuid.UUID), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return nil, false
	}

	return &ports.TransferRequest{
		AccountID:         accountID.(uuid.UUID),
		SourceNumber:      req.SourceAccountNumber,
		DestinationNumber: req.DestinationAccountNumber,
		Amount:            amount,
		MonthlyCount:      count,
		MonthlyAllowance:  allowance,
	}, true
}
