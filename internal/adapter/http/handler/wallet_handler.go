package handler

import (
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/adapter/http/dto"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/adapter/http/middleware"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/domain"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/ports"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/pkg/apperror"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletHandler handles wallet lifecycle, history and deposit endpoints.
type WalletHandler struct {
	walletSvc     ports.WalletService
	settlementSvc ports.SettlementService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService, settlementSvc ports.SettlementService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc, settlementSvc: settlementSvc}
}

// Create handles POST /api/v1/wallets.
func (h *WalletHandler) Create(c *gin.Context) {
	accountID, ok := c.Get(middleware.CtxAccountID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	wallet, err := h.walletSvc.Create(c.Request.Context(), accountID.(uuid.UUID), req.Currency)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toWalletResponse(wallet))
}

// List handles GET /api/v1/wallets.
func (h *WalletHandler) List(c *gin.Context) {
	accountID, ok := c.Get(middleware.CtxAccountID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wallets, err := h.walletSvc.List(c.Request.Context(), accountID.(uuid.UUID))
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.WalletResponse, 0, len(wallets))
	for i := range wallets {
		items = append(items, toWalletResponse(&wallets[i]))
	}

	response.OK(c, dto.WalletListResponse{Items: items, Total: len(items)})
}

// Delete handles DELETE /api/v1/wallets/:number.
func (h *WalletHandler) Delete(c *gin.Context) {
	accountID, ok := c.Get(middleware.CtxAccountID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	number := c.Param("number")
	if !domain.ValidAccountNumber(number) {
		response.Error(c, apperror.ErrWalletNotFound())
		return
	}

	if err := h.walletSvc.Delete(c.Request.Context(), accountID.(uuid.UUID), number); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"account_number": number, "status": string(domain.WalletStatusDeleted)})
}

// History handles GET /api/v1/wallets/:number/transactions.
func (h *WalletHandler) History(c *gin.Context) {
	accountID, ok := c.Get(middleware.CtxAccountID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	number := c.Param("number")
	if !domain.ValidAccountNumber(number) {
		response.Error(c, apperror.ErrWalletNotFound())
		return
	}

	records, err := h.walletSvc.History(c.Request.Context(), accountID.(uuid.UUID), number)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(records))
	for i := range records {
		items = append(items, toTransactionResponse(&records[i]))
	}

	response.OK(c, dto.TransactionListResponse{Items: items, Total: len(items)})
}

// Deposit handles POST /api/v1/wallets/:number/deposits.
func (h *WalletHandler) Deposit(c *gin.Context) {
	accountID, ok := c.Get(middleware.CtxAccountID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	number := c.Param("number")
	if !domain.ValidAccountNumber(number) {
		response.Error(c, apperror.ErrWalletNotFound())
		return
	}

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.Error(c, apperror.Validation("amount is not a valid decimal"))
		return
	}

	record, err := h.settlementSvc.Deposit(c.Request.Context(), ports.DepositRequest{
		AccountID:     accountID.(uuid.UUID),
		AccountNumber: number,
		Amount:        amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(record))
}

// toWalletResponse converts domain.Wallet to DTO.
func toWalletResponse(w *domain.Wallet) dto.WalletResponse {
	return dto.WalletResponse{
		AccountNumber: w.AccountNumber,
		Currency:      w.Currency,
		Balance:       w.Balance.StringFixed(2),
		Status:        string(w.Status),
		CreatedAt:     w.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// toTransactionResponse converts domain.TransactionRecord to DTO.
func toTransactionResponse(r *domain.TransactionRecord) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:                       r.ID.String(),
		SourceAccountNumber:      r.SourceNumber,
		SourceCurrency:           r.SourceCurrency,
		DestinationAccountNumber: r.DestinationNumber,
		DestinationCurrency:      r.DestinationCurrency,
		Amount:                   r.Amount.StringFixed(2),
		Rate:                     r.Rate.String(),
		ResultAmount:             r.ResultAmount.StringFixed(2),
		Visibility:               string(r.Visibility),
		CreatedAt:                r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
