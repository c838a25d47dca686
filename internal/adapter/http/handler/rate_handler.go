package handler

import (
	"time"

	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/adapter/http/dto"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/ports"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/pkg/apperror"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/pkg/response"

	"github.com/gin-gonic/gin"
)

// RateHandler handles the published exchange rate endpoint.
type RateHandler struct {
	rateSvc ports.RateService
}

// NewRateHandler creates a new RateHandler.
func NewRateHandler(rateSvc ports.RateService) *RateHandler {
	return &RateHandler{rateSvc: rateSvc}
}

// List handles GET /api/v1/rates. An optional date query parameter
// (YYYY-MM-DD) returns the rates as they stood on that day.
func (h *RateHandler) List(c *gin.Context) {
	asOf := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, apperror.Validation("date must be formatted as YYYY-MM-DD"))
			return
		}
		asOf = parsed
	}

	quotes, err := h.rateSvc.ListLatest(c.Request.Context(), asOf)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.RateResponse, 0, len(quotes))
	for _, q := range quotes {
		items = append(items, dto.RateResponse{
			Currency: q.Currency,
			Date:     q.Date.Format("2006-01-02"),
			Rate:     q.Rate.String(),
		})
	}

	response.OK(c, dto.RateListResponse{Items: items})
}
