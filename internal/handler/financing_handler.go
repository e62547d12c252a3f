package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/OtoHubID/otohub_api/internal/service"
	"github.com/OtoHubID/otohub_api/internal/utils"
)

// FinancingHandler handles financing HTTP endpoints.
type FinancingHandler struct {
	financingService *service.FinancingService
}

// NewFinancingHandler constructs a FinancingHandler.
func NewFinancingHandler(financingService *service.FinancingService) *FinancingHandler {
	return &FinancingHandler{financingService: financingService}
}

// GetFinancing handles GET /v1/financing/trims/:trimId
func (h *FinancingHandler) GetFinancing(c *gin.Context) {
	trimID, err := strconv.Atoi(c.Param("trimId"))
	if err != nil {
		utils.Error(c, 400, "INVALID_TRIM_ID", "Trim id must be numeric")
		return
	}

	result, err := h.financingService.ResolveForTrim(c.Request.Context(), trimID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Financing retrieved", result)
}

func (h *FinancingHandler) handleError(c *gin.Context, err error) {
	switch err {
	case utils.ErrTrimNotFound:
		utils.Error(c, 404, "TRIM_NOT_FOUND", "Trim not found")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
	}
}
