package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/OtoHubID/otohub_api/internal/models"
	"github.com/OtoHubID/otohub_api/internal/repository"
	"github.com/OtoHubID/otohub_api/internal/service"
	"github.com/OtoHubID/otohub_api/internal/utils"
)

// CatalogHandler handles catalog and directory HTTP endpoints.
type CatalogHandler struct {
	catalogService *service.CatalogService
	dealerRepo     *repository.DealerRepository
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(catalogService *service.CatalogService, dealerRepo *repository.DealerRepository) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		dealerRepo:     dealerRepo,
	}
}

// ListModels handles GET /v1/catalog/models
func (h *CatalogHandler) ListModels(c *gin.Context) {
	list, err := h.catalogService.ListModels(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Models retrieved", list)
}

// GetModel handles GET /v1/catalog/models/:modelId
func (h *CatalogHandler) GetModel(c *gin.Context) {
	modelID, err := strconv.Atoi(c.Param("modelId"))
	if err != nil {
		utils.Error(c, 400, "INVALID_MODEL_ID", "Model id must be numeric")
		return
	}

	m, err := h.catalogService.GetModel(c.Request.Context(), modelID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Model retrieved", m)
}

// GetTrim handles GET /v1/catalog/trims/:trimId
func (h *CatalogHandler) GetTrim(c *gin.Context) {
	trimID, err := strconv.Atoi(c.Param("trimId"))
	if err != nil {
		utils.Error(c, 400, "INVALID_TRIM_ID", "Trim id must be numeric")
		return
	}

	trim, err := h.catalogService.GetTrim(c.Request.Context(), trimID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Trim retrieved", trim)
}

// ListRegions handles GET /v1/regions
func (h *CatalogHandler) ListRegions(c *gin.Context) {
	utils.Success(c, 200, "Regions retrieved", models.Regions())
}

// ListDealers handles GET /v1/dealers with optional ?region= filter.
func (h *CatalogHandler) ListDealers(c *gin.Context) {
	regionID := c.Query("region")
	if regionID != "" {
		if !models.IsValidRegion(regionID) {
			utils.Error(c, 404, "REGION_NOT_FOUND", "Unknown region")
			return
		}
		list, err := h.dealerRepo.ListByRegion(c.Request.Context(), regionID)
		if err != nil {
			utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
			return
		}
		utils.Success(c, 200, "Dealers retrieved", list)
		return
	}

	list, err := h.dealerRepo.ListDealers(c.Request.Context())
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
		return
	}
	utils.Success(c, 200, "Dealers retrieved", list)
}

func (h *CatalogHandler) handleError(c *gin.Context, err error) {
	switch err {
	case utils.ErrModelNotFound:
		utils.Error(c, 404, "MODEL_NOT_FOUND", "Model not found")
	case utils.ErrTrimNotFound:
		utils.Error(c, 404, "TRIM_NOT_FOUND", "Trim not found")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
	}
}
