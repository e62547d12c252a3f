package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/OtoHubID/otohub_api/internal/service"
	"github.com/OtoHubID/otohub_api/internal/utils"
)

// AvailabilityHandler handles stock availability HTTP endpoints.
type AvailabilityHandler struct {
	availabilityService *service.AvailabilityService
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(availabilityService *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilityService: availabilityService}
}

// GetColorAvailability handles GET /v1/availability/trims/:trimId/colors
func (h *AvailabilityHandler) GetColorAvailability(c *gin.Context) {
	trimID, err := strconv.Atoi(c.Param("trimId"))
	if err != nil {
		utils.Error(c, 400, "INVALID_TRIM_ID", "Trim id must be numeric")
		return
	}

	totals, err := h.availabilityService.ColorAvailability(c.Request.Context(), trimID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Color availability retrieved", totals)
}

// GetRegionAvailability handles GET /v1/availability/trims/:trimId/regions
// Optional ?color= narrows to one color; absent means the all-colors map
// overview.
func (h *AvailabilityHandler) GetRegionAvailability(c *gin.Context) {
	trimID, err := strconv.Atoi(c.Param("trimId"))
	if err != nil {
		utils.Error(c, 400, "INVALID_TRIM_ID", "Trim id must be numeric")
		return
	}

	colorID := 0
	if raw := c.Query("color"); raw != "" {
		colorID, err = strconv.Atoi(raw)
		if err != nil {
			utils.Error(c, 400, "INVALID_COLOR_ID", "Color id must be numeric")
			return
		}
	}

	summary, err := h.availabilityService.RegionAvailability(c.Request.Context(), trimID, colorID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Region availability retrieved", summary)
}

// GetDealerAvailability handles GET /v1/availability/dealers
// Requires ?trim=, ?color= and ?region=. This is the sessionless variant;
// the checkout flow uses the session-scoped endpoint instead.
func (h *AvailabilityHandler) GetDealerAvailability(c *gin.Context) {
	trimID, err := strconv.Atoi(c.Query("trim"))
	if err != nil {
		utils.Error(c, 400, "INVALID_TRIM_ID", "trim is required and must be numeric")
		return
	}
	colorID, err := strconv.Atoi(c.Query("color"))
	if err != nil {
		utils.Error(c, 400, "INVALID_COLOR_ID", "color is required and must be numeric")
		return
	}
	regionID := c.Query("region")
	if regionID == "" {
		utils.Error(c, 400, "MISSING_FIELD", "region is required")
		return
	}

	breakdown, err := h.availabilityService.DealerAvailability(c.Request.Context(), trimID, colorID, regionID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Dealer availability retrieved", breakdown)
}

func (h *AvailabilityHandler) handleError(c *gin.Context, err error) {
	switch err {
	case utils.ErrTrimNotFound:
		utils.Error(c, 404, "TRIM_NOT_FOUND", "Trim not found")
	case utils.ErrColorNotFound:
		utils.Error(c, 404, "COLOR_NOT_FOUND", "Color not found for this trim")
	case utils.ErrRegionNotFound:
		utils.Error(c, 404, "REGION_NOT_FOUND", "Unknown region")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
	}
}
