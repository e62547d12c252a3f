package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/OtoHubID/otohub_api/internal/service"
	"github.com/OtoHubID/otohub_api/internal/utils"
)

// CheckoutHandler handles selection session HTTP endpoints.
type CheckoutHandler struct {
	checkoutService *service.CheckoutService
}

// NewCheckoutHandler constructs a CheckoutHandler.
func NewCheckoutHandler(checkoutService *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

type createSessionRequest struct {
	ModelID int `json:"modelId" binding:"required"`
}

type selectTrimRequest struct {
	TrimID int `json:"trimId" binding:"required"`
}

type selectColorRequest struct {
	ColorID int `json:"colorId" binding:"required"`
}

type selectRegionRequest struct {
	RegionID string `json:"regionId" binding:"required"`
}

type selectDealerRequest struct {
	DealerID string `json:"dealerId" binding:"required"`
}

type choosePlanRequest struct {
	OfferID int `json:"offerId" binding:"required"`
}

// CreateSession handles POST /v1/checkout/sessions
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "MISSING_FIELD", "modelId is required")
		return
	}

	v, err := h.checkoutService.CreateSession(c.Request.Context(), req.ModelID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 201, "Session created", v)
}

// GetSession handles GET /v1/checkout/sessions/:sessionId
func (h *CheckoutHandler) GetSession(c *gin.Context) {
	v, err := h.checkoutService.GetSession(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Session retrieved", v)
}

// AbandonSession handles DELETE /v1/checkout/sessions/:sessionId
func (h *CheckoutHandler) AbandonSession(c *gin.Context) {
	if err := h.checkoutService.AbandonSession(c.Request.Context(), c.Param("sessionId")); err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Session abandoned", nil)
}

// SelectTrim handles POST /v1/checkout/sessions/:sessionId/trim
func (h *CheckoutHandler) SelectTrim(c *gin.Context) {
	var req selectTrimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "MISSING_FIELD", "trimId is required")
		return
	}

	v, err := h.checkoutService.SelectTrim(c.Request.Context(), c.Param("sessionId"), req.TrimID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Trim selected", v)
}

// SelectColor handles POST /v1/checkout/sessions/:sessionId/color
func (h *CheckoutHandler) SelectColor(c *gin.Context) {
	var req selectColorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "MISSING_FIELD", "colorId is required")
		return
	}

	v, err := h.checkoutService.SelectColor(c.Request.Context(), c.Param("sessionId"), req.ColorID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Color selected", v)
}

// ChooseCash handles POST /v1/checkout/sessions/:sessionId/cash
func (h *CheckoutHandler) ChooseCash(c *gin.Context) {
	v, err := h.checkoutService.ChooseCash(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Cash purchase selected", v)
}

// ChooseInstallment handles POST /v1/checkout/sessions/:sessionId/installment
func (h *CheckoutHandler) ChooseInstallment(c *gin.Context) {
	v, err := h.checkoutService.ChooseInstallment(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Installment purchase selected", v)
}

// SelectRegion handles POST /v1/checkout/sessions/:sessionId/region
func (h *CheckoutHandler) SelectRegion(c *gin.Context) {
	var req selectRegionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "MISSING_FIELD", "regionId is required")
		return
	}

	v, err := h.checkoutService.SelectRegion(c.Request.Context(), c.Param("sessionId"), req.RegionID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Region selected", v)
}

// SelectDealer handles POST /v1/checkout/sessions/:sessionId/dealer
func (h *CheckoutHandler) SelectDealer(c *gin.Context) {
	var req selectDealerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "MISSING_FIELD", "dealerId is required")
		return
	}

	v, err := h.checkoutService.SelectDealer(c.Request.Context(), c.Param("sessionId"), req.DealerID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Dealer selected", v)
}

// ChoosePlan handles POST /v1/checkout/sessions/:sessionId/plan
func (h *CheckoutHandler) ChoosePlan(c *gin.Context) {
	var req choosePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "MISSING_FIELD", "offerId is required")
		return
	}

	v, err := h.checkoutService.ChoosePlan(c.Request.Context(), c.Param("sessionId"), req.OfferID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Installment plan selected", v)
}

// GetDealerBreakdown handles GET /v1/checkout/sessions/:sessionId/dealers
func (h *CheckoutHandler) GetDealerBreakdown(c *gin.Context) {
	breakdown, err := h.checkoutService.DealerBreakdown(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Dealer breakdown retrieved", breakdown)
}

// RequestChallenge handles POST /v1/checkout/sessions/:sessionId/captcha
func (h *CheckoutHandler) RequestChallenge(c *gin.Context) {
	v, err := h.checkoutService.RequestChallenge(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Challenge issued", v)
}

// Submit handles POST /v1/checkout/sessions/:sessionId/submit
func (h *CheckoutHandler) Submit(c *gin.Context) {
	var req service.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "CAPTCHA_REQUIRED", "CAPTCHA code is required")
		return
	}

	res, err := h.checkoutService.Submit(c.Request.Context(), c.Param("sessionId"), &req)
	if err != nil {
		// A rejected contract still produced a reservation record; return
		// it alongside the error code so the frontend can show the retry
		// screen with the failure reason.
		if err == utils.ErrContractRejected && res != nil {
			utils.Error(c, 422, "CONTRACT_REJECTED", "Submission rejected by backend")
			return
		}
		h.handleError(c, err)
		return
	}
	utils.Success(c, 201, "Submission accepted", res)
}

func (h *CheckoutHandler) handleError(c *gin.Context, err error) {
	switch err {
	case utils.ErrModelNotFound:
		utils.Error(c, 404, "MODEL_NOT_FOUND", "Model not found")
	case utils.ErrTrimNotFound:
		utils.Error(c, 404, "TRIM_NOT_FOUND", "Trim not found")
	case utils.ErrColorNotFound:
		utils.Error(c, 404, "COLOR_NOT_FOUND", "Color not found")
	case utils.ErrDealerNotFound:
		utils.Error(c, 404, "DEALER_NOT_FOUND", "Dealer not found")
	case utils.ErrRegionNotFound:
		utils.Error(c, 404, "REGION_NOT_FOUND", "Unknown region")
	case utils.ErrSessionNotFound:
		utils.Error(c, 404, "SESSION_NOT_FOUND", "Session not found or expired")
	case utils.ErrIllegalTransition:
		utils.Error(c, 409, "ILLEGAL_TRANSITION", "Action not allowed in current state")
	case utils.ErrColorTrimMismatch:
		utils.Error(c, 400, "COLOR_TRIM_MISMATCH", "Color does not belong to the selected trim")
	case utils.ErrDealerOutOfRegion:
		utils.Error(c, 400, "DEALER_OUT_OF_REGION", "Dealer does not belong to the selected region")
	case utils.ErrOfferTrimMismatch:
		utils.Error(c, 400, "OFFER_TRIM_MISMATCH", "Offer does not apply to the selected trim")
	case utils.ErrNoFinancing:
		utils.Error(c, 400, "NO_FINANCING", "No financing available for the selected trim")
	case utils.ErrStaleSelection:
		utils.Error(c, 409, "STALE_SELECTION", "Selection changed while the query was in flight")
	case utils.ErrCaptchaRequired:
		utils.Error(c, 400, "CAPTCHA_REQUIRED", "CAPTCHA code is required")
	case utils.ErrConsentRequired:
		utils.Error(c, 400, "CONSENT_REQUIRED", "Terms consent is required")
	case utils.ErrCaptchaRejected:
		utils.Error(c, 422, "CAPTCHA_REJECTED", "CAPTCHA verification failed")
	case utils.ErrRetryLocked:
		utils.Error(c, 429, "RETRY_LOCKED", "Retry is locked, wait for the cooldown")
	case utils.ErrTooManyAttempts:
		utils.Error(c, 429, "TOO_MANY_ATTEMPTS", "Attempt limit reached for this session")
	case utils.ErrDuplicateSubmit:
		utils.Error(c, 409, "DUPLICATE_SUBMIT", "A submission for this selection is already in flight")
	case utils.ErrSessionCorrupted:
		utils.Error(c, 409, "SESSION_CORRUPTED", "Session state is inconsistent, restart the selection")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
	}
}
