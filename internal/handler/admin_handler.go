package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/OtoHubID/otohub_api/internal/models"
	"github.com/OtoHubID/otohub_api/internal/repository"
	"github.com/OtoHubID/otohub_api/internal/utils"
)

// AdminHandler handles back-office endpoints: reservation listings and
// offer/dealer management. Mutations here are direct repository writes;
// storefront reads pick up the changes on the next request.
type AdminHandler struct {
	reservationRepo *repository.ReservationRepository
	offerRepo       *repository.OfferRepository
	dealerRepo      *repository.DealerRepository
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(
	reservationRepo *repository.ReservationRepository,
	offerRepo *repository.OfferRepository,
	dealerRepo *repository.DealerRepository,
) *AdminHandler {
	return &AdminHandler{
		reservationRepo: reservationRepo,
		offerRepo:       offerRepo,
		dealerRepo:      dealerRepo,
	}
}

// ListReservations handles GET /v1/admin/reservations
func (h *AdminHandler) ListReservations(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	status := c.Query("status")

	list, total, err := h.reservationRepo.List(c.Request.Context(), status, page, limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
		return
	}
	utils.SuccessWithPagination(c, 200, "Reservations retrieved", list, page, limit, total)
}

// GetReservation handles GET /v1/admin/reservations/:reservationId
func (h *AdminHandler) GetReservation(c *gin.Context) {
	res, err := h.reservationRepo.GetByReservationID(c.Request.Context(), c.Param("reservationId"))
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
		return
	}
	if res == nil {
		utils.Error(c, 404, "RESERVATION_NOT_FOUND", "Reservation not found")
		return
	}
	utils.Success(c, 200, "Reservation retrieved", res)
}

// CreateOffer handles POST /v1/admin/offers
func (h *AdminHandler) CreateOffer(c *gin.Context) {
	var offer models.PromotionOffer
	if err := c.ShouldBindJSON(&offer); err != nil {
		utils.Error(c, 400, "INVALID_BODY", "Invalid offer payload")
		return
	}
	if offer.ModelID == nil && offer.TrimID == nil {
		utils.Error(c, 400, "MISSING_FIELD", "Offer must attach to a model or a trim")
		return
	}

	if err := h.offerRepo.Create(c.Request.Context(), &offer); err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
		return
	}
	utils.Success(c, 201, "Offer created", offer)
}

// UpdateOffer handles PUT /v1/admin/offers/:offerId
func (h *AdminHandler) UpdateOffer(c *gin.Context) {
	offerID, err := strconv.Atoi(c.Param("offerId"))
	if err != nil {
		utils.Error(c, 400, "INVALID_OFFER_ID", "Offer id must be numeric")
		return
	}

	existing, err := h.offerRepo.GetByID(c.Request.Context(), offerID)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
		return
	}
	if existing == nil {
		utils.Error(c, 404, "OFFER_NOT_FOUND", "Offer not found")
		return
	}

	var offer models.PromotionOffer
	if err := c.ShouldBindJSON(&offer); err != nil {
		utils.Error(c, 400, "INVALID_BODY", "Invalid offer payload")
		return
	}
	offer.ID = offerID

	if err := h.offerRepo.Update(c.Request.Context(), &offer); err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
		return
	}
	utils.Success(c, 200, "Offer updated", offer)
}

// DeleteOffer handles DELETE /v1/admin/offers/:offerId
func (h *AdminHandler) DeleteOffer(c *gin.Context) {
	offerID, err := strconv.Atoi(c.Param("offerId"))
	if err != nil {
		utils.Error(c, 400, "INVALID_OFFER_ID", "Offer id must be numeric")
		return
	}

	if err := h.offerRepo.Delete(c.Request.Context(), offerID); err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
		return
	}
	utils.Success(c, 200, "Offer deleted", nil)
}

// ListDealers handles GET /v1/admin/dealers
func (h *AdminHandler) ListDealers(c *gin.Context) {
	list, err := h.dealerRepo.ListDealers(c.Request.Context())
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
		return
	}
	utils.Success(c, 200, "Dealers retrieved", list)
}

// CreateDealer handles POST /v1/admin/dealers
func (h *AdminHandler) CreateDealer(c *gin.Context) {
	var dealer models.Dealer
	if err := c.ShouldBindJSON(&dealer); err != nil {
		utils.Error(c, 400, "INVALID_BODY", "Invalid dealer payload")
		return
	}
	if !models.IsValidRegion(dealer.RegionID) {
		utils.Error(c, 400, "REGION_NOT_FOUND", "Unknown region")
		return
	}

	if err := h.dealerRepo.Create(c.Request.Context(), &dealer); err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
		return
	}
	utils.Success(c, 201, "Dealer created", dealer)
}

// UpdateDealer handles PUT /v1/admin/dealers/:dealerId
func (h *AdminHandler) UpdateDealer(c *gin.Context) {
	dealerID := c.Param("dealerId")

	existing, err := h.dealerRepo.GetByID(c.Request.Context(), dealerID)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
		return
	}
	if existing == nil {
		utils.Error(c, 404, "DEALER_NOT_FOUND", "Dealer not found")
		return
	}

	var dealer models.Dealer
	if err := c.ShouldBindJSON(&dealer); err != nil {
		utils.Error(c, 400, "INVALID_BODY", "Invalid dealer payload")
		return
	}
	dealer.ID = dealerID
	if !models.IsValidRegion(dealer.RegionID) {
		utils.Error(c, 400, "REGION_NOT_FOUND", "Unknown region")
		return
	}

	if err := h.dealerRepo.Update(c.Request.Context(), &dealer); err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
		return
	}
	utils.Success(c, 200, "Dealer updated", dealer)
}
