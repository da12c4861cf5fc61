package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sharemycard/sharemycard-backend/internal/api/middleware"
	"github.com/sharemycard/sharemycard-backend/internal/models"
	"github.com/sharemycard/sharemycard-backend/internal/repository"
	"github.com/sharemycard/sharemycard-backend/internal/service"
)

// ============================================
// Lead Handler
// ============================================

type LeadHandler struct {
	leadService service.LeadService
}

// Capture accepts the public form posted from a card or QR landing page.
func (h *LeadHandler) Capture(c *gin.Context) {
	var req models.CaptureLeadRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid form submission")
		return
	}

	src, err := service.ParseSource(req.BusinessCardID, req.QRID)
	if err != nil {
		h.handleCaptureError(c, src, err)
		return
	}

	input := &service.CaptureInput{
		Source: src,
		Fields: requestFields(req.FirstName, req.LastName, req.EmailPrimary, map[string]string{
			"work_phone":         req.WorkPhone,
			"mobile_phone":       req.MobilePhone,
			"street_address":     req.StreetAddress,
			"city":               req.City,
			"state":              req.State,
			"zip_code":           req.ZipCode,
			"country":            req.Country,
			"organization_name":  req.OrganizationName,
			"job_title":          req.JobTitle,
			"birthdate":          req.Birthdate,
			"website_url":        req.WebsiteURL,
			"photo_url":          req.PhotoURL,
			"comments_from_lead": req.CommentsFromLead,
		}),
		Provenance: repository.Provenance{
			IPAddress: optional(middleware.ClientIP(c)),
			UserAgent: optional(c.Request.UserAgent()),
			Referrer:  optional(c.Request.Referer()),
		},
	}

	lead, err := h.leadService.Capture(c.Request.Context(), input)
	if err != nil {
		h.handleCaptureError(c, src, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Thank you for your interest! We'll be in touch soon.",
		"lead_id": lead.ID,
	})
}

func (h *LeadHandler) handleCaptureError(c *gin.Context, src service.Source, err error) {
	if msg, ok := validationMessage(err); ok {
		respondError(c, http.StatusBadRequest, msg)
		return
	}
	if errors.Is(err, service.ErrSourceNotFound) {
		respondError(c, http.StatusNotFound, src.NotFoundMessage())
		return
	}
	log.Printf("❌ [Lead] capture failed: %v", err)
	respondError(c, http.StatusInternalServerError, "An error occurred. Please try again.")
}

func (h *LeadHandler) Convert(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.ConvertLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Lead ID is required")
		return
	}

	contactID, err := h.leadService.Convert(c.Request.Context(), userID, int64(req.LeadID))
	if err != nil {
		h.handleLeadError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Lead converted to contact successfully",
		"data":    gin.H{"contact_id": contactID},
	})
}

func (h *LeadHandler) List(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	leads, err := h.leadService.List(c.Request.Context(), userID)
	if err != nil {
		h.handleLeadError(c, err)
		return
	}

	response := make([]models.LeadResponse, len(leads))
	for i, l := range leads {
		response[i] = toLeadResponse(l)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Leads retrieved successfully",
		"data":    response,
		"count":   len(response),
	})
}

func (h *LeadHandler) Get(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	id, ok := parseID(c.Param("id"))
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid lead ID")
		return
	}

	lead, err := h.leadService.Get(c.Request.Context(), userID, id)
	if err != nil {
		h.handleLeadError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Lead retrieved successfully",
		"data":    toLeadResponse(lead),
	})
}

// Update takes {"id": ..., <field>: <value>, ...}. Unknown keys are ignored.
func (h *LeadHandler) Update(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	id, ok := models.ParseID(body["id"])
	if !ok {
		respondError(c, http.StatusBadRequest, "Lead ID is required")
		return
	}
	delete(body, "id")

	if err := h.leadService.Update(c.Request.Context(), userID, id, body); err != nil {
		h.handleLeadError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Lead updated successfully"})
}

func (h *LeadHandler) Delete(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	id, ok := parseID(c.Query("id"))
	if !ok {
		respondError(c, http.StatusBadRequest, "Lead ID is required")
		return
	}

	if err := h.leadService.Delete(c.Request.Context(), userID, id); err != nil {
		h.handleLeadError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Lead deleted successfully"})
}

func (h *LeadHandler) handleLeadError(c *gin.Context, err error) {
	if msg, ok := validationMessage(err); ok {
		respondError(c, http.StatusBadRequest, msg)
		return
	}
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondError(c, http.StatusNotFound, "Lead not found")
	case errors.Is(err, service.ErrAlreadyConverted):
		respondError(c, http.StatusBadRequest, "Lead has already been converted to a contact")
	case errors.Is(err, service.ErrLeadConverted):
		respondError(c, http.StatusBadRequest, "Cannot delete lead that has been converted to contact")
	case errors.Is(err, service.ErrNoUpdatableFields):
		respondError(c, http.StatusBadRequest, "No valid fields to update")
	default:
		log.Printf("❌ [Lead] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		respondError(c, http.StatusInternalServerError, "An error occurred. Please try again.")
	}
}
