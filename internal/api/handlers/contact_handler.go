package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sharemycard/sharemycard-backend/internal/api/middleware"
	"github.com/sharemycard/sharemycard-backend/internal/models"
	"github.com/sharemycard/sharemycard-backend/internal/repository"
	"github.com/sharemycard/sharemycard-backend/internal/service"
)

// ============================================
// Contact Handler
// ============================================

type ContactHandler struct {
	contactService service.ContactService
}

// List returns every contact, or a single one when ?id= is given.
func (h *ContactHandler) List(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	if raw := c.Query("id"); raw != "" {
		h.getOne(c, userID, raw)
		return
	}

	contacts, err := h.contactService.List(c.Request.Context(), userID)
	if err != nil {
		h.handleContactError(c, err)
		return
	}

	response := make([]models.ContactResponse, len(contacts))
	for i, ct := range contacts {
		response[i] = toContactResponse(ct)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Contacts retrieved successfully",
		"data":    response,
		"count":   len(response),
	})
}

func (h *ContactHandler) Get(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	h.getOne(c, userID, c.Param("id"))
}

func (h *ContactHandler) getOne(c *gin.Context, userID, raw string) {
	id, ok := parseID(raw)
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid contact ID")
		return
	}

	contact, err := h.contactService.Get(c.Request.Context(), userID, id)
	if err != nil {
		h.handleContactError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Contact retrieved successfully",
		"data":    toContactResponse(contact),
	})
}

func (h *ContactHandler) ExportVCard(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	id, ok := parseID(c.Param("id"))
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid contact ID")
		return
	}

	filename, body, err := h.contactService.ExportVCard(c.Request.Context(), userID, id)
	if err != nil {
		h.handleContactError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/vcard; charset=utf-8", body)
}

func (h *ContactHandler) Create(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	fields := requestFields(req.FirstName, req.LastName, req.EmailPrimary, map[string]string{
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
		"notes":              req.Notes,
	})

	contact, err := h.contactService.Create(c.Request.Context(), userID, fields)
	if err != nil {
		h.handleContactError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Contact created successfully",
		"data":    toContactResponse(contact),
	})
}

// FromScan stores a contact read by the in-app QR scanner. The email is
// required here, and the scan details are kept as source metadata.
func (h *ContactHandler) FromScan(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.ScanContactRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	input := &service.ScanInput{
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
		ScanTimestamp: req.ScanTimestamp,
		DeviceType:    req.DeviceType,
		CameraUsed:    req.CameraUsed,
		UserAgent:     req.UserAgent,
	}

	contact, err := h.contactService.CreateFromScan(c.Request.Context(), userID, input)
	if msg, ok := validationMessage(err); ok {
		respondError(c, http.StatusBadRequest, msg)
		return
	}
	if err != nil {
		log.Printf("❌ [Contact] QR scan contact for user %s failed: %v", userID, err)
		respondError(c, http.StatusInternalServerError, "An error occurred while creating the contact. Please try again.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"message":      "Contact created successfully from QR scan",
		"contact_id":   contact.ID,
		"contact_name": contact.FullName,
		"source":       contact.Source,
		"metadata":     json.RawMessage(contact.SourceMetadata),
		"data":         toContactResponse(contact),
	})
}

// Update takes {"id": ..., <field>: <value>, ...}. Unknown keys are ignored.
func (h *ContactHandler) Update(c *gin.Context) {
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
		respondError(c, http.StatusBadRequest, "Contact ID is required")
		return
	}
	delete(body, "id")

	if err := h.contactService.Update(c.Request.Context(), userID, id, body); err != nil {
		h.handleContactError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Contact updated successfully"})
}

func (h *ContactHandler) Delete(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	id, ok := parseID(c.Query("id"))
	if !ok {
		respondError(c, http.StatusBadRequest, "Contact ID is required")
		return
	}

	revertedLead, err := h.contactService.Delete(c.Request.Context(), userID, id)
	if err != nil {
		h.handleContactError(c, err)
		return
	}

	if revertedLead != nil {
		c.JSON(http.StatusOK, gin.H{
			"success":          true,
			"message":          "Contact reverted to lead successfully",
			"reverted_to_lead": true,
			"lead_id":          *revertedLead,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"message":          "Contact deleted successfully",
		"reverted_to_lead": false,
	})
}

func (h *ContactHandler) BulkDelete(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.BulkDeleteContactsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	ids := make([]int64, len(req.ContactIDs))
	for i, id := range req.ContactIDs {
		ids[i] = int64(id)
	}

	result, err := h.contactService.BulkDelete(c.Request.Context(), userID, ids)
	if err != nil {
		h.handleContactError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("%d contact(s) deleted", len(result.DeletedIDs)),
		"data": models.BulkDeleteContactsResponse{
			DeletedCount:  len(result.DeletedIDs),
			DeletedIDs:    nonNil(result.DeletedIDs),
			RevertedLeads: nonNil(result.RevertedLeads),
		},
	})
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func (h *ContactHandler) handleContactError(c *gin.Context, err error) {
	if msg, ok := validationMessage(err); ok {
		respondError(c, http.StatusBadRequest, msg)
		return
	}
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondError(c, http.StatusNotFound, "Contact not found")
	case errors.Is(err, service.ErrNoUpdatableFields):
		respondError(c, http.StatusBadRequest, "No valid fields to update")
	default:
		log.Printf("❌ [Contact] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		respondError(c, http.StatusInternalServerError, "An error occurred. Please try again.")
	}
}
