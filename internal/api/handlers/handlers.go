package handlers

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sharemycard/sharemycard-backend/internal/models"
	"github.com/sharemycard/sharemycard-backend/internal/repository"
	"github.com/sharemycard/sharemycard-backend/internal/service"
	"github.com/sharemycard/sharemycard-backend/internal/types"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth         *AuthHandler
	Lead         *LeadHandler
	Contact      *ContactHandler
	Notification *NotificationHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Auth:         &AuthHandler{authService: services.Auth},
		Lead:         &LeadHandler{leadService: services.Lead},
		Contact:      &ContactHandler{contactService: services.Contact},
		Notification: &NotificationHandler{notificationService: services.Notification},
	}
}

// ============================================
// Response Helpers
// ============================================

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// validationMessage returns the client-facing text of a service validation
// error.
func validationMessage(err error) (string, bool) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return ve.Message, true
	}
	return "", false
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// optional maps a blank form value to NULL.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// ============================================
// Response Mappers
// ============================================

func toUserResponse(u *repository.User) models.UserResponse {
	return models.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}

func toNotificationResponse(n *repository.Notification) models.NotificationResponse {
	return models.NotificationResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		Data:      n.Data,
		CreatedAt: n.CreatedAt,
	}
}

func toContactFieldsResponse(f repository.ContactFields) models.ContactFieldsResponse {
	return models.ContactFieldsResponse{
		FirstName:        f.FirstName,
		LastName:         f.LastName,
		FullName:         f.FullName,
		WorkPhone:        f.WorkPhone,
		MobilePhone:      f.MobilePhone,
		EmailPrimary:     f.EmailPrimary,
		StreetAddress:    f.StreetAddress,
		City:             f.City,
		State:            f.State,
		ZipCode:          f.ZipCode,
		Country:          f.Country,
		OrganizationName: f.OrganizationName,
		JobTitle:         f.JobTitle,
		Birthdate:        f.Birthdate,
		WebsiteURL:       f.WebsiteURL,
		PhotoURL:         f.PhotoURL,
		CommentsFromLead: f.CommentsFromLead,
		Notes:            f.Notes,
	}
}

func toProvenanceResponse(p repository.Provenance) models.ProvenanceResponse {
	return models.ProvenanceResponse{
		IPAddress: p.IPAddress,
		UserAgent: p.UserAgent,
		Referrer:  p.Referrer,
	}
}

func toLeadResponse(l *repository.LeadWithSource) models.LeadResponse {
	resp := models.LeadResponse{
		ID:                    l.ID,
		UserID:                l.UserID,
		BusinessCardID:        l.BusinessCardID,
		CustomQRCodeID:        l.CustomQRCodeID,
		ContactFieldsResponse: toContactFieldsResponse(l.ContactFields),
		ProvenanceResponse:    toProvenanceResponse(l.Provenance),
		Status:                l.Status,
		IsConverted:           l.Status == types.LeadConverted,
		ConvertedAt:           l.ConvertedAt,
		CreatedAt:             l.CreatedAt,
		UpdatedAt:             l.UpdatedAt,
		CardFirstName:         l.CardFirstName,
		CardLastName:          l.CardLastName,
		CardCompany:           l.CardCompany,
		CardJobTitle:          l.CardJobTitle,
		QRTitle:               l.QRTitle,
		QRType:                l.QRType,
	}
	// Both source columns are ON DELETE SET NULL, so a lead can outlive its source.
	switch {
	case l.BusinessCardID != nil:
		resp.SourceType = types.SourceBusinessCard
	case l.CustomQRCodeID != nil:
		resp.SourceType = types.SourceCustomQRCode
	}
	return resp
}

func toContactResponse(ct *repository.Contact) models.ContactResponse {
	source := ct.Source
	if source == "" {
		source = ct.SourceType()
	}
	return models.ContactResponse{
		ID:                    ct.ID,
		UserID:                ct.UserID,
		LeadID:                ct.LeadID,
		ContactFieldsResponse: toContactFieldsResponse(ct.ContactFields),
		ProvenanceResponse:    toProvenanceResponse(ct.Provenance),
		Source:                source,
		SourceMetadata:        json.RawMessage(ct.SourceMetadata),
		CreatedAt:             ct.CreatedAt,
		UpdatedAt:             ct.UpdatedAt,
	}
}

// requestFields converts a create/capture payload into stored person fields.
func requestFields(first, last, email string, opt map[string]string) repository.ContactFields {
	return repository.ContactFields{
		FirstName:        first,
		LastName:         last,
		EmailPrimary:     email,
		WorkPhone:        optional(opt["work_phone"]),
		MobilePhone:      optional(opt["mobile_phone"]),
		StreetAddress:    optional(opt["street_address"]),
		City:             optional(opt["city"]),
		State:            optional(opt["state"]),
		ZipCode:          optional(opt["zip_code"]),
		Country:          optional(opt["country"]),
		OrganizationName: optional(opt["organization_name"]),
		JobTitle:         optional(opt["job_title"]),
		Birthdate:        optional(opt["birthdate"]),
		WebsiteURL:       optional(opt["website_url"]),
		PhotoURL:         optional(opt["photo_url"]),
		CommentsFromLead: optional(opt["comments_from_lead"]),
		Notes:            optional(opt["notes"]),
	}
}
