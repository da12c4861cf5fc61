package models

import (
	"encoding/json"
	"time"
)

// ============================================
// Contact DTOs
// ============================================

type CreateContactRequest struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	EmailPrimary     string `json:"email_primary"`
	WorkPhone        string `json:"work_phone"`
	MobilePhone      string `json:"mobile_phone"`
	StreetAddress    string `json:"street_address"`
	City             string `json:"city"`
	State            string `json:"state"`
	ZipCode          string `json:"zip_code"`
	Country          string `json:"country"`
	OrganizationName string `json:"organization_name"`
	JobTitle         string `json:"job_title"`
	Birthdate        string `json:"birthdate"`
	WebsiteURL       string `json:"website_url"`
	PhotoURL         string `json:"photo_url"`
	CommentsFromLead string `json:"comments_from_lead"`
	Notes            string `json:"notes"`
}

// ScanContactRequest is posted by the in-app QR scanner, as a form or JSON.
type ScanContactRequest struct {
	FirstName        string `form:"first_name" json:"first_name"`
	LastName         string `form:"last_name" json:"last_name"`
	EmailPrimary     string `form:"email_primary" json:"email_primary"`
	WorkPhone        string `form:"work_phone" json:"work_phone"`
	MobilePhone      string `form:"mobile_phone" json:"mobile_phone"`
	StreetAddress    string `form:"street_address" json:"street_address"`
	City             string `form:"city" json:"city"`
	State            string `form:"state" json:"state"`
	ZipCode          string `form:"zip_code" json:"zip_code"`
	Country          string `form:"country" json:"country"`
	OrganizationName string `form:"organization_name" json:"organization_name"`
	JobTitle         string `form:"job_title" json:"job_title"`
	Birthdate        string `form:"birthdate" json:"birthdate"`
	WebsiteURL       string `form:"website_url" json:"website_url"`
	PhotoURL         string `form:"photo_url" json:"photo_url"`
	CommentsFromLead string `form:"comments_from_lead" json:"comments_from_lead"`

	ScanTimestamp string `form:"scan_timestamp" json:"scan_timestamp"`
	DeviceType    string `form:"device_type" json:"device_type"`
	CameraUsed    string `form:"camera_used" json:"camera_used"`
	UserAgent     string `form:"user_agent" json:"user_agent"`
}

type BulkDeleteContactsRequest struct {
	ContactIDs []FlexInt64 `json:"contact_ids"`
}

type BulkDeleteContactsResponse struct {
	DeletedCount  int     `json:"deleted_count"`
	DeletedIDs    []int64 `json:"deleted_ids"`
	RevertedLeads []int64 `json:"reverted_leads"`
}

type ContactResponse struct {
	ID     int64  `json:"id"`
	UserID string `json:"id_user"`
	LeadID *int64 `json:"id_lead"`
	ContactFieldsResponse
	ProvenanceResponse
	Source         string          `json:"source"`
	SourceMetadata json.RawMessage `json:"source_metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
