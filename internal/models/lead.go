package models

import (
	"time"
)

// ============================================
// Lead DTOs
// ============================================

// CaptureLeadRequest is the public capture form. Presence checks happen in
// the service so each missing field gets its own message.
type CaptureLeadRequest struct {
	BusinessCardID   string `form:"business_card_id" json:"business_card_id"`
	QRID             string `form:"qr_id" json:"qr_id"`
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
}

type ConvertLeadRequest struct {
	LeadID FlexInt64 `json:"lead_id"`
}

// ContactFieldsResponse is the person block shared by leads and contacts.
type ContactFieldsResponse struct {
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	FullName         string  `json:"full_name"`
	WorkPhone        *string `json:"work_phone"`
	MobilePhone      *string `json:"mobile_phone"`
	EmailPrimary     string  `json:"email_primary"`
	StreetAddress    *string `json:"street_address"`
	City             *string `json:"city"`
	State            *string `json:"state"`
	ZipCode          *string `json:"zip_code"`
	Country          *string `json:"country"`
	OrganizationName *string `json:"organization_name"`
	JobTitle         *string `json:"job_title"`
	Birthdate        *string `json:"birthdate"`
	WebsiteURL       *string `json:"website_url"`
	PhotoURL         *string `json:"photo_url"`
	CommentsFromLead *string `json:"comments_from_lead"`
	Notes            *string `json:"notes"`
}

type ProvenanceResponse struct {
	IPAddress *string `json:"ip_address"`
	UserAgent *string `json:"user_agent"`
	Referrer  *string `json:"referrer"`
}

type LeadResponse struct {
	ID             int64   `json:"id"`
	UserID         string  `json:"user_id"`
	BusinessCardID *string `json:"id_business_card"`
	CustomQRCodeID *string `json:"id_custom_qr_code"`
	SourceType     string  `json:"source_type"`
	ContactFieldsResponse
	ProvenanceResponse
	Status      string     `json:"status"`
	IsConverted bool       `json:"is_converted"`
	ConvertedAt *time.Time `json:"converted_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	CardFirstName *string `json:"card_first_name,omitempty"`
	CardLastName  *string `json:"card_last_name,omitempty"`
	CardCompany   *string `json:"card_company,omitempty"`
	CardJobTitle  *string `json:"card_job_title,omitempty"`
	QRTitle       *string `json:"qr_title,omitempty"`
	QRType        *string `json:"qr_type,omitempty"`
}
