package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sharemycard/sharemycard-backend/internal/notification"
	"github.com/sharemycard/sharemycard-backend/internal/repository"
	"github.com/sharemycard/sharemycard-backend/internal/socket"
	"github.com/sharemycard/sharemycard-backend/internal/types"
	"github.com/sharemycard/sharemycard-backend/internal/vcard"
)

// ============================================
// Contact Service
// ============================================

type ContactService interface {
	List(ctx context.Context, userID string) ([]*repository.Contact, error)
	Get(ctx context.Context, userID string, contactID int64) (*repository.Contact, error)
	Create(ctx context.Context, userID string, fields repository.ContactFields) (*repository.Contact, error)
	CreateFromScan(ctx context.Context, userID string, input *ScanInput) (*repository.Contact, error)
	Update(ctx context.Context, userID string, contactID int64, input map[string]interface{}) error
	// Delete returns the id of the lead that went back to "new", if any.
	Delete(ctx context.Context, userID string, contactID int64) (*int64, error)
	BulkDelete(ctx context.Context, userID string, contactIDs []int64) (*repository.BulkDeleteResult, error)
	ExportVCard(ctx context.Context, userID string, contactID int64) (filename string, body []byte, err error)
}

// ScanInput is a contact read from a QR code scanned in the app. Empty scan
// details fall back to the request's own values.
type ScanInput struct {
	Fields        repository.ContactFields
	Provenance    repository.Provenance
	ScanTimestamp string
	DeviceType    string
	CameraUsed    string
	UserAgent     string
}

type contactService struct {
	contactRepo repository.ContactRepository
	notifSvc    *notification.Service
	broadcaster *socket.Broadcaster
}

func NewContactService(
	contactRepo repository.ContactRepository,
	notifSvc *notification.Service,
	broadcaster *socket.Broadcaster,
) ContactService {
	return &contactService{
		contactRepo: contactRepo,
		notifSvc:    notifSvc,
		broadcaster: broadcaster,
	}
}

func (s *contactService) List(ctx context.Context, userID string) ([]*repository.Contact, error) {
	contacts, err := s.contactRepo.FindByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

func (s *contactService) Get(ctx context.Context, userID string, contactID int64) (*repository.Contact, error) {
	if contactID <= 0 {
		return nil, invalid("id", "Contact ID is required")
	}
	contact, err := s.contactRepo.FindByID(ctx, contactID, userID)
	if err != nil {
		return nil, fmt.Errorf("get contact %d: %w", contactID, err)
	}
	if contact == nil {
		return nil, ErrNotFound
	}
	return contact, nil
}

func (s *contactService) Create(ctx context.Context, userID string, fields repository.ContactFields) (*repository.Contact, error) {
	contact := &repository.Contact{
		UserID:        userID,
		ContactFields: fields,
		Source:        types.ContactSourceManual,
	}
	if err := s.create(ctx, contact, false); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *contactService) CreateFromScan(ctx context.Context, userID string, input *ScanInput) (*repository.Contact, error) {
	meta := repository.ScanMetadata{
		ScanTimestamp: strings.TrimSpace(input.ScanTimestamp),
		DeviceType:    strings.TrimSpace(input.DeviceType),
		CameraUsed:    strings.TrimSpace(input.CameraUsed),
		IPAddress:     input.Provenance.IPAddress,
		UserAgent:     optional(input.UserAgent),
		Referrer:      input.Provenance.Referrer,
	}
	if meta.ScanTimestamp == "" {
		meta.ScanTimestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if meta.DeviceType == "" {
		meta.DeviceType = "unknown"
	}
	if meta.CameraUsed == "" {
		meta.CameraUsed = "unknown"
	}
	if meta.UserAgent == nil {
		meta.UserAgent = input.Provenance.UserAgent
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode scan metadata: %w", err)
	}

	contact := &repository.Contact{
		UserID:         userID,
		ContactFields:  input.Fields,
		Provenance:     input.Provenance,
		Source:         types.ContactSourceQRScan,
		SourceMetadata: encoded,
	}
	if err := s.create(ctx, contact, true); err != nil {
		return nil, err
	}
	return contact, nil
}

// create validates names and email, then stores the contact. Scanned
// contacts must carry an email; manual ones may leave it blank.
func (s *contactService) create(ctx context.Context, contact *repository.Contact, requireEmail bool) error {
	fields := &contact.ContactFields
	fields.FirstName = strings.TrimSpace(fields.FirstName)
	fields.LastName = strings.TrimSpace(fields.LastName)
	fields.EmailPrimary = strings.TrimSpace(fields.EmailPrimary)

	switch {
	case fields.FirstName == "":
		return invalid("first_name", requiredMessages["first_name"])
	case fields.LastName == "":
		return invalid("last_name", requiredMessages["last_name"])
	case requireEmail && fields.EmailPrimary == "":
		return invalid("email_primary", requiredMessages["email_primary"])
	case fields.EmailPrimary != "" && !validEmail(fields.EmailPrimary):
		return invalid("email_primary", "Invalid email format")
	}
	fields.FullName = fullName(fields.FirstName, fields.LastName)

	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return fmt.Errorf("create contact: %w", err)
	}

	log.Printf("[Contact] ✅ Contact %d created by user %s (%s)", contact.ID, contact.UserID, contact.Source)
	s.broadcaster.BroadcastContactCreated(contact.UserID, contact.ID)
	return nil
}

func (s *contactService) Update(ctx context.Context, userID string, contactID int64, input map[string]interface{}) error {
	if contactID <= 0 {
		return invalid("id", "Contact ID is required")
	}
	fields, err := filterUpdate(input, contactUpdatableFields, contactRequiredFields)
	if err != nil {
		return err
	}
	if v, ok := fields["email_primary"].(string); ok && v != "" && !validEmail(v) {
		return invalid("email_primary", "Invalid email format")
	}

	current, err := s.Get(ctx, userID, contactID)
	if err != nil {
		return err
	}
	applyNames(fields, current.FirstName, current.LastName)

	err = s.contactRepo.Update(ctx, contactID, userID, fields)
	if errors.Is(err, repository.ErrContactNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update contact %d: %w", contactID, err)
	}
	s.broadcaster.BroadcastContactUpdated(userID, contactID)
	return nil
}

func (s *contactService) Delete(ctx context.Context, userID string, contactID int64) (*int64, error) {
	if contactID <= 0 {
		return nil, invalid("id", "Contact ID is required")
	}

	revertedLead, err := s.contactRepo.SoftDelete(ctx, contactID, userID)
	if errors.Is(err, repository.ErrContactNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete contact %d: %w", contactID, err)
	}

	var reverted []int64
	if revertedLead != nil {
		reverted = []int64{*revertedLead}
		log.Printf("[Contact] ↩️  Contact %d deleted, lead %d reverted", contactID, *revertedLead)
	}
	s.broadcaster.BroadcastContactDeleted(userID, []int64{contactID}, reverted)
	return revertedLead, nil
}

func (s *contactService) BulkDelete(ctx context.Context, userID string, contactIDs []int64) (*repository.BulkDeleteResult, error) {
	ids := make([]int64, 0, len(contactIDs))
	seen := make(map[int64]bool, len(contactIDs))
	for _, id := range contactIDs {
		if id > 0 && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, invalid("contact_ids", "No contact IDs provided")
	}

	result, err := s.contactRepo.SoftDeleteMany(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("bulk delete contacts: %w", err)
	}

	log.Printf("[Contact] 🗑️  Bulk delete by user %s: %d deleted, %d leads reverted",
		userID, len(result.DeletedIDs), len(result.RevertedLeads))
	if len(result.DeletedIDs) > 0 {
		s.broadcaster.BroadcastContactDeleted(userID, result.DeletedIDs, result.RevertedLeads)
	}
	if s.notifSvc != nil {
		if err := s.notifSvc.SendContactsDeleted(ctx, userID, result.DeletedIDs, result.RevertedLeads); err != nil {
			log.Printf("[Contact] ⚠️  bulk delete notification failed: %v", err)
		}
	}
	return result, nil
}

func (s *contactService) ExportVCard(ctx context.Context, userID string, contactID int64) (string, []byte, error) {
	contact, err := s.Get(ctx, userID, contactID)
	if err != nil {
		return "", nil, err
	}

	deref := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	card := vcard.Card{
		FirstName:    contact.FirstName,
		LastName:     contact.LastName,
		Organization: deref(contact.OrganizationName),
		Title:        deref(contact.JobTitle),
		Email:        contact.EmailPrimary,
		WorkPhone:    deref(contact.WorkPhone),
		MobilePhone:  deref(contact.MobilePhone),
		Street:       deref(contact.StreetAddress),
		City:         deref(contact.City),
		State:        deref(contact.State),
		ZipCode:      deref(contact.ZipCode),
		Country:      deref(contact.Country),
		Website:      deref(contact.WebsiteURL),
		Birthdate:    deref(contact.Birthdate),
		Notes:        deref(contact.Notes),
		Comments:     deref(contact.CommentsFromLead),
	}
	body, err := vcard.Encode(card)
	if err != nil {
		return "", nil, fmt.Errorf("export contact %d: %w", contactID, err)
	}
	return vcard.FileName(fullName(contact.FirstName, contact.LastName), contact.ID), body, nil
}
