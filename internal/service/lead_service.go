package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/sharemycard/sharemycard-backend/internal/email"
	"github.com/sharemycard/sharemycard-backend/internal/notification"
	"github.com/sharemycard/sharemycard-backend/internal/repository"
	"github.com/sharemycard/sharemycard-backend/internal/socket"
	"github.com/sharemycard/sharemycard-backend/internal/types"
)

// ============================================
// Lead Service
// ============================================

// CaptureInput is one public form submission.
type CaptureInput struct {
	Source     Source
	Fields     repository.ContactFields
	Provenance repository.Provenance
}

type LeadService interface {
	Capture(ctx context.Context, input *CaptureInput) (*repository.Lead, error)
	Convert(ctx context.Context, userID string, leadID int64) (int64, error)
	List(ctx context.Context, userID string) ([]*repository.LeadWithSource, error)
	Get(ctx context.Context, userID string, leadID int64) (*repository.LeadWithSource, error)
	Update(ctx context.Context, userID string, leadID int64, input map[string]interface{}) error
	Delete(ctx context.Context, userID string, leadID int64) error
}

type LeadServiceOptions struct {
	PublicBaseURL    string
	DemoAccountEmail string
}

type leadService struct {
	leadRepo    repository.LeadRepository
	sourceRepo  repository.SourceRepository
	notifSvc    *notification.Service
	emailSender email.Sender
	broadcaster *socket.Broadcaster
	opts        LeadServiceOptions
}

func NewLeadService(
	leadRepo repository.LeadRepository,
	sourceRepo repository.SourceRepository,
	notifSvc *notification.Service,
	emailSender email.Sender,
	broadcaster *socket.Broadcaster,
	opts LeadServiceOptions,
) LeadService {
	return &leadService{
		leadRepo:    leadRepo,
		sourceRepo:  sourceRepo,
		notifSvc:    notifSvc,
		emailSender: emailSender,
		broadcaster: broadcaster,
		opts:        opts,
	}
}

func validateCapture(f *repository.ContactFields) error {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.EmailPrimary = strings.TrimSpace(f.EmailPrimary)

	switch {
	case f.FirstName == "":
		return invalid("first_name", requiredMessages["first_name"])
	case f.LastName == "":
		return invalid("last_name", requiredMessages["last_name"])
	case f.EmailPrimary == "":
		return invalid("email_primary", requiredMessages["email_primary"])
	}
	return nil
}

func (s *leadService) resolveSource(ctx context.Context, src Source) (*repository.SourceOwner, error) {
	var (
		owner *repository.SourceOwner
		err   error
	)
	switch src.Kind {
	case types.SourceBusinessCard:
		owner, err = s.sourceRepo.FindActiveCard(ctx, src.ID)
	case types.SourceCustomQRCode:
		owner, err = s.sourceRepo.FindActiveQRCode(ctx, src.ID)
	default:
		return nil, invalid("source", "Business card ID or QR ID is required")
	}
	if err != nil {
		return nil, fmt.Errorf("resolve %s %s: %w", src.Kind, src.ID, err)
	}
	if owner == nil {
		return nil, ErrSourceNotFound
	}
	return owner, nil
}

func (s *leadService) Capture(ctx context.Context, input *CaptureInput) (*repository.Lead, error) {
	if err := validateCapture(&input.Fields); err != nil {
		return nil, err
	}

	owner, err := s.resolveSource(ctx, input.Source)
	if err != nil {
		return nil, err
	}

	lead := &repository.Lead{
		UserID:        owner.UserID,
		ContactFields: input.Fields,
		Provenance:    input.Provenance,
		Status:        types.LeadNew,
	}
	lead.FullName = fullName(lead.FirstName, lead.LastName)
	sourceID := owner.SourceID
	if input.Source.IsCard() {
		lead.BusinessCardID = &sourceID
	} else {
		lead.CustomQRCodeID = &sourceID
	}

	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}
	log.Printf("[Lead] ✅ Captured lead %d for user %s via %s %s", lead.ID, owner.UserID, owner.Kind, owner.SourceID)

	s.notifyOwner(ctx, lead, owner)
	s.sendConfirmation(lead, owner, input.Source)

	return lead, nil
}

func (s *leadService) notifyOwner(ctx context.Context, lead *repository.Lead, owner *repository.SourceOwner) {
	if s.notifSvc != nil {
		if err := s.notifSvc.SendLeadCaptured(ctx, owner.UserID, lead, owner); err != nil {
			log.Printf("[Lead] ⚠️  notification for lead %d failed: %v", lead.ID, err)
		}
	}
	s.broadcaster.BroadcastLeadCaptured(owner.UserID, map[string]interface{}{
		"id":            lead.ID,
		"full_name":     lead.FullName,
		"email_primary": lead.EmailPrimary,
		"source_type":   owner.Kind,
		"created_at":    lead.CreatedAt,
	})
}

// sendConfirmation is best effort: failures are logged, never returned.
func (s *leadService) sendConfirmation(lead *repository.Lead, owner *repository.SourceOwner, src Source) {
	if s.emailSender == nil {
		return
	}
	if strings.EqualFold(owner.OwnerEmail, s.opts.DemoAccountEmail) {
		log.Printf("[Lead] Skipping confirmation email for demo account (lead %d)", lead.ID)
		return
	}

	fromName := owner.DisplayName
	if fromName == "" {
		fromName = owner.OwnerName
	}
	data := email.LeadConfirmationData{
		ToName:    lead.FullName,
		FromName:  fromName,
		FromEmail: owner.OwnerEmail,
		CardURL:   s.sourceURL(src),
	}
	if err := s.emailSender.SendLeadConfirmation(lead.EmailPrimary, data); err != nil {
		log.Printf("[Lead] ⚠️  confirmation email for lead %d failed: %v", lead.ID, err)
	}
}

func (s *leadService) sourceURL(src Source) string {
	if s.opts.PublicBaseURL == "" {
		return ""
	}
	if src.IsCard() {
		return s.opts.PublicBaseURL + "/card.php?id=" + url.QueryEscape(src.ID)
	}
	return s.opts.PublicBaseURL + "/qr/" + url.PathEscape(src.ID)
}

func (s *leadService) Convert(ctx context.Context, userID string, leadID int64) (int64, error) {
	if leadID <= 0 {
		return 0, invalid("lead_id", "Lead ID is required")
	}

	contactID, err := s.leadRepo.Convert(ctx, leadID, userID)
	switch {
	case errors.Is(err, repository.ErrLeadNotFound):
		return 0, ErrNotFound
	case errors.Is(err, repository.ErrAlreadyConverted):
		return 0, ErrAlreadyConverted
	case err != nil:
		return 0, fmt.Errorf("convert lead %d: %w", leadID, err)
	}

	log.Printf("[Lead] ✅ Lead %d converted to contact %d by user %s", leadID, contactID, userID)
	s.broadcaster.BroadcastLeadConverted(userID, leadID, contactID)
	return contactID, nil
}

func (s *leadService) List(ctx context.Context, userID string) ([]*repository.LeadWithSource, error) {
	leads, err := s.leadRepo.FindByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}

func (s *leadService) Get(ctx context.Context, userID string, leadID int64) (*repository.LeadWithSource, error) {
	lead, err := s.leadRepo.FindByID(ctx, leadID, userID)
	if err != nil {
		return nil, fmt.Errorf("get lead %d: %w", leadID, err)
	}
	if lead == nil {
		return nil, ErrNotFound
	}
	return lead, nil
}

func (s *leadService) Update(ctx context.Context, userID string, leadID int64, input map[string]interface{}) error {
	if leadID <= 0 {
		return invalid("id", "Lead ID is required")
	}
	fields, err := filterUpdate(input, leadUpdatableFields, leadRequiredFields)
	if err != nil {
		return err
	}

	current, err := s.Get(ctx, userID, leadID)
	if err != nil {
		return err
	}
	applyNames(fields, current.FirstName, current.LastName)

	err = s.leadRepo.Update(ctx, leadID, userID, fields)
	if errors.Is(err, repository.ErrLeadNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update lead %d: %w", leadID, err)
	}
	s.broadcaster.BroadcastLeadUpdated(userID, leadID)
	return nil
}

func (s *leadService) Delete(ctx context.Context, userID string, leadID int64) error {
	if leadID <= 0 {
		return invalid("id", "Lead ID is required")
	}

	err := s.leadRepo.SoftDelete(ctx, leadID, userID)
	switch {
	case errors.Is(err, repository.ErrLeadNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrLeadHasContact):
		return ErrLeadConverted
	case err != nil:
		return fmt.Errorf("delete lead %d: %w", leadID, err)
	}

	log.Printf("[Lead] 🗑️  Lead %d deleted by user %s", leadID, userID)
	s.broadcaster.BroadcastLeadDeleted(userID, leadID)
	return nil
}
