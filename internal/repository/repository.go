// internal/repository/repository.go
package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sharemycard/sharemycard-backend/internal/types"
)

// ============================================
// In-Memory Repository Implementations (Fallback)
// ============================================

// memoryStore backs every in-memory repository so joins (lead source
// display fields, lead/contact links) behave like the SQL versions.
type memoryStore struct {
	mu sync.RWMutex

	users         map[string]*User
	refreshTokens map[string]*RefreshToken
	cards         map[string]*BusinessCard
	qrCodes       map[string]*CustomQRCode
	leads         map[int64]*Lead
	qrLeads       map[int64]string
	contacts      map[int64]*Contact
	notifications map[string]*Notification

	nextLeadID    int64
	nextContactID int64
}

// NewInMemoryRepositories creates in-memory repositories (for testing/fallback)
func NewInMemoryRepositories() *Repositories {
	store := &memoryStore{
		users:         make(map[string]*User),
		refreshTokens: make(map[string]*RefreshToken),
		cards:         make(map[string]*BusinessCard),
		qrCodes:       make(map[string]*CustomQRCode),
		leads:         make(map[int64]*Lead),
		qrLeads:       make(map[int64]string),
		contacts:      make(map[int64]*Contact),
		notifications: make(map[string]*Notification),
	}
	return &Repositories{
		UserRepo:         &inMemoryUserRepository{store},
		SourceRepo:       &inMemorySourceRepository{store},
		NotificationRepo: &inMemoryNotificationRepository{store},
		LeadRepo:         &inMemoryLeadRepository{store},
		ContactRepo:      &inMemoryContactRepository{store},
	}
}

// ============================================
// Users
// ============================================

type inMemoryUserRepository struct {
	s *memoryStore
}

func (r *inMemoryUserRepository) Create(ctx context.Context, user *User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return fmt.Errorf("duplicate email %s", user.Email)
		}
	}
	user.ID = uuid.New().String()
	user.IsActive = true
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	r.s.users[user.ID] = &stored
	return nil
}

func (r *inMemoryUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if user, ok := r.s.users[id]; ok {
		out := *user
		return &out, nil
	}
	return nil, nil
}

func (r *inMemoryUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, user := range r.s.users {
		if strings.EqualFold(user.Email, email) {
			out := *user
			return &out, nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepository) Update(ctx context.Context, user *User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return nil
	}
	user.UpdatedAt = time.Now()
	stored := *user
	r.s.users[user.ID] = &stored
	return nil
}

func (r *inMemoryUserRepository) SaveRefreshToken(ctx context.Context, token *RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	token.ID = uuid.New().String()
	token.CreatedAt = time.Now()
	stored := *token
	r.s.refreshTokens[token.Token] = &stored
	return nil
}

func (r *inMemoryUserRepository) FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if rt, ok := r.s.refreshTokens[token]; ok {
		out := *rt
		return &out, nil
	}
	return nil, nil
}

func (r *inMemoryUserRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.refreshTokens, token)
	return nil
}

func (r *inMemoryUserRepository) DeleteUserRefreshTokens(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for token, rt := range r.s.refreshTokens {
		if rt.UserID == userID {
			delete(r.s.refreshTokens, token)
		}
	}
	return nil
}

func (r *inMemoryUserRepository) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	deleted := 0
	for token, rt := range r.s.refreshTokens {
		if rt.ExpiresAt.Before(now) {
			delete(r.s.refreshTokens, token)
			deleted++
		}
	}
	return deleted, nil
}

// ============================================
// Business cards and custom QR codes
// ============================================

type inMemorySourceRepository struct {
	s *memoryStore
}

func (r *inMemorySourceRepository) CreateCard(ctx context.Context, card *BusinessCard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	card.ID = uuid.New().String()
	card.CreatedAt = time.Now()
	card.UpdatedAt = card.CreatedAt
	stored := *card
	r.s.cards[card.ID] = &stored
	return nil
}

func (r *inMemorySourceRepository) SetCardActive(ctx context.Context, id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if card, ok := r.s.cards[id]; ok {
		card.IsActive = active
		card.UpdatedAt = time.Now()
	}
	return nil
}

func (r *inMemorySourceRepository) FindCardsByUser(ctx context.Context, userID string) ([]*BusinessCard, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var cards []*BusinessCard
	for _, card := range r.s.cards {
		if card.UserID == userID {
			out := *card
			cards = append(cards, &out)
		}
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].CreatedAt.Before(cards[j].CreatedAt) })
	return cards, nil
}

func (r *inMemorySourceRepository) CreateQRCode(ctx context.Context, qr *CustomQRCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if qr.Status == "" {
		qr.Status = types.QRStatusActive
	}
	if qr.Type == "" {
		qr.Type = types.QRTypeDefault
	}
	qr.ID = uuid.New().String()
	qr.CreatedAt = time.Now()
	qr.UpdatedAt = qr.CreatedAt
	stored := *qr
	r.s.qrCodes[qr.ID] = &stored
	return nil
}

func (r *inMemorySourceRepository) FindQRCodesByUser(ctx context.Context, userID string) ([]*CustomQRCode, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var codes []*CustomQRCode
	for _, qr := range r.s.qrCodes {
		if qr.UserID == userID {
			out := *qr
			codes = append(codes, &out)
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i].CreatedAt.Before(codes[j].CreatedAt) })
	return codes, nil
}

func (r *inMemorySourceRepository) FindActiveCard(ctx context.Context, id string) (*SourceOwner, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	card, ok := r.s.cards[id]
	if !ok || !card.IsActive {
		return nil, nil
	}
	user, ok := r.s.users[card.UserID]
	if !ok {
		return nil, nil
	}
	return &SourceOwner{
		Kind:        types.SourceBusinessCard,
		SourceID:    card.ID,
		UserID:      card.UserID,
		OwnerEmail:  user.Email,
		OwnerName:   user.Name,
		DisplayName: strings.TrimSpace(card.FirstName + " " + card.LastName),
	}, nil
}

func (r *inMemorySourceRepository) FindActiveQRCode(ctx context.Context, id string) (*SourceOwner, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	qr, ok := r.s.qrCodes[id]
	if !ok || qr.Status != types.QRStatusActive {
		return nil, nil
	}
	user, ok := r.s.users[qr.UserID]
	if !ok {
		return nil, nil
	}
	return &SourceOwner{
		Kind:        types.SourceCustomQRCode,
		SourceID:    qr.ID,
		UserID:      qr.UserID,
		OwnerEmail:  user.Email,
		OwnerName:   user.Name,
		DisplayName: user.Name,
	}, nil
}

// ============================================
// Leads
// ============================================

type inMemoryLeadRepository struct {
	s *memoryStore
}

func (r *inMemoryLeadRepository) Create(ctx context.Context, lead *Lead) error {
	if (lead.BusinessCardID == nil) == (lead.CustomQRCodeID == nil) {
		return fmt.Errorf("insert lead: exactly one source required")
	}
	if lead.EmailPrimary == "" {
		return fmt.Errorf("insert lead: email_primary required")
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextLeadID++
	lead.ID = r.s.nextLeadID
	if lead.Status == "" {
		lead.Status = types.LeadNew
	}
	lead.CreatedAt = time.Now()
	lead.UpdatedAt = lead.CreatedAt
	stored := *lead
	r.s.leads[lead.ID] = &stored
	if lead.CustomQRCodeID != nil {
		r.s.qrLeads[lead.ID] = *lead.CustomQRCodeID
	}
	return nil
}

func (r *inMemoryLeadRepository) withSource(lead *Lead) *LeadWithSource {
	out := &LeadWithSource{Lead: *lead}
	if lead.BusinessCardID != nil {
		if card, ok := r.s.cards[*lead.BusinessCardID]; ok {
			first, last := card.FirstName, card.LastName
			out.CardFirstName = &first
			out.CardLastName = &last
			out.CardCompany = card.CompanyName
			out.CardJobTitle = card.JobTitle
		}
	}
	if lead.CustomQRCodeID != nil {
		if qr, ok := r.s.qrCodes[*lead.CustomQRCodeID]; ok {
			qrType := qr.Type
			out.QRTitle = qr.Title
			out.QRType = &qrType
		}
	}
	return out
}

func (r *inMemoryLeadRepository) FindByID(ctx context.Context, id int64, userID string) (*LeadWithSource, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	lead, ok := r.s.leads[id]
	if !ok || lead.IsDeleted || lead.UserID != userID {
		return nil, nil
	}
	return r.withSource(lead), nil
}

func (r *inMemoryLeadRepository) FindByOwner(ctx context.Context, userID string) ([]*LeadWithSource, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var leads []*LeadWithSource
	for _, lead := range r.s.leads {
		if lead.UserID == userID && !lead.IsDeleted {
			leads = append(leads, r.withSource(lead))
		}
	}
	sort.Slice(leads, func(i, j int) bool { return leads[i].ID > leads[j].ID })
	return leads, nil
}

func (r *inMemoryLeadRepository) Update(ctx context.Context, id int64, userID string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return ErrUnknownColumn
	}
	for column := range fields {
		if !UpdatableContactColumns[column] {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, column)
		}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lead, ok := r.s.leads[id]
	if !ok || lead.IsDeleted || lead.UserID != userID {
		return ErrLeadNotFound
	}
	for column, value := range fields {
		applyContactField(&lead.ContactFields, column, value)
	}
	lead.UpdatedAt = time.Now()
	return nil
}

func (r *inMemoryLeadRepository) SoftDelete(ctx context.Context, id int64, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lead, ok := r.s.leads[id]
	if !ok || lead.IsDeleted || lead.UserID != userID {
		return ErrLeadNotFound
	}
	if r.s.liveContactFor(id) != nil {
		return ErrLeadHasContact
	}
	lead.IsDeleted = true
	lead.UpdatedAt = time.Now()
	return nil
}

func (r *inMemoryLeadRepository) Convert(ctx context.Context, id int64, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lead, ok := r.s.leads[id]
	if !ok || lead.IsDeleted || lead.UserID != userID {
		return 0, ErrLeadNotFound
	}
	if r.s.liveContactFor(id) != nil {
		return 0, ErrAlreadyConverted
	}

	r.s.nextContactID++
	leadID := lead.ID
	now := time.Now()
	contact := &Contact{
		ID:            r.s.nextContactID,
		UserID:        userID,
		LeadID:        &leadID,
		ContactFields: lead.ContactFields,
		Provenance:    lead.Provenance,
		Source:        types.ContactSourceConverted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.s.contacts[contact.ID] = contact

	notes := ""
	if lead.Notes != nil {
		notes = *lead.Notes
	}
	notes += types.ConvertedMarker
	lead.Notes = &notes
	lead.Status = types.LeadConverted
	lead.ConvertedAt = &now
	lead.UpdatedAt = now
	return contact.ID, nil
}

func (r *inMemoryLeadRepository) BackfillQRLinkage(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var linked int64
	for id, lead := range r.s.leads {
		if lead.CustomQRCodeID == nil {
			continue
		}
		if _, ok := r.s.qrLeads[id]; !ok {
			r.s.qrLeads[id] = *lead.CustomQRCodeID
			linked++
		}
	}
	return linked, nil
}

func (r *inMemoryLeadRepository) PurgeDeleted(ctx context.Context, olderThan time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	referenced := make(map[int64]bool)
	for _, c := range r.s.contacts {
		if c.LeadID != nil {
			referenced[*c.LeadID] = true
		}
	}
	var purged int64
	for id, lead := range r.s.leads {
		if lead.IsDeleted && lead.Status == types.LeadNew && lead.UpdatedAt.Before(olderThan) && !referenced[id] {
			delete(r.s.leads, id)
			delete(r.s.qrLeads, id)
			purged++
		}
	}
	return purged, nil
}

// ============================================
// Contacts
// ============================================

type inMemoryContactRepository struct {
	s *memoryStore
}

func (r *inMemoryContactRepository) Create(ctx context.Context, contact *Contact) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if contact.LeadID != nil && r.s.liveContactFor(*contact.LeadID) != nil {
		return fmt.Errorf("insert contact: %w", ErrAlreadyConverted)
	}
	if contact.Source == "" {
		contact.Source = types.ContactSourceManual
	}
	r.s.nextContactID++
	contact.ID = r.s.nextContactID
	contact.CreatedAt = time.Now()
	contact.UpdatedAt = contact.CreatedAt
	stored := *contact
	r.s.contacts[contact.ID] = &stored
	return nil
}

func (r *inMemoryContactRepository) FindByID(ctx context.Context, id int64, userID string) (*Contact, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	contact, ok := r.s.contacts[id]
	if !ok || contact.IsDeleted || contact.UserID != userID {
		return nil, nil
	}
	out := *contact
	return &out, nil
}

func (r *inMemoryContactRepository) FindByOwner(ctx context.Context, userID string) ([]*Contact, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var contacts []*Contact
	for _, contact := range r.s.contacts {
		if contact.UserID == userID && !contact.IsDeleted {
			out := *contact
			contacts = append(contacts, &out)
		}
	}
	sort.Slice(contacts, func(i, j int) bool { return contacts[i].ID > contacts[j].ID })
	return contacts, nil
}

func (r *inMemoryContactRepository) Update(ctx context.Context, id int64, userID string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return ErrUnknownColumn
	}
	for column := range fields {
		if !UpdatableContactColumns[column] {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, column)
		}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	contact, ok := r.s.contacts[id]
	if !ok || contact.IsDeleted || contact.UserID != userID {
		return ErrContactNotFound
	}
	for column, value := range fields {
		applyContactField(&contact.ContactFields, column, value)
	}
	contact.UpdatedAt = time.Now()
	return nil
}

func (r *inMemoryContactRepository) SoftDelete(ctx context.Context, id int64, userID string) (*int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	contact, ok := r.s.contacts[id]
	if !ok || contact.IsDeleted || contact.UserID != userID {
		return nil, ErrContactNotFound
	}
	contact.IsDeleted = true
	contact.UpdatedAt = time.Now()
	if contact.LeadID == nil {
		return nil, nil
	}
	r.s.revertLead(*contact.LeadID)
	leadID := *contact.LeadID
	return &leadID, nil
}

func (r *inMemoryContactRepository) SoftDeleteMany(ctx context.Context, userID string, ids []int64) (*BulkDeleteResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := &BulkDeleteResult{DeletedIDs: []int64{}, RevertedLeads: []int64{}}
	for _, id := range ids {
		contact, ok := r.s.contacts[id]
		if !ok || contact.IsDeleted || contact.UserID != userID {
			continue
		}
		contact.IsDeleted = true
		contact.UpdatedAt = time.Now()
		result.DeletedIDs = append(result.DeletedIDs, id)
		if contact.LeadID != nil {
			r.s.revertLead(*contact.LeadID)
			result.RevertedLeads = append(result.RevertedLeads, *contact.LeadID)
		}
	}
	return result, nil
}

// ============================================
// Notifications
// ============================================

type inMemoryNotificationRepository struct {
	s *memoryStore
}

func (r *inMemoryNotificationRepository) Create(ctx context.Context, notification *Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	notification.ID = uuid.New().String()
	notification.CreatedAt = time.Now()
	stored := *notification
	r.s.notifications[notification.ID] = &stored
	return nil
}

func (r *inMemoryNotificationRepository) FindByUserID(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []*Notification
	for _, n := range r.s.notifications {
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		out := *n
		result = append(result, &out)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *inMemoryNotificationRepository) CountByUserID(ctx context.Context, userID string) (total int, unread int, err error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, n := range r.s.notifications {
		if n.UserID == userID {
			total++
			if !n.Read {
				unread++
			}
		}
	}
	return total, unread, nil
}

func (r *inMemoryNotificationRepository) MarkAsRead(ctx context.Context, id, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return false, nil
	}
	n.Read = true
	return true, nil
}

func (r *inMemoryNotificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, n := range r.s.notifications {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

func (r *inMemoryNotificationRepository) Delete(ctx context.Context, id, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return false, nil
	}
	delete(r.s.notifications, id)
	return true, nil
}

func (r *inMemoryNotificationRepository) DeleteOlderThan(ctx context.Context, olderThan time.Time, readOnly bool) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	deleted := 0
	for id, n := range r.s.notifications {
		if n.CreatedAt.Before(olderThan) {
			if readOnly && !n.Read {
				continue
			}
			delete(r.s.notifications, id)
			deleted++
		}
	}
	return deleted, nil
}

// ============================================
// Helpers (callers hold s.mu)
// ============================================

func (s *memoryStore) liveContactFor(leadID int64) *Contact {
	for _, c := range s.contacts {
		if c.LeadID != nil && *c.LeadID == leadID && !c.IsDeleted {
			return c
		}
	}
	return nil
}

func (s *memoryStore) revertLead(leadID int64) {
	lead, ok := s.leads[leadID]
	if !ok {
		return
	}
	lead.Status = types.LeadNew
	lead.ConvertedAt = nil
	if lead.Notes != nil {
		notes := strings.ReplaceAll(*lead.Notes, types.ConvertedMarker, "")
		if notes == "" {
			lead.Notes = nil
		} else {
			lead.Notes = &notes
		}
	}
	lead.UpdatedAt = time.Now()
}

func applyContactField(cf *ContactFields, column string, value interface{}) {
	switch column {
	case "first_name":
		cf.FirstName = stringValue(value)
	case "last_name":
		cf.LastName = stringValue(value)
	case "full_name":
		cf.FullName = stringValue(value)
	case "email_primary":
		cf.EmailPrimary = stringValue(value)
	case "work_phone":
		cf.WorkPhone = stringPtrValue(value)
	case "mobile_phone":
		cf.MobilePhone = stringPtrValue(value)
	case "street_address":
		cf.StreetAddress = stringPtrValue(value)
	case "city":
		cf.City = stringPtrValue(value)
	case "state":
		cf.State = stringPtrValue(value)
	case "zip_code":
		cf.ZipCode = stringPtrValue(value)
	case "country":
		cf.Country = stringPtrValue(value)
	case "organization_name":
		cf.OrganizationName = stringPtrValue(value)
	case "job_title":
		cf.JobTitle = stringPtrValue(value)
	case "birthdate":
		cf.Birthdate = stringPtrValue(value)
	case "website_url":
		cf.WebsiteURL = stringPtrValue(value)
	case "photo_url":
		cf.PhotoURL = stringPtrValue(value)
	case "comments_from_lead":
		cf.CommentsFromLead = stringPtrValue(value)
	case "notes":
		cf.Notes = stringPtrValue(value)
	}
}

func stringValue(value interface{}) string {
	if p := stringPtrValue(value); p != nil {
		return *p
	}
	return ""
}

func stringPtrValue(value interface{}) *string {
	switch v := value.(type) {
	case string:
		return &v
	case *string:
		if v == nil {
			return nil
		}
		out := *v
		return &out
	case nil:
		return nil
	default:
		s := fmt.Sprint(v)
		return &s
	}
}
