package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharemycard/sharemycard-backend/internal/notification"
	"github.com/sharemycard/sharemycard-backend/internal/repository"
	"github.com/sharemycard/sharemycard-backend/internal/types"
)

func TestCreateManualContact(t *testing.T) {
	repos := repository.NewInMemoryRepositories()
	svc := NewContactService(repos.ContactRepo, nil, nil)
	ctx := context.Background()

	contact, err := svc.Create(ctx, "owner-1", repository.ContactFields{FirstName: "Ann", LastName: " Lee "})
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", contact.FullName)
	assert.Equal(t, types.ContactSourceManual, contact.Source)
	assert.Nil(t, contact.LeadID)

	_, err = svc.Create(ctx, "owner-1", repository.ContactFields{FirstName: "Ann"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, "owner-1", repository.ContactFields{FirstName: "Ann", LastName: "Lee", EmailPrimary: "not-an-email"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestContactOwnershipIsScoped(t *testing.T) {
	repos := repository.NewInMemoryRepositories()
	svc := NewContactService(repos.ContactRepo, nil, nil)
	ctx := context.Background()

	contact, err := svc.Create(ctx, "owner-1", repository.ContactFields{FirstName: "Ann", LastName: "Lee"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "owner-2", contact.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Update(ctx, "owner-2", contact.ID, map[string]interface{}{"city": "x"}), ErrNotFound)
	_, err = svc.Delete(ctx, "owner-2", contact.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateContactAcceptsPhotoURL(t *testing.T) {
	repos := repository.NewInMemoryRepositories()
	svc := NewContactService(repos.ContactRepo, nil, nil)
	ctx := context.Background()

	contact, err := svc.Create(ctx, "owner-1", repository.ContactFields{FirstName: "Ann", LastName: "Lee"})
	require.NoError(t, err)

	require.NoError(t, svc.Update(ctx, "owner-1", contact.ID, map[string]interface{}{
		"first_name": "Anna",
		"photo_url":  "https://img.example/a.png",
		"city":       nil,
	}))

	stored, err := svc.Get(ctx, "owner-1", contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anna Lee", stored.FullName)
	assert.Equal(t, "https://img.example/a.png", *stored.PhotoURL)
	assert.Nil(t, stored.City)

	assert.ErrorIs(t, svc.Update(ctx, "owner-1", contact.ID, map[string]interface{}{"email_primary": "bad"}), ErrInvalidInput)
	assert.ErrorIs(t, svc.Update(ctx, "owner-1", contact.ID, map[string]interface{}{"source": "converted"}), ErrNoUpdatableFields)
}

func TestUpdateContactRequiredFields(t *testing.T) {
	repos := repository.NewInMemoryRepositories()
	svc := NewContactService(repos.ContactRepo, nil, nil)
	ctx := context.Background()

	contact, err := svc.Create(ctx, "owner-1", repository.ContactFields{FirstName: "Ann", LastName: "Lee", EmailPrimary: "ann@example.com"})
	require.NoError(t, err)

	require.NoError(t, svc.Update(ctx, "owner-1", contact.ID, map[string]interface{}{"email_primary": nil}))
	stored, err := svc.Get(ctx, "owner-1", contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "", stored.EmailPrimary)

	for _, key := range []string{"first_name", "last_name"} {
		assert.ErrorIs(t, svc.Update(ctx, "owner-1", contact.ID, map[string]interface{}{key: nil}), ErrInvalidInput, key)
		assert.ErrorIs(t, svc.Update(ctx, "owner-1", contact.ID, map[string]interface{}{key: "  "}), ErrInvalidInput, key)
	}
}

func TestCreateContactFromScan(t *testing.T) {
	repos := repository.NewInMemoryRepositories()
	svc := NewContactService(repos.ContactRepo, nil, nil)
	ctx := context.Background()

	ip, agent := "198.51.100.7", "Mozilla/5.0"
	input := &ScanInput{
		Fields:     repository.ContactFields{FirstName: "Ann", LastName: "Lee", EmailPrimary: "ann@example.com"},
		Provenance: repository.Provenance{IPAddress: &ip, UserAgent: &agent},
		DeviceType: "mobile",
	}
	contact, err := svc.CreateFromScan(ctx, "owner-1", input)
	require.NoError(t, err)
	assert.Equal(t, types.ContactSourceQRScan, contact.Source)
	assert.Equal(t, "Ann Lee", contact.FullName)
	assert.Equal(t, ip, *contact.IPAddress)

	var meta repository.ScanMetadata
	require.NoError(t, json.Unmarshal(contact.SourceMetadata, &meta))
	assert.Equal(t, "mobile", meta.DeviceType)
	assert.Equal(t, "unknown", meta.CameraUsed)
	assert.NotEmpty(t, meta.ScanTimestamp)
	assert.Equal(t, agent, *meta.UserAgent)
	assert.Equal(t, ip, *meta.IPAddress)
	assert.Nil(t, meta.Referrer)

	stored, err := svc.Get(ctx, "owner-1", contact.ID)
	require.NoError(t, err)
	assert.JSONEq(t, string(contact.SourceMetadata), string(stored.SourceMetadata))
}

func TestCreateContactFromScanRequiresEmail(t *testing.T) {
	svc := NewContactService(repository.NewInMemoryRepositories().ContactRepo, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		fields  repository.ContactFields
		message string
	}{
		{"missing email", repository.ContactFields{FirstName: "Ann", LastName: "Lee"}, "Email is required"},
		{"bad email", repository.ContactFields{FirstName: "Ann", LastName: "Lee", EmailPrimary: "ann@"}, "Invalid email format"},
		{"missing first name", repository.ContactFields{LastName: "Lee", EmailPrimary: "ann@example.com"}, "First name is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateFromScan(ctx, "owner-1", &ScanInput{Fields: tt.fields})
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.message, ve.Message)
		})
	}
}

func TestDeleteConvertedContactRevertsLead(t *testing.T) {
	f := newFixture(t, "owner@example.com")
	ctx := context.Background()
	svc := NewContactService(f.repos.ContactRepo, notification.NewService(f.repos.NotificationRepo), nil)

	lead, err := f.leads.Capture(ctx, janeInput(Source{Kind: types.SourceBusinessCard, ID: f.card.ID}))
	require.NoError(t, err)
	contactID, err := f.leads.Convert(ctx, f.owner.ID, lead.ID)
	require.NoError(t, err)

	reverted, err := svc.Delete(ctx, f.owner.ID, contactID)
	require.NoError(t, err)
	require.NotNil(t, reverted)
	assert.Equal(t, lead.ID, *reverted)

	stored, err := f.leads.Get(ctx, f.owner.ID, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, types.LeadNew, stored.Status)

	// a reverted lead can be converted again
	_, err = f.leads.Convert(ctx, f.owner.ID, lead.ID)
	require.NoError(t, err)
}

func TestBulkDelete(t *testing.T) {
	f := newFixture(t, "owner@example.com")
	ctx := context.Background()
	svc := NewContactService(f.repos.ContactRepo, notification.NewService(f.repos.NotificationRepo), nil)

	lead, err := f.leads.Capture(ctx, janeInput(Source{Kind: types.SourceBusinessCard, ID: f.card.ID}))
	require.NoError(t, err)
	converted, err := f.leads.Convert(ctx, f.owner.ID, lead.ID)
	require.NoError(t, err)
	manual, err := svc.Create(ctx, f.owner.ID, repository.ContactFields{FirstName: "Ann", LastName: "Lee"})
	require.NoError(t, err)
	foreign, err := svc.Create(ctx, f.stranger.ID, repository.ContactFields{FirstName: "Bo", LastName: "Ng"})
	require.NoError(t, err)

	result, err := svc.BulkDelete(ctx, f.owner.ID, []int64{converted, manual.ID, manual.ID, foreign.ID, -1})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{converted, manual.ID}, result.DeletedIDs)
	assert.Equal(t, []int64{lead.ID}, result.RevertedLeads)

	_, err = svc.Get(ctx, f.stranger.ID, foreign.ID)
	assert.NoError(t, err)

	_, err = svc.BulkDelete(ctx, f.owner.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExportVCard(t *testing.T) {
	repos := repository.NewInMemoryRepositories()
	svc := NewContactService(repos.ContactRepo, nil, nil)
	ctx := context.Background()

	org := "Acme"
	contact, err := svc.Create(ctx, "owner-1", repository.ContactFields{
		FirstName: "Ann", LastName: "Lee", EmailPrimary: "ann@acme.com", OrganizationName: &org,
	})
	require.NoError(t, err)

	name, body, err := svc.ExportVCard(ctx, "owner-1", contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann-Lee.vcf", name)
	text := string(body)
	assert.True(t, strings.HasPrefix(text, "BEGIN:VCARD\r\nVERSION:3.0\r\n"))
	assert.Contains(t, text, "FN:Ann Lee\r\n")
	assert.Contains(t, text, "ORG:Acme\r\n")

	_, _, err = svc.ExportVCard(ctx, "owner-2", contact.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
