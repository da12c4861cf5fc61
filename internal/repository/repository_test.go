package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharemycard/sharemycard-backend/internal/types"
)

func seedMemoryOwner(t *testing.T, repos *Repositories) (*User, *BusinessCard) {
	t.Helper()
	ctx := context.Background()
	user := &User{Email: "owner@example.com", Name: "Owner", Password: "x"}
	require.NoError(t, repos.UserRepo.Create(ctx, user))
	card := &BusinessCard{UserID: user.ID, FirstName: "Sam", LastName: "Owner", IsActive: true}
	require.NoError(t, repos.SourceRepo.CreateCard(ctx, card))
	return user, card
}

func TestInMemoryConvertThenDeleteContactRevertsLead(t *testing.T) {
	ctx := context.Background()
	repos := NewInMemoryRepositories()
	user, card := seedMemoryOwner(t, repos)

	notes := "met at expo"
	lead := &Lead{
		UserID:         user.ID,
		BusinessCardID: &card.ID,
		ContactFields:  ContactFields{FirstName: "Jane", LastName: "Doe", EmailPrimary: "jane@x.com", Notes: &notes},
	}
	require.NoError(t, repos.LeadRepo.Create(ctx, lead))

	contactID, err := repos.LeadRepo.Convert(ctx, lead.ID, user.ID)
	require.NoError(t, err)

	_, err = repos.LeadRepo.Convert(ctx, lead.ID, user.ID)
	assert.ErrorIs(t, err, ErrAlreadyConverted)

	stored, err := repos.LeadRepo.FindByID(ctx, lead.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, types.LeadConverted, stored.Status)
	assert.Equal(t, "met at expo"+types.ConvertedMarker, *stored.Notes)

	contact, err := repos.ContactRepo.FindByID(ctx, contactID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "met at expo", *contact.Notes)

	assert.ErrorIs(t, repos.LeadRepo.SoftDelete(ctx, lead.ID, user.ID), ErrLeadHasContact)

	reverted, err := repos.ContactRepo.SoftDelete(ctx, contactID, user.ID)
	require.NoError(t, err)
	require.NotNil(t, reverted)
	assert.Equal(t, lead.ID, *reverted)

	stored, err = repos.LeadRepo.FindByID(ctx, lead.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, types.LeadNew, stored.Status)
	assert.Equal(t, "met at expo", *stored.Notes)
	assert.Nil(t, stored.ConvertedAt)
}

func TestInMemoryLeadRequiresSingleSource(t *testing.T) {
	ctx := context.Background()
	repos := NewInMemoryRepositories()
	user, card := seedMemoryOwner(t, repos)
	qrID := "qr-1"

	both := &Lead{UserID: user.ID, BusinessCardID: &card.ID, CustomQRCodeID: &qrID,
		ContactFields: ContactFields{EmailPrimary: "a@b.c"}}
	assert.Error(t, repos.LeadRepo.Create(ctx, both))

	neither := &Lead{UserID: user.ID, ContactFields: ContactFields{EmailPrimary: "a@b.c"}}
	assert.Error(t, repos.LeadRepo.Create(ctx, neither))
}

func TestInMemoryFindActiveCardIgnoresDeactivated(t *testing.T) {
	ctx := context.Background()
	repos := NewInMemoryRepositories()
	user, card := seedMemoryOwner(t, repos)

	owner, err := repos.SourceRepo.FindActiveCard(ctx, card.ID)
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, user.ID, owner.UserID)
	assert.Equal(t, "Sam Owner", owner.DisplayName)

	require.NoError(t, repos.SourceRepo.SetCardActive(ctx, card.ID, false))
	owner, err = repos.SourceRepo.FindActiveCard(ctx, card.ID)
	require.NoError(t, err)
	assert.Nil(t, owner)
}

func TestInMemoryPurgeDeletedKeepsReferencedLeads(t *testing.T) {
	ctx := context.Background()
	repos := NewInMemoryRepositories()
	user, card := seedMemoryOwner(t, repos)

	newLead := func() *Lead {
		l := &Lead{UserID: user.ID, BusinessCardID: &card.ID,
			ContactFields: ContactFields{FirstName: "A", LastName: "B", EmailPrimary: "a@b.c"}}
		require.NoError(t, repos.LeadRepo.Create(ctx, l))
		return l
	}

	plain := newLead()
	require.NoError(t, repos.LeadRepo.SoftDelete(ctx, plain.ID, user.ID))

	referenced := newLead()
	contactID, err := repos.LeadRepo.Convert(ctx, referenced.ID, user.ID)
	require.NoError(t, err)
	_, err = repos.ContactRepo.SoftDelete(ctx, contactID, user.ID)
	require.NoError(t, err)
	require.NoError(t, repos.LeadRepo.SoftDelete(ctx, referenced.ID, user.ID))

	purged, err := repos.LeadRepo.PurgeDeleted(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

func TestInMemoryNotificationsScopedByOwner(t *testing.T) {
	ctx := context.Background()
	repos := NewInMemoryRepositories()

	n := &Notification{UserID: "u1", Type: "LEAD_CAPTURED", Title: "t", Message: "m"}
	require.NoError(t, repos.NotificationRepo.Create(ctx, n))

	ok, err := repos.NotificationRepo.MarkAsRead(ctx, n.ID, "u2")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repos.NotificationRepo.MarkAsRead(ctx, n.ID, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	total, unread, err := repos.NotificationRepo.CountByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 0, unread)
}
