package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharemycard/sharemycard-backend/internal/repository"
	"github.com/sharemycard/sharemycard-backend/internal/types"
)

func TestPurgeDeletedLeads(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewInMemoryRepositories()

	owner := &repository.User{Email: "owner@example.com", Name: "Owner", Password: "x"}
	require.NoError(t, repos.UserRepo.Create(ctx, owner))
	card := &repository.BusinessCard{UserID: owner.ID, FirstName: "O", LastName: "W", IsActive: true}
	require.NoError(t, repos.SourceRepo.CreateCard(ctx, card))

	var ids []int64
	for i := 0; i < 2; i++ {
		lead := &repository.Lead{
			UserID:         owner.ID,
			BusinessCardID: &card.ID,
			ContactFields:  repository.ContactFields{FirstName: "Jane", LastName: "Doe", EmailPrimary: "jane@x.com"},
			Status:         types.LeadNew,
		}
		require.NoError(t, repos.LeadRepo.Create(ctx, lead))
		ids = append(ids, lead.ID)
	}
	require.NoError(t, repos.LeadRepo.SoftDelete(ctx, ids[0], owner.ID))

	s := NewScheduler(repos)

	n, err := s.RunNow(JobPurgeLeads)
	require.NoError(t, err)
	assert.Zero(t, n, "recently deleted leads are kept")

	s.now = func() time.Time { return time.Now().Add(91 * 24 * time.Hour) }
	n, err = s.RunNow(JobPurgeLeads)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	live, err := repos.LeadRepo.FindByID(ctx, ids[1], owner.ID)
	require.NoError(t, err)
	assert.NotNil(t, live)
}

func TestNotificationCleanupKeepsUnread(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewInMemoryRepositories()

	read := &repository.Notification{UserID: "u1", Type: "LEAD_CAPTURED", Title: "a"}
	unread := &repository.Notification{UserID: "u1", Type: "LEAD_CAPTURED", Title: "b"}
	require.NoError(t, repos.NotificationRepo.Create(ctx, read))
	require.NoError(t, repos.NotificationRepo.Create(ctx, unread))
	_, err := repos.NotificationRepo.MarkAsRead(ctx, read.ID, "u1")
	require.NoError(t, err)

	s := NewScheduler(repos)
	s.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }

	n, err := s.RunNow(JobNotifications)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	total, unreadCount, err := repos.NotificationRepo.CountByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, unreadCount)
}

func TestRefreshTokenCleanup(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewInMemoryRepositories()
	require.NoError(t, repos.UserRepo.SaveRefreshToken(ctx, &repository.RefreshToken{
		Token: "old", UserID: "u1", ExpiresAt: time.Now().Add(-time.Hour),
	}))
	require.NoError(t, repos.UserRepo.SaveRefreshToken(ctx, &repository.RefreshToken{
		Token: "fresh", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour),
	}))

	n, err := NewScheduler(repos).RunNow(JobRefreshTokens)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rt, err := repos.UserRepo.FindRefreshToken(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, rt)
}

func TestRunNowUnknownJob(t *testing.T) {
	_, err := NewScheduler(repository.NewInMemoryRepositories()).RunNow("nope")
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(repository.NewInMemoryRepositories())
	require.NoError(t, s.Start())
	s.Stop()
}
