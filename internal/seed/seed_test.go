package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharemycard/sharemycard-backend/internal/repository"
)

func TestSeedDataIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewInMemoryRepositories()

	demo, err := SeedData(ctx, repos, "Demo@ShareMyCard.app")
	require.NoError(t, err)
	assert.False(t, demo.Existing)
	assert.Equal(t, "demo@sharemycard.app", demo.User.Email)

	owner, err := repos.SourceRepo.FindActiveCard(ctx, demo.Card.ID)
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, demo.User.ID, owner.UserID)

	dead, err := repos.SourceRepo.FindActiveCard(ctx, demo.OldCard.ID)
	require.NoError(t, err)
	assert.Nil(t, dead)

	qrOwner, err := repos.SourceRepo.FindActiveQRCode(ctx, demo.QRCode.ID)
	require.NoError(t, err)
	require.NotNil(t, qrOwner)

	again, err := SeedData(ctx, repos, "demo@sharemycard.app")
	require.NoError(t, err)
	assert.True(t, again.Existing)
	assert.Equal(t, demo.User.ID, again.User.ID)

	cards, err := repos.SourceRepo.FindCardsByUser(ctx, demo.User.ID)
	require.NoError(t, err)
	assert.Len(t, cards, 2)
}
