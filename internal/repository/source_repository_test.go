package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUUID(t *testing.T) {
	id, ok := parseUUID(" 6BA7B810-9DAD-11D1-80B4-00C04FD430C8 ")
	require.True(t, ok)
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", id)

	for _, bad := range []string{"", "42", "not-a-uuid", "6ba7b810-9dad-11d1-80b4"} {
		_, ok := parseUUID(bad)
		assert.False(t, ok, bad)
	}
}

// Malformed ids return before any query runs, so a nil pool is never touched.
func TestPgSourceLookupsRejectMalformedIDs(t *testing.T) {
	ctx := context.Background()
	repo := &pgSourceRepository{}

	card, err := repo.FindActiveCard(ctx, "1 OR 1=1")
	require.NoError(t, err)
	assert.Nil(t, card)

	qr, err := repo.FindActiveQRCode(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, qr)

	notifications := &pgNotificationRepository{}
	found, err := notifications.MarkAsRead(ctx, "abc", "owner-1")
	require.NoError(t, err)
	assert.False(t, found)
	found, err = notifications.Delete(ctx, "abc", "owner-1")
	require.NoError(t, err)
	assert.False(t, found)
}
