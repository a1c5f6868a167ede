package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/filevault/filevault/internal/service"
)

func TestIssuePairAndVerifyAccess(t *testing.T) {
	st := newTestStore(t)
	tokens := newTokenService(st)
	user := seedUser(t, st, "alice@example.com", "hunter2!")

	pair, err := tokens.IssuePair(context.Background(), user)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	userID, err := tokens.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, userID)
}

func TestVerifyAccessRejectsRefreshToken(t *testing.T) {
	st := newTestStore(t)
	tokens := newTokenService(st)
	user := seedUser(t, st, "alice@example.com", "hunter2!")

	pair, err := tokens.IssuePair(context.Background(), user)
	require.NoError(t, err)

	// Refresh tokens are signed with a different secret and must not pass
	// as access tokens.
	_, err = tokens.VerifyAccess(pair.RefreshToken)
	require.Error(t, err)
}

func TestRotateSupersedesOldToken(t *testing.T) {
	st := newTestStore(t)
	tokens := newTokenService(st)
	user := seedUser(t, st, "alice@example.com", "hunter2!")

	first, err := tokens.IssuePair(context.Background(), user)
	require.NoError(t, err)

	second, err := tokens.Rotate(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The superseded token is dead; replaying it must fail.
	_, err = tokens.Rotate(context.Background(), first.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidRefresh)

	// The current token still rotates cleanly.
	third, err := tokens.Rotate(context.Background(), second.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, second.RefreshToken, third.RefreshToken)
}

func TestRotateRejectsForgedToken(t *testing.T) {
	st := newTestStore(t)
	tokens := newTokenService(st)
	seedUser(t, st, "alice@example.com", "hunter2!")

	_, err := tokens.Rotate(context.Background(), "not-a-jwt")
	require.ErrorIs(t, err, service.ErrInvalidRefresh)
}

func TestRevokeEndsSession(t *testing.T) {
	st := newTestStore(t)
	tokens := newTokenService(st)
	user := seedUser(t, st, "alice@example.com", "hunter2!")

	pair, err := tokens.IssuePair(context.Background(), user)
	require.NoError(t, err)

	require.NoError(t, tokens.Revoke(context.Background(), user.ID))

	_, err = tokens.Rotate(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidRefresh)

	// Access tokens are stateless and keep working until expiry.
	userID, err := tokens.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, userID)
}

func TestLoginSupersedesPreviousSession(t *testing.T) {
	st := newTestStore(t)
	tokens := newTokenService(st)
	user := seedUser(t, st, "alice@example.com", "hunter2!")

	first, err := tokens.IssuePair(context.Background(), user)
	require.NoError(t, err)

	_, err = tokens.IssuePair(context.Background(), user)
	require.NoError(t, err)

	_, err = tokens.Rotate(context.Background(), first.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidRefresh)
}
