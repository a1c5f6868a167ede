package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/filevault/filevault/internal/service"
	"github.com/filevault/filevault/internal/store"
)

func newUserService(st store.Store, host *fakeHost) *service.UserService {
	return &service.UserService{
		Store:  st,
		Media:  host,
		Tokens: newTokenService(st),
	}
}

func TestRegister(t *testing.T) {
	st := newTestStore(t)
	host := newFakeHost()
	users := newUserService(st, host)

	input := service.RegisterInput{
		FullName: "Alice Smith",
		Email:    "alice@example.com",
		Username: "AliceS",
		Password: "hunter2!",
		Avatar:   newAsset("face.png", "png-bytes"),
	}

	user, err := users.Register(context.Background(), input)
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, "alices", user.Username, "username is stored lowercased")
	require.Equal(t, "alice@example.com", user.Email)
	require.NotEmpty(t, user.AvatarURL)
	require.False(t, user.CreatedAt.IsZero())
	require.Len(t, host.uploads, 1)

	t.Run("duplicate email", func(t *testing.T) {
		dup := input
		dup.Username = "someoneelse"
		dup.Avatar = newAsset("face.png", "png-bytes")

		_, err := users.Register(context.Background(), dup)
		require.ErrorIs(t, err, service.ErrAlreadyRegistered)
	})

	t.Run("duplicate username", func(t *testing.T) {
		dup := input
		dup.Email = "alice2@example.com"
		dup.Avatar = newAsset("face.png", "png-bytes")

		_, err := users.Register(context.Background(), dup)
		require.ErrorIs(t, err, service.ErrAlreadyRegistered)
	})
}

func TestRegisterMissingFields(t *testing.T) {
	st := newTestStore(t)
	host := newFakeHost()
	users := newUserService(st, host)

	cases := []struct {
		name  string
		input service.RegisterInput
	}{
		{"empty", service.RegisterInput{}},
		{"no password", service.RegisterInput{
			FullName: "Alice", Email: "a@example.com", Username: "alice",
			Avatar: newAsset("face.png", "x"),
		}},
		{"no avatar", service.RegisterInput{
			FullName: "Alice", Email: "a@example.com", Username: "alice", Password: "pw",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := users.Register(context.Background(), tc.input)
			require.ErrorIs(t, err, service.ErrMissingFields)
		})
	}

	// Nothing should have reached the media host.
	require.Empty(t, host.uploads)
}

func TestLogin(t *testing.T) {
	st := newTestStore(t)
	host := newFakeHost()
	users := newUserService(st, host)
	seedUser(t, st, "alice@example.com", "hunter2!")

	t.Run("ok", func(t *testing.T) {
		user, pair, err := users.Login(context.Background(), "alice@example.com", "hunter2!")
		require.NoError(t, err)
		require.Equal(t, "alice@example.com", user.Email)
		require.NotEmpty(t, pair.AccessToken)
		require.NotEmpty(t, pair.RefreshToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := users.Login(context.Background(), "alice@example.com", "wrong")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := users.Login(context.Background(), "nobody@example.com", "hunter2!")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, _, err := users.Login(context.Background(), "", "")
		require.ErrorIs(t, err, service.ErrMissingFields)
	})
}

func TestChangePassword(t *testing.T) {
	st := newTestStore(t)
	host := newFakeHost()
	users := newUserService(st, host)
	user := seedUser(t, st, "alice@example.com", "old-password")

	t.Run("wrong old password", func(t *testing.T) {
		err := users.ChangePassword(context.Background(), user.ID, "not-it", "new-password")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)

		// The original password must still work.
		_, _, err = users.Login(context.Background(), "alice@example.com", "old-password")
		require.NoError(t, err)
	})

	t.Run("ok", func(t *testing.T) {
		err := users.ChangePassword(context.Background(), user.ID, "old-password", "new-password")
		require.NoError(t, err)

		_, _, err = users.Login(context.Background(), "alice@example.com", "new-password")
		require.NoError(t, err)

		_, _, err = users.Login(context.Background(), "alice@example.com", "old-password")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})
}

func TestUpdateProfile(t *testing.T) {
	st := newTestStore(t)
	host := newFakeHost()
	users := newUserService(st, host)
	user := seedUser(t, st, "alice@example.com", "hunter2!")

	updated, err := users.UpdateProfile(context.Background(), user.ID, "Alice Jones", "alice.jones@example.com")
	require.NoError(t, err)
	require.Equal(t, "Alice Jones", updated.FullName)
	require.Equal(t, "alice.jones@example.com", updated.Email)

	_, err = users.UpdateProfile(context.Background(), user.ID, "", "alice.jones@example.com")
	require.ErrorIs(t, err, service.ErrMissingFields)
}

func TestUpdateAvatar(t *testing.T) {
	st := newTestStore(t)
	host := newFakeHost()
	users := newUserService(st, host)
	user := seedUser(t, st, "alice@example.com", "hunter2!")
	oldPublicID := user.AvatarPublicID

	updated, err := users.UpdateAvatar(context.Background(), user.ID, newAsset("new-face.png", "png-bytes"))
	require.NoError(t, err)
	require.NotEqual(t, oldPublicID, updated.AvatarPublicID)
	require.Len(t, host.uploads, 1)

	// The superseded asset is left on the host.
	require.Empty(t, host.deleted)
}
