package service_test

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/filevault/filevault/internal/domain"
	"github.com/filevault/filevault/internal/media"
	"github.com/filevault/filevault/internal/service"
	"github.com/filevault/filevault/internal/store"
	"github.com/filevault/filevault/internal/store/drivers/sqlite"
	"github.com/filevault/filevault/pkg/cryptox"
	"github.com/filevault/filevault/pkg/idx"
	"github.com/filevault/filevault/pkg/jwtx"
)

// newTestStore opens a throwaway sqlite store with migrations applied.
func newTestStore(t *testing.T) store.Store {
	t.Helper()

	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(t.TempDir(), "test.db"))
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())

	t.Cleanup(func() { _ = st.Close() })
	return st
}

// fakeHost is an in-memory media.Host that records every call.
type fakeHost struct {
	mu      sync.Mutex
	seq     int
	uploads []media.Object
	deleted []string

	uploadErr error
	deleteErr error
	deleteOK  bool
}

func newFakeHost() *fakeHost {
	return &fakeHost{deleteOK: true}
}

func (f *fakeHost) Upload(_ context.Context, a media.Asset) (media.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.uploadErr != nil {
		return media.Object{}, f.uploadErr
	}

	n, _ := io.Copy(io.Discard, a.Content)
	f.seq++
	obj := media.Object{
		PublicID:     fmt.Sprintf("files/test/%04d", f.seq),
		URL:          fmt.Sprintf("http://media.test/files/test/%04d", f.seq),
		Format:       strings.TrimPrefix(filepath.Ext(a.Name), "."),
		Bytes:        n,
		OriginalName: a.Name,
	}
	f.uploads = append(f.uploads, obj)
	return obj, nil
}

func (f *fakeHost) Delete(_ context.Context, publicID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	f.deleted = append(f.deleted, publicID)
	return f.deleteOK, nil
}

func newAsset(name, content string) *media.Asset {
	return &media.Asset{
		Name:        name,
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		ContentType: "application/octet-stream",
	}
}

// newTokenService wires a TokenService with fixed test secrets.
func newTokenService(st store.Store) *service.TokenService {
	const issuer = "filevault-test"
	return &service.TokenService{
		Store:      st,
		Access:     jwtx.NewHS256([]byte("access-secret-for-tests"), issuer),
		Refresh:    jwtx.NewHS256([]byte("refresh-secret-for-tests"), issuer),
		Issuer:     issuer,
		AccessTTL:  service.DefaultAccessTTL,
		RefreshTTL: service.DefaultRefreshTTL,
	}
}

// seedUser inserts a user directly, bypassing registration.
func seedUser(t *testing.T, st store.Store, email, password string) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	user := domain.User{
		ID:             idx.New().String(),
		Username:       strings.SplitN(email, "@", 2)[0],
		Email:          email,
		FullName:       "Test User",
		PasswordHash:   hash,
		AvatarURL:      "http://media.test/avatar.png",
		AvatarPublicID: "files/test/avatar",
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), user))

	user, err = st.Users().GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	return user
}
