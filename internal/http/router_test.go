package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	httpapi "github.com/filevault/filevault/internal/http"
	"github.com/filevault/filevault/internal/media"
	"github.com/filevault/filevault/internal/service"
	"github.com/filevault/filevault/internal/store/drivers/sqlite"
	"github.com/filevault/filevault/pkg/cryptox"
	"github.com/filevault/filevault/pkg/jwtx"
)

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

// fakeHost is an in-memory media.Host.
type fakeHost struct {
	mu      sync.Mutex
	seq     int
	deleted []string
}

func (f *fakeHost) Upload(_ context.Context, a media.Asset) (media.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, _ := io.Copy(io.Discard, a.Content)
	f.seq++
	return media.Object{
		PublicID:     fmt.Sprintf("files/test/%04d", f.seq),
		URL:          fmt.Sprintf("http://media.test/files/test/%04d", f.seq),
		Format:       strings.TrimPrefix(filepath.Ext(a.Name), "."),
		Bytes:        n,
		OriginalName: a.Name,
	}, nil
}

func (f *fakeHost) Delete(_ context.Context, publicID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, publicID)
	return true, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(t.TempDir(), "test.db"))
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	host := &fakeHost{}
	const issuer = "filevault-test"
	tokens := &service.TokenService{
		Store:      st,
		Access:     jwtx.NewHS256([]byte("access-secret-for-tests"), issuer),
		Refresh:    jwtx.NewHS256([]byte("refresh-secret-for-tests"), issuer),
		Issuer:     issuer,
		AccessTTL:  service.DefaultAccessTTL,
		RefreshTTL: service.DefaultRefreshTTL,
	}

	router := httpapi.NewRouter("test", st, slog.New(slog.NewTextHandler(io.Discard, nil)))
	router.TokenService = tokens
	router.UserService = &service.UserService{Store: st, Media: host, Tokens: tokens}
	router.FileService = &service.FileService{Store: st, Media: host}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

// multipartBody builds a multipart form with the given fields and one file
// part.
func multipartBody(t *testing.T, fields map[string]string, fileField, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile(fileField, fileName)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, envelope) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func registerUser(t *testing.T, baseURL, email, username, password string) envelope {
	t.Helper()

	body, contentType := multipartBody(t, map[string]string{
		"fullName": "Test User",
		"email":    email,
		"username": username,
		"password": password,
	}, "avatar", "face.png", "png-bytes")

	resp, err := http.Post(baseURL+"/api/v1/user/register", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.True(t, env.Success)
	return env
}

func login(t *testing.T, baseURL, email, password string) (accessToken, refreshToken string) {
	t.Helper()

	resp, env := doJSON(t, http.MethodPost, baseURL+"/api/v1/user/login", "",
		map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, env.Success)

	var data struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.AccessToken)
	require.NotEmpty(t, data.RefreshToken)

	// Both tokens are mirrored into cookies for browser clients.
	names := make(map[string]bool)
	for _, c := range resp.Cookies() {
		names[c.Name] = true
		require.True(t, c.HttpOnly)
	}
	require.True(t, names["accessToken"])
	require.True(t, names["refreshToken"])

	return data.AccessToken, data.RefreshToken
}

func TestRegisterLoginCurrentUser(t *testing.T) {
	srv := newTestServer(t)

	env := registerUser(t, srv.URL, "alice@example.com", "AliceS", "hunter2!")

	var created struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Avatar   string `json:"avatar"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Equal(t, "alices", created.Username)
	require.NotEmpty(t, created.Avatar)

	// The password hash never appears in any response.
	require.NotContains(t, string(env.Data), "passwordHash")

	access, _ := login(t, srv.URL, "alice@example.com", "hunter2!")

	resp, userEnv := doJSON(t, http.MethodGet, srv.URL+"/api/v1/user/getCurrentUser", access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(userEnv.Data, &me))
	require.Equal(t, created.ID, me.ID)
	require.Equal(t, "alice@example.com", me.Email)
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/user/getCurrentUser"},
		{http.MethodPost, "/api/v1/user/logout"},
		{http.MethodPost, "/api/v1/file/uploadFile"},
		{http.MethodGet, "/api/v1/file/getFileByUser"},
	} {
		resp, env := doJSON(t, route.method, srv.URL+route.path, "", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, route.path)
		require.False(t, env.Success)
	}

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/v1/user/getCurrentUser", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginFailures(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv.URL, "alice@example.com", "alice", "hunter2!")

	resp, env := doJSON(t, http.MethodPost, srv.URL+"/api/v1/user/login", "",
		map[string]string{"email": "alice@example.com", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.False(t, env.Success)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/user/login", "",
		map[string]string{"email": "nobody@example.com", "password": "x"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRegisterConflict(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv.URL, "alice@example.com", "alice", "hunter2!")

	body, contentType := multipartBody(t, map[string]string{
		"fullName": "Other",
		"email":    "alice@example.com",
		"username": "other",
		"password": "pw",
	}, "avatar", "face.png", "png-bytes")

	resp, err := http.Post(srv.URL+"/api/v1/user/register", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRefreshRotation(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv.URL, "alice@example.com", "alice", "hunter2!")
	access, refresh := login(t, srv.URL, "alice@example.com", "hunter2!")

	resp, env := doJSON(t, http.MethodGet, srv.URL+"/api/v1/user/refreshToken", access,
		map[string]string{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, env.Success)

	var pair struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &pair))
	require.NotEqual(t, refresh, pair.RefreshToken)

	// Replaying the superseded token must fail.
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/user/refreshToken", access,
		map[string]string{"refreshToken": refresh})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutInvalidatesRefresh(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv.URL, "alice@example.com", "alice", "hunter2!")
	access, refresh := login(t, srv.URL, "alice@example.com", "hunter2!")

	resp, env := doJSON(t, http.MethodPost, srv.URL+"/api/v1/user/logout", access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, env.Success)

	// The access token is stateless and still passes the gate, but the
	// stored refresh token is gone.
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/user/refreshToken", access,
		map[string]string{"refreshToken": refresh})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestFileLifecycle(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv.URL, "alice@example.com", "alice", "hunter2!")
	access, _ := login(t, srv.URL, "alice@example.com", "hunter2!")

	// Upload
	body, contentType := multipartBody(t, nil, "file", "report.pdf", "pdf-bytes")
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/file/uploadFile", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+access)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var file struct {
		Details struct {
			Name     string `json:"name"`
			PublicID string `json:"publicId"`
		} `json:"fileDetails"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &file))
	require.Equal(t, "report.pdf", file.Details.Name)
	require.NotEmpty(t, file.Details.PublicID)

	// List
	resp, env = doJSON(t, http.MethodGet, srv.URL+"/api/v1/file/getFileByUser", access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)

	// Search hit and miss
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/file/searchFile?name=REPORT", access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/file/searchFile?name=zebra", access, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Rename
	resp, env = doJSON(t, http.MethodPatch, srv.URL+"/api/v1/file/editFileName", access,
		map[string]string{"public_id": file.Details.PublicID, "name": "q3.pdf"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, env.Success)

	// Delete
	resp, env = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/file/deleteFile", access,
		map[string]string{"public_id": file.Details.PublicID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, env.Success)

	// Deleting again reports not found.
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/file/deleteFile", access,
		map[string]string{"public_id": file.Details.PublicID})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChangePasswordFlow(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv.URL, "alice@example.com", "alice", "old-password")
	access, _ := login(t, srv.URL, "alice@example.com", "old-password")

	resp, _ := doJSON(t, http.MethodPatch, srv.URL+"/api/v1/user/changePassword", access,
		map[string]string{"oldPassword": "not-it", "newPassword": "new-password"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, env := doJSON(t, http.MethodPatch, srv.URL+"/api/v1/user/changePassword", access,
		map[string]string{"oldPassword": "old-password", "newPassword": "new-password"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, env.Success)

	login(t, srv.URL, "alice@example.com", "new-password")
}

func TestUpdateAccountDetails(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv.URL, "alice@example.com", "alice", "hunter2!")
	access, _ := login(t, srv.URL, "alice@example.com", "hunter2!")

	resp, env := doJSON(t, http.MethodPatch, srv.URL+"/api/v1/user/updateAccountDetails", access,
		map[string]string{"fullName": "Alice Jones", "email": "alice.jones@example.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	require.Equal(t, "Alice Jones", me.FullName)
	require.Equal(t, "alice.jones@example.com", me.Email)

	resp, _ = doJSON(t, http.MethodPatch, srv.URL+"/api/v1/user/updateAccountDetails", access,
		map[string]string{"fullName": "", "email": ""})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	require.Equal(t, "ok", health.Status)
}
