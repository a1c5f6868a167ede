package http

import (
	"net/http"

	"github.com/filevault/filevault/internal/domain"
	"github.com/filevault/filevault/internal/service"
	"github.com/filevault/filevault/pkg/httpx"
	"github.com/filevault/filevault/pkg/slogx"
)

type LoginHandler struct {
	Users  *service.UserService
	Tokens *service.TokenService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User         domain.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// ServeHTTP authenticates by email and password and opens a session. The
// token pair is returned in the body and mirrored into HttpOnly cookies.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadBody(w)
		return
	}

	user, pair, err := h.Users.Login(ctx, req.Email, req.Password)
	if err != nil {
		log.Warn("login rejected", "email", req.Email, "err", err)
		writeError(w, r, err, "failed to log in")
		return
	}

	log.Info("user logged in", "user_id", user.ID)
	setSessionCookies(w, pair, h.Tokens.AccessTTL, h.Tokens.RefreshTTL)
	writeData(w, http.StatusOK, loginResponse{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "User logged in successfully")
}

type LogoutHandler struct {
	Tokens *service.TokenService
}

// ServeHTTP ends the session: the stored refresh token is invalidated and
// the session cookies cleared. The access token lapses on its own.
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)

	if err := h.Tokens.Revoke(ctx, userID); err != nil {
		writeError(w, r, err, "failed to log out")
		return
	}

	slogx.FromContext(ctx).Info("user logged out", "user_id", userID)
	clearSessionCookies(w)
	writeData(w, http.StatusOK, struct{}{}, "User logged out successfully")
}

type RefreshHandler struct {
	Tokens *service.TokenService
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ServeHTTP rotates a refresh token read from the cookie or, failing that,
// the JSON body. The superseded token stops working immediately.
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	presented := ""
	if c, err := r.Cookie(cookieRefreshToken); err == nil {
		presented = c.Value
	}
	if presented == "" {
		var req refreshRequest
		if err := decodeJSON(w, r, &req); err == nil {
			presented = req.RefreshToken
		}
	}
	if presented == "" {
		writeError(w, r, service.ErrInvalidRefresh, "refresh token is required")
		return
	}

	pair, err := h.Tokens.Rotate(ctx, presented)
	if err != nil {
		slogx.FromContext(ctx).Warn("refresh rejected", "err", err)
		writeError(w, r, err, "failed to refresh session")
		return
	}

	setSessionCookies(w, pair, h.Tokens.AccessTTL, h.Tokens.RefreshTTL)
	writeData(w, http.StatusOK, pair, "Access token refreshed successfully")
}
