package http

import (
	"net/http"

	"github.com/filevault/filevault/internal/service"
	"github.com/filevault/filevault/pkg/slogx"
)

type RegisterHandler struct {
	Users *service.UserService
}

// ServeHTTP creates an account from a multipart form carrying the profile
// fields and an avatar image.
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	avatar, closeAsset, err := assetFromForm(r, "avatar")
	if err != nil {
		writeError(w, r, err, "avatar is required")
		return
	}
	defer closeAsset()

	user, err := h.Users.Register(ctx, service.RegisterInput{
		FullName: r.FormValue("fullName"),
		Email:    r.FormValue("email"),
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
		Avatar:   avatar,
	})
	if err != nil {
		log.Warn("registration rejected", "err", err)
		writeError(w, r, err, "failed to register user")
		return
	}

	log.Info("user registered", "user_id", user.ID, "username", user.Username)
	writeData(w, http.StatusCreated, user, "User registered successfully")
}
