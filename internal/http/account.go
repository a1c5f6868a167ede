package http

import (
	"net/http"

	"github.com/filevault/filevault/internal/service"
	"github.com/filevault/filevault/pkg/httpx"
	"github.com/filevault/filevault/pkg/slogx"
)

type ChangePasswordHandler struct {
	Users *service.UserService
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// ServeHTTP swaps the account password after re-checking the old one.
func (h *ChangePasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadBody(w)
		return
	}

	if err := h.Users.ChangePassword(ctx, userID, req.OldPassword, req.NewPassword); err != nil {
		slogx.FromContext(ctx).Warn("password change rejected", "user_id", userID, "err", err)
		writeError(w, r, err, "failed to change password")
		return
	}

	slogx.FromContext(ctx).Info("password changed", "user_id", userID)
	writeData(w, http.StatusOK, struct{}{}, "Password changed successfully")
}

type CurrentUserHandler struct {
	Users *service.UserService
}

// ServeHTTP returns the authenticated user's profile.
func (h *CurrentUserHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.Users.GetByID(ctx, httpx.UserIDFromContext(ctx))
	if err != nil {
		writeError(w, r, err, "failed to fetch user")
		return
	}

	writeData(w, http.StatusOK, user, "User fetched successfully")
}

type UpdateAccountHandler struct {
	Users *service.UserService
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// ServeHTTP overwrites the profile's full name and email.
func (h *UpdateAccountHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)

	var req updateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadBody(w)
		return
	}

	user, err := h.Users.UpdateProfile(ctx, userID, req.FullName, req.Email)
	if err != nil {
		writeError(w, r, err, "failed to update account details")
		return
	}

	slogx.FromContext(ctx).Info("account details updated", "user_id", userID)
	writeData(w, http.StatusOK, user, "Account details updated successfully")
}

type UpdateAvatarHandler struct {
	Users *service.UserService
}

// ServeHTTP replaces the avatar with a freshly uploaded image.
func (h *UpdateAvatarHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)

	avatar, closeAsset, err := assetFromForm(r, "avatar")
	if err != nil {
		writeError(w, r, err, "avatar is required")
		return
	}
	defer closeAsset()

	user, err := h.Users.UpdateAvatar(ctx, userID, avatar)
	if err != nil {
		writeError(w, r, err, "failed to update avatar")
		return
	}

	slogx.FromContext(ctx).Info("avatar updated", "user_id", userID)
	writeData(w, http.StatusOK, user, "Avatar updated successfully")
}
