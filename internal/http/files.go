package http

import (
	"net/http"

	"github.com/filevault/filevault/internal/service"
	"github.com/filevault/filevault/pkg/httpx"
	"github.com/filevault/filevault/pkg/slogx"
)

type UploadFileHandler struct {
	Files *service.FileService
}

// ServeHTTP uploads the multipart payload to the media host and records it
// against the authenticated user.
func (h *UploadFileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)

	asset, closeAsset, err := assetFromForm(r, "file")
	if err != nil {
		writeError(w, r, err, "file is required")
		return
	}
	defer closeAsset()

	file, err := h.Files.Upload(ctx, userID, asset)
	if err != nil {
		slogx.FromContext(ctx).Warn("upload rejected", "user_id", userID, "err", err)
		writeError(w, r, err, "failed to upload file")
		return
	}

	slogx.FromContext(ctx).Info("file uploaded",
		"user_id", userID, "public_id", file.Details.PublicID, "bytes", file.Details.Size)
	writeData(w, http.StatusOK, file, "File uploaded successfully")
}

type RenameFileHandler struct {
	Files *service.FileService
}

type renameFileRequest struct {
	PublicID string `json:"public_id"`
	Name     string `json:"name"`
}

// ServeHTTP changes a file's display name, addressed by its public id.
func (h *RenameFileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req renameFileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadBody(w)
		return
	}

	file, err := h.Files.Rename(ctx, req.PublicID, req.Name)
	if err != nil {
		writeError(w, r, err, "failed to rename file")
		return
	}

	writeData(w, http.StatusOK, file, "File details updated successfully")
}

type DeleteFileHandler struct {
	Files *service.FileService
}

type deleteFileRequest struct {
	PublicID string `json:"public_id"`
}

// ServeHTTP removes the file record and asks the media host to drop the
// object.
func (h *DeleteFileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req deleteFileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadBody(w)
		return
	}

	if err := h.Files.Delete(ctx, req.PublicID); err != nil {
		slogx.FromContext(ctx).Warn("delete failed", "public_id", req.PublicID, "err", err)
		writeError(w, r, err, "failed to delete file")
		return
	}

	slogx.FromContext(ctx).Info("file deleted", "public_id", req.PublicID)
	writeData(w, http.StatusOK, struct{}{}, "File deleted successfully")
}

type SearchFileHandler struct {
	Files *service.FileService
}

// ServeHTTP searches the user's files by name, case-insensitively. The
// pattern comes from the "name" query parameter.
func (h *SearchFileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)

	files, err := h.Files.Search(ctx, userID, r.URL.Query().Get("name"))
	if err != nil {
		writeError(w, r, err, "failed to search files")
		return
	}

	writeData(w, http.StatusOK, files, "Files retrieved successfully")
}

type ListFilesHandler struct {
	Files *service.FileService
}

// ServeHTTP returns every file the authenticated user owns.
func (h *ListFilesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)

	files, err := h.Files.ListByUser(ctx, userID)
	if err != nil {
		writeError(w, r, err, "failed to fetch files")
		return
	}

	writeData(w, http.StatusOK, files, "Data fetched successfully")
}
