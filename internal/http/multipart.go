package http

import (
	"fmt"
	"net/http"

	"github.com/filevault/filevault/internal/media"
	"github.com/filevault/filevault/internal/service"
)

// maxUploadBytes caps a multipart upload, matching the in-memory parse
// threshold.
const maxUploadBytes = 32 << 20

// assetFromForm pulls the named file out of a multipart request. The
// returned closer must be called once the asset has been consumed.
func assetFromForm(r *http.Request, field string) (*media.Asset, func(), error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", service.ErrMissingFields, field)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", service.ErrMissingFields, field)
	}

	asset := &media.Asset{
		Name:        header.Filename,
		Content:     file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	}
	return asset, func() { _ = file.Close() }, nil
}
