package service

import "errors"

var (
	// ErrMissingFields reports absent or empty required input.
	ErrMissingFields = errors.New("missing_required_fields")

	// ErrInvalidCredentials covers wrong passwords at login and password change.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrInvalidRefresh reports a refresh token that is forged, expired, or
	// superseded by a newer one.
	ErrInvalidRefresh = errors.New("invalid_refresh_token")

	// ErrAlreadyRegistered reports a registration against a taken email or username.
	ErrAlreadyRegistered = errors.New("already_registered")

	// ErrUploadFailed reports a failed media host upload.
	ErrUploadFailed = errors.New("upload_failed")

	// ErrMediaDelete reports that the media host refused or failed a deletion.
	ErrMediaDelete = errors.New("media_delete_failed")
)
