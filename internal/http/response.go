package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/filevault/filevault/internal/service"
	"github.com/filevault/filevault/internal/store"
	"github.com/filevault/filevault/pkg/httpx"
	"github.com/filevault/filevault/pkg/jwtx"
	"github.com/filevault/filevault/pkg/slogx"
)

// maxJSONBody caps JSON request bodies at 16KB. Multipart uploads are
// limited separately by the handlers that accept them.
const maxJSONBody = 16 << 10

// apiResponse is the success envelope every endpoint returns.
type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// apiError is the failure envelope.
type apiError struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

func writeData(w http.ResponseWriter, code int, data any, message string) {
	if data == nil {
		data = struct{}{}
	}
	httpx.WriteJSON(w, code, apiResponse{
		StatusCode: code,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// writeError maps the error to a status code and writes the failure
// envelope. Anything unrecognized becomes a 500 with the fallback message
// so internals never leak to the caller.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	code := statusFor(err)

	message := fallback
	var errs []string
	if code != http.StatusInternalServerError {
		message = err.Error()
	} else {
		slogx.FromContext(r.Context()).Error(fallback, "err", err)
	}

	httpx.WriteJSON(w, code, apiError{
		StatusCode: code,
		Message:    message,
		Success:    false,
		Errors:     errs,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrUploadFailed):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidRefresh),
		errors.Is(err, jwtx.ErrExpired),
		errors.Is(err, jwtx.ErrInvalidSig),
		errors.Is(err, jwtx.ErrMalformed),
		errors.Is(err, jwtx.ErrIssuer),
		errors.Is(err, jwtx.ErrAlgMismatch),
		errors.Is(err, jwtx.ErrNotYetValid):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyRegistered),
		errors.Is(err, store.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON parses a size-capped JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	return json.NewDecoder(r.Body).Decode(dst)
}

var errBadBody = errors.New("malformed request body")

// writeBadBody reports an unparseable request body as a validation failure.
func writeBadBody(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusBadRequest, apiError{
		StatusCode: http.StatusBadRequest,
		Message:    errBadBody.Error(),
		Success:    false,
	})
}
