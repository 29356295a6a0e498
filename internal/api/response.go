package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	apperrors "github.com/teemow/tagdeck/internal/errors"
)

// SignInPath is where clients are sent when the credential is no longer usable.
const SignInPath = "/signin"

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Details  any    `json:"details,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil && logger != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

func respond(w http.ResponseWriter, data any, logger *slog.Logger) {
	writeJSON(w, http.StatusOK, data, logger)
}

func respondCreated(w http.ResponseWriter, data any, logger *slog.Logger) {
	writeJSON(w, http.StatusCreated, data, logger)
}

func noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// writeError maps err onto its domain code. Credential failures carry the
// sign-in redirect; errors without a code are logged and hidden.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var e *apperrors.Error
	if !errors.As(err, &e) {
		if logger != nil {
			logger.ErrorContext(r.Context(), "unhandled error", "error", err, "path", r.URL.Path)
		}
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Code:    string(apperrors.CodeInternal),
			Message: "internal server error",
		}, logger)
		return
	}

	body := errorBody{Code: string(e.Code), Message: e.Message, Details: e.Details}
	switch e.Code {
	case apperrors.CodeCredentialExpired:
		body.Redirect = SignInPath
	case apperrors.CodeStore, apperrors.CodeInternal:
		if logger != nil {
			logger.ErrorContext(r.Context(), "request failed", "error", err, "path", r.URL.Path)
		}
	}
	writeJSON(w, e.HTTPStatus(), body, logger)
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.Validation("request body is required")
		}
		return apperrors.Validationf("invalid request body: %v", err)
	}
	return nil
}
