package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vedran77/voiceapp/internal/service"
	"github.com/vedran77/voiceapp/pkg/validator"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeFieldErrors(w http.ResponseWriter, code, message string, errs validator.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
			"fields":  errs,
		},
	})
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// writeServiceError maps service sentinels to responses. Anything unknown is
// logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, log logrus.FieldLogger, op string, err error) {
	var fe *service.FieldError
	switch {
	case errors.As(err, &fe) && errors.Is(err, service.ErrMissingField):
		writeFieldErrors(w, "MISSING_FIELD", "Email and password required", fe.Fields)
	case errors.As(err, &fe):
		writeFieldErrors(w, "VALIDATION_ERROR", "Invalid input", fe.Fields)
	case errors.Is(err, service.ErrDuplicateUser):
		writeError(w, http.StatusBadRequest, "USER_EXISTS", "User already exists")
	case errors.Is(err, service.ErrInvalidCreds):
		writeError(w, http.StatusBadRequest, "INVALID_CREDENTIALS", "Invalid credentials")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrVoiceNotFound):
		writeError(w, http.StatusNotFound, "VOICE_NOT_FOUND", "Voice not found")
	case errors.Is(err, service.ErrNoFileProvided):
		writeError(w, http.StatusBadRequest, "NO_FILE", "No file uploaded")
	default:
		log.WithError(err).WithField("op", op).Error("request failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	return true
}

// decodeOptionalJSON is decodeJSON that leaves dst zero for an empty body.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	return true
}

// pathID parses the {id} segment. Ids that can never name a voice get the
// same 404 as unknown ones.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "VOICE_NOT_FOUND", "Voice not found")
		return uuid.Nil, false
	}
	return id, true
}
