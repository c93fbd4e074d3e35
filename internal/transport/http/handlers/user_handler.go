package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/vedran77/voiceapp/internal/media"
	"github.com/vedran77/voiceapp/internal/service"
	"github.com/vedran77/voiceapp/internal/transport/http/middleware"
)

type UserHandler struct {
	authService *service.AuthService
	store       media.Store
	log         logrus.FieldLogger
}

func NewUserHandler(authService *service.AuthService, store media.Store, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{authService: authService, store: store, log: log.WithField("module", "user")}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Me(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, "me", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// ProfilePic runs behind middleware.Upload for the "profilePic" field.
func (h *UserHandler) ProfilePic(w http.ResponseWriter, r *http.Request) {
	filename := middleware.GetUploadedFile(r.Context())

	pic, err := h.authService.SetProfilePicture(r.Context(), middleware.GetUserID(r.Context()), filename)
	if err != nil {
		discardUpload(r.Context(), h.store, h.log, filename)
		writeServiceError(w, h.log, "profile picture", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"profilePic": pic})
}

// discardUpload removes a stored file whose owning operation failed.
func discardUpload(ctx context.Context, store media.Store, log logrus.FieldLogger, filename string) {
	if filename == "" {
		return
	}
	// The request context may already be cancelled.
	ctx = context.WithoutCancel(ctx)
	if err := store.Delete(ctx, filename); err != nil && !errors.Is(err, media.ErrObjectNotFound) {
		log.WithError(err).WithField("file", filename).Warn("removing orphaned upload")
	}
}
