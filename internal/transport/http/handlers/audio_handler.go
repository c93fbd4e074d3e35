package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vedran77/voiceapp/internal/media"
)

// AudioHandler serves stored uploads by filename, without auth.
type AudioHandler struct {
	store media.Store
	log   logrus.FieldLogger
}

func NewAudioHandler(store media.Store, log logrus.FieldLogger) *AudioHandler {
	return &AudioHandler{store: store, log: log.WithField("module", "audio")}
}

func (h *AudioHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")

	rc, err := h.store.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, media.ErrObjectNotFound) || errors.Is(err, media.ErrInvalidName) {
			http.NotFound(w, r)
			return
		}
		h.log.WithError(err).WithField("file", name).Error("opening audio")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}
	defer rc.Close()

	// Seekable backends get range requests and conditional GETs.
	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, name, time.Time{}, rs)
		return
	}

	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	if _, err := io.Copy(w, rc); err != nil {
		h.log.WithError(err).WithField("file", name).Warn("streaming audio")
	}
}
