package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/vedran77/voiceapp/internal/media"
	"github.com/vedran77/voiceapp/internal/service"
	"github.com/vedran77/voiceapp/internal/transport/http/middleware"
)

type VoiceHandler struct {
	voiceService *service.VoiceService
	store        media.Store
	log          logrus.FieldLogger
}

func NewVoiceHandler(voiceService *service.VoiceService, store media.Store, log logrus.FieldLogger) *VoiceHandler {
	return &VoiceHandler{voiceService: voiceService, store: store, log: log.WithField("module", "voice")}
}

type likeInput struct {
	Like bool `json:"like"`
}

// Post runs behind middleware.Upload for the "audio" field.
func (h *VoiceHandler) Post(w http.ResponseWriter, r *http.Request) {
	filename := middleware.GetUploadedFile(r.Context())

	if _, err := h.voiceService.Post(r.Context(), middleware.GetUserID(r.Context()), filename); err != nil {
		discardUpload(r.Context(), h.store, h.log, filename)
		writeServiceError(w, h.log, "post voice", err)
		return
	}

	writeSuccess(w)
}

// Reply runs behind middleware.Upload. A reply to a missing voice leaves
// neither a record nor a stored file.
func (h *VoiceHandler) Reply(w http.ResponseWriter, r *http.Request) {
	filename := middleware.GetUploadedFile(r.Context())

	voiceID, ok := pathID(w, r)
	if !ok {
		discardUpload(r.Context(), h.store, h.log, filename)
		return
	}

	if _, err := h.voiceService.Reply(r.Context(), voiceID, middleware.GetUserID(r.Context()), filename); err != nil {
		discardUpload(r.Context(), h.store, h.log, filename)
		writeServiceError(w, h.log, "reply", err)
		return
	}

	writeSuccess(w)
}

// RequireVoice answers 404 before next runs when {id} names no voice. Reply
// is wrapped in it so a missing voice is reported ahead of upload errors.
func (h *VoiceHandler) RequireVoice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		voiceID, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := h.voiceService.Exists(r.Context(), voiceID); err != nil {
			writeServiceError(w, h.log, "find voice", err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Like treats a missing body or missing "like" as an unlike.
func (h *VoiceHandler) Like(w http.ResponseWriter, r *http.Request) {
	voiceID, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.voiceService.Exists(r.Context(), voiceID); err != nil {
		writeServiceError(w, h.log, "like", err)
		return
	}

	var input likeInput
	if !decodeOptionalJSON(w, r, &input) {
		return
	}

	res, err := h.voiceService.SetLike(r.Context(), voiceID, middleware.GetUserID(r.Context()), input.Like)
	if err != nil {
		writeServiceError(w, h.log, "like", err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *VoiceHandler) Feed(w http.ResponseWriter, r *http.Request) {
	feed, err := h.voiceService.Feed(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, "feed", err)
		return
	}

	writeJSON(w, http.StatusOK, feed)
}

func (h *VoiceHandler) Mine(w http.ResponseWriter, r *http.Request) {
	mine, err := h.voiceService.Mine(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, "my voices", err)
		return
	}

	writeJSON(w, http.StatusOK, mine)
}

func (h *VoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	voiceID, ok := pathID(w, r)
	if !ok {
		return
	}

	voice, err := h.voiceService.Get(r.Context(), voiceID, middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, "get voice", err)
		return
	}

	writeJSON(w, http.StatusOK, voice)
}

func (h *VoiceHandler) Replies(w http.ResponseWriter, r *http.Request) {
	voiceID, ok := pathID(w, r)
	if !ok {
		return
	}

	replies, err := h.voiceService.Replies(r.Context(), voiceID)
	if err != nil {
		writeServiceError(w, h.log, "replies", err)
		return
	}

	writeJSON(w, http.StatusOK, replies)
}

func (h *VoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	voiceID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.voiceService.Delete(r.Context(), voiceID, middleware.GetUserID(r.Context())); err != nil {
		writeServiceError(w, h.log, "delete voice", err)
		return
	}

	writeSuccess(w)
}
