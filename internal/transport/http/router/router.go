package router

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/vedran77/voiceapp/internal/media"
	"github.com/vedran77/voiceapp/internal/service"
	"github.com/vedran77/voiceapp/internal/token"
	"github.com/vedran77/voiceapp/internal/transport/http/handlers"
	"github.com/vedran77/voiceapp/internal/transport/http/middleware"
	"github.com/vedran77/voiceapp/internal/transport/ws"
)

type Deps struct {
	AuthService    *service.AuthService
	VoiceService   *service.VoiceService
	Tokens         *token.Service
	Media          media.Store
	Hub            *ws.Hub
	Log            logrus.FieldLogger
	CORSOrigin     string
	MaxUploadBytes int64
}

// New wires every route and wraps the mux in CORS and request logging.
func New(d Deps) http.Handler {
	authHandler := handlers.NewAuthHandler(d.AuthService, d.Log)
	userHandler := handlers.NewUserHandler(d.AuthService, d.Media, d.Log)
	voiceHandler := handlers.NewVoiceHandler(d.VoiceService, d.Media, d.Log)
	audioHandler := handlers.NewAudioHandler(d.Media, d.Log)

	auth := middleware.Auth(d.Tokens)
	audioUpload := middleware.Upload(d.Media, "audio", d.MaxUploadBytes, d.Log)
	picUpload := middleware.Upload(d.Media, "profilePic", d.MaxUploadBytes, d.Log)

	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("POST /api/auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /audio/{filename}", audioHandler.Serve)

	// Protected - Profile
	mux.Handle("PUT /api/auth/update", auth(http.HandlerFunc(authHandler.Update)))
	mux.Handle("GET /api/user/me", auth(http.HandlerFunc(userHandler.Me)))
	mux.Handle("POST /api/user/profile-pic", auth(picUpload(http.HandlerFunc(userHandler.ProfilePic))))

	// Protected - Voices
	mux.Handle("POST /api/voice", auth(audioUpload(http.HandlerFunc(voiceHandler.Post))))
	mux.Handle("GET /api/voice/{id}", auth(http.HandlerFunc(voiceHandler.Get)))
	mux.Handle("GET /api/voice/{id}/replies", auth(http.HandlerFunc(voiceHandler.Replies)))
	mux.Handle("POST /api/voice/{id}/reply", auth(voiceHandler.RequireVoice(audioUpload(http.HandlerFunc(voiceHandler.Reply)))))
	mux.Handle("POST /api/voice/{id}/like", auth(http.HandlerFunc(voiceHandler.Like)))
	mux.Handle("DELETE /api/voice/{id}", auth(http.HandlerFunc(voiceHandler.Delete)))
	mux.Handle("GET /api/voices", auth(http.HandlerFunc(voiceHandler.Feed)))
	mux.Handle("GET /api/my-voices", auth(http.HandlerFunc(voiceHandler.Mine)))

	// WebSocket (token in query)
	if d.Hub != nil {
		mux.HandleFunc("GET /api/ws", ws.ServeWS(d.Hub, d.Tokens, d.CORSOrigin))
	}

	return middleware.CORS(d.CORSOrigin)(middleware.RequestLogger(d.Log)(mux))
}
