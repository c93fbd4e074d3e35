package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vedran77/voiceapp/internal/config"
	"github.com/vedran77/voiceapp/internal/database"
	"github.com/vedran77/voiceapp/internal/events"
	"github.com/vedran77/voiceapp/internal/logging"
	"github.com/vedran77/voiceapp/internal/media"
	"github.com/vedran77/voiceapp/internal/repository"
	memoryrepo "github.com/vedran77/voiceapp/internal/repository/memory"
	postgresrepo "github.com/vedran77/voiceapp/internal/repository/postgres"
	"github.com/vedran77/voiceapp/internal/service"
	"github.com/vedran77/voiceapp/internal/token"
	"github.com/vedran77/voiceapp/internal/transport/http/router"
	"github.com/vedran77/voiceapp/internal/transport/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Repositories
	var (
		userRepo  repository.UserRepository
		voiceRepo repository.VoiceRepository
	)
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := database.Connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
		log.Info("connected to database")

		userRepo = postgresrepo.NewUserRepo(pool)
		voiceRepo = postgresrepo.NewVoiceRepo(pool)
	default:
		log.Warn("using in-memory store, data is lost on restart")
		userRepo = memoryrepo.NewUserRepo()
		voiceRepo = memoryrepo.NewVoiceRepo()
	}

	// Media
	var store media.Store
	switch cfg.MediaDriver {
	case config.MediaS3:
		s3Store, err := media.NewS3Store(ctx, media.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Prefix:    cfg.S3Prefix,
		})
		if err != nil {
			return err
		}
		store = s3Store
	default:
		fsStore, err := media.NewFileStore(cfg.UploadDir)
		if err != nil {
			return err
		}
		store = fsStore
	}

	// Services
	tokens := token.NewService(cfg.JWTSecret, cfg.TokenTTL)
	clock := service.RealClock{}
	authService := service.NewAuthService(userRepo, tokens, clock)
	voiceService := service.NewVoiceService(voiceRepo, userRepo, clock)

	// WebSocket hub and optional cross-process fan-out
	hub := ws.NewHub(log)
	go hub.Run(ctx)

	var publisher ws.Publisher = hub
	if cfg.RedisURL != "" {
		rdb, err := events.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()

		broker := events.NewBroker(rdb, cfg.RedisChannel, hub, log)
		go func() {
			if err := broker.Run(ctx); err != nil {
				log.WithError(err).Error("event subscription stopped")
			}
		}()
		publisher = broker
	}
	voiceService.SetNotifier(ws.NewHubNotifier(publisher, log))

	handler := router.New(router.Deps{
		AuthService:    authService,
		VoiceService:   voiceService,
		Tokens:         tokens,
		Media:          store,
		Hub:            hub,
		Log:            log,
		CORSOrigin:     cfg.CORSOrigin,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
