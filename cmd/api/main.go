package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/partnerdesk/partner-api/internal/config"
	"github.com/partnerdesk/partner-api/internal/domain/partner"
	"github.com/partnerdesk/partner-api/internal/domain/transfer"
	"github.com/partnerdesk/partner-api/internal/domain/wallet"
	"github.com/partnerdesk/partner-api/internal/middleware"
	"github.com/partnerdesk/partner-api/internal/pkg/database"
	"github.com/partnerdesk/partner-api/internal/pkg/jwt"
	"github.com/partnerdesk/partner-api/internal/pkg/logger"
	pkgresponse "github.com/partnerdesk/partner-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Partner API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	// ---------- Repositories ----------
	partnerRepo := partner.NewRepository(db)
	transferRepo := transfer.NewRepository(db)

	// ---------- Services ----------
	enabled := enabledChannels(cfg)
	events := transfer.NewPublisher(redis)
	providers := map[wallet.Channel]string{
		wallet.ChannelA: cfg.ChannelAProvider,
		wallet.ChannelB: cfg.ChannelBProvider,
	}
	partnerService := partner.NewService(partnerRepo, providers)
	transferService := transfer.NewService(partnerRepo, transferRepo, events, enabled)

	// ---------- Handlers ----------
	partnerHandler := partner.NewHandler(partnerService)
	transferHandler := transfer.NewHandler(transferService, transferRepo)

	authMiddleware := middleware.Auth(jwtService)
	adminOnly := middleware.RequireSystemAdmin()

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(chimw.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/partners", partnerHandler.Routes(authMiddleware))
		r.Mount("/transfers", transferHandler.Routes(authMiddleware, adminOnly))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

func enabledChannels(cfg *config.Config) []wallet.Channel {
	var enabled []wallet.Channel
	if cfg.ChannelAEnabled {
		enabled = append(enabled, wallet.ChannelA)
	}
	if cfg.ChannelBEnabled {
		enabled = append(enabled, wallet.ChannelB)
	}
	return enabled
}
