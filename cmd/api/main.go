package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/repaircoin/repaircoin-api/internal/config"
	"github.com/repaircoin/repaircoin-api/internal/domain/customer"
	"github.com/repaircoin/repaircoin-api/internal/domain/ledger"
	"github.com/repaircoin/repaircoin-api/internal/domain/noshow"
	"github.com/repaircoin/repaircoin-api/internal/domain/redemption"
	"github.com/repaircoin/repaircoin-api/internal/domain/shop"
	"github.com/repaircoin/repaircoin-api/internal/middleware"
	"github.com/repaircoin/repaircoin-api/internal/pkg/database"
	"github.com/repaircoin/repaircoin-api/internal/pkg/jwt"
	"github.com/repaircoin/repaircoin-api/internal/pkg/push"
	"github.com/repaircoin/repaircoin-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("Starting RepairCoin API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)
	qrSigner := redemption.NewQRSigner(cfg.QRSecret)
	fcmClient := push.NewFCMClient(push.FCMConfig{
		ServerKey: cfg.FCMServerKey,
		ProjectID: cfg.FCMProjectID,
	})

	// Repositories
	customerRepo := customer.NewRepository(db)
	shopRepo := shop.NewRepository(db)
	ledgerRepo := ledger.NewRepository(db)
	projector := ledger.NewProjector(db)
	redemptionRepo := redemption.NewRepository(db, ledgerRepo, projector)
	noshowRepo := noshow.NewRepository(db)

	// Services
	ledgerService := ledger.NewService(ledgerRepo, projector)
	redemptionService := redemption.NewService(
		redemptionRepo, projector, shopRepo, customerRepo,
		qrSigner, fcmClient, redisClient, cfg.SessionTTL,
	)
	noshowService := noshow.NewService(noshowRepo, shopRepo)

	// Handlers
	customerHandler := customer.NewHandler(customerRepo)
	ledgerHandler := ledger.NewHandler(ledgerService)
	redemptionHandler := redemption.NewHandler(redemptionService)
	noshowHandler := noshow.NewHandler(noshowService)

	// Background sweep keeps pending sessions from outliving their window
	// when nobody polls.
	sweeper := redemption.NewSweeper(redemptionRepo, cfg.SweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	auth := middleware.Auth(jwtService)

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		response.OK(w, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/balances", ledgerHandler.BalanceRoutes(auth))
		r.Route("/customers", func(r chi.Router) {
			r.Use(auth)
			r.With(middleware.RequireCustomer()).Get("/me", customerHandler.Me)
			r.With(middleware.RequireCustomer()).Put("/me/device", customerHandler.RegisterDevice)
			r.Get("/{customerId}/ledger", ledgerHandler.History)
		})
		r.Mount("/earnings", ledgerHandler.EarningRoutes(auth))
		r.Mount("/refunds", ledgerHandler.RefundRoutes(auth))
		r.Mount("/mint", ledgerHandler.MintRoutes(auth))
		r.Mount("/transfers", ledgerHandler.TransferRoutes(auth))
		r.Mount("/redemption-sessions", redemptionHandler.SessionRoutes(auth))
		r.Mount("/redemptions", redemptionHandler.ExecuteRoutes(auth))
		r.Mount("/qr", redemptionHandler.QRRoutes(auth))
		r.Mount("/no-shows", noshowHandler.Routes(auth))
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
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
