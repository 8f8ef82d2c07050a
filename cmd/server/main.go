package main

import (
	"context"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/medoraai/clinic-backend/internal/ai"
	"github.com/medoraai/clinic-backend/internal/config"
	"github.com/medoraai/clinic-backend/internal/database"
	"github.com/medoraai/clinic-backend/internal/handler"
	"github.com/medoraai/clinic-backend/internal/middleware"
	"github.com/medoraai/clinic-backend/internal/queue"
	"github.com/medoraai/clinic-backend/internal/repository"
	"github.com/medoraai/clinic-backend/internal/router"
	"github.com/medoraai/clinic-backend/internal/service"
)

func main() {
	cfg := config.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Env == "dev" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	logger := log.With().Str("service", "clinic-backend").Logger()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connect failed")
	}
	defer db.Close()

	// Redis is optional: without it the login limiter, usage counters
	// and response cache degrade but the API stays up.
	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn().Msg("redis unavailable, rate limiting and usage metering disabled")
	}
	var cache service.Cache
	if rdb != nil {
		cache = service.NewRedisCache(rdb)
	}

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	tokens := repository.NewTokenRepo(db)
	plans := repository.NewPlanRepo(db)
	payments := repository.NewPaymentRepo(db)
	patients := repository.NewPatientRepo(db)
	analyses := repository.NewAnalysisRepo(db)

	sessionSvc := service.NewSessionService(sessions, tokens, logger)
	authSvc := &service.AuthService{
		Users:          users,
		Sessions:       sessionSvc,
		Limiter:        service.NewLoginLimiter(cache, logger),
		JWTSecret:      cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		BcryptCost:     cfg.BcryptCost,
		TrialDays:      cfg.DoctorTrialDays,
		Log:            logger,
	}
	usage := service.NewUsageTracker(cache, logger)
	aiClient := ai.New(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel)

	authH := handler.NewAuthHandler(authSvc, logger)
	profileH := handler.NewProfileHandler(users, authSvc, logger)
	subH := handler.NewSubscriptionHandler(users, plans, payments, usage, logger)
	patientH := handler.NewPatientHandler(patients, logger)
	analysisH := handler.NewAnalysisHandler(patients, analyses, plans, usage, aiClient, logger)
	healthH := handler.NewHealthHandler(db, rdb)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.SecurityHeaders(cfg.Env))
	e.Use(middleware.NewIPRateLimit(rdb, 100, time.Minute))

	router.RegisterHealth(e, healthH)
	router.RegisterAuth(e, authH)
	router.RegisterPublic(e, subH, rdb)
	router.RegisterAccount(e, cfg.JWTSecret, profileH, subH)
	router.RegisterClinical(e, cfg.JWTSecret, users, patientH, analysisH)

	if cfg.TelegramBotToken != "" && cfg.TelegramPaymentGroupID != "" {
		go queue.StartPaymentConsumer(cfg.TelegramBotToken, cfg.TelegramPaymentGroupID)
	} else {
		logger.Warn().Msg("telegram not configured, payment notifications disabled")
	}

	// Ledger rows for long-expired refresh tokens are dead weight;
	// sweep them twice a day.
	go func() {
		for {
			if n, err := tokens.PurgeExpired(context.Background(), time.Now().UTC()); err != nil {
				logger.Warn().Err(err).Msg("token ledger purge failed")
			} else if n > 0 {
				logger.Info().Int64("purged", n).Msg("token ledger purged")
			}
			time.Sleep(12 * time.Hour)
		}
	}()

	addr := ":" + cfg.Port
	logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(addr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
