package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	_ "github.com/obetrack/obe-api/api/swagger"
	"github.com/obetrack/obe-api/internal/handler"
	"github.com/obetrack/obe-api/internal/repository"
	"github.com/obetrack/obe-api/internal/service"
	"github.com/obetrack/obe-api/pkg/cache"
	"github.com/obetrack/obe-api/pkg/config"
	"github.com/obetrack/obe-api/pkg/database"
	"github.com/obetrack/obe-api/pkg/export"
	"github.com/obetrack/obe-api/pkg/jobs"
	"github.com/obetrack/obe-api/pkg/logger"
	"github.com/obetrack/obe-api/pkg/mailer"
)

// @title OBE Tracker API
// @version 1.0.0
// @description Course and program outcome assessment tracking
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Outbound mail: one queue, provider chosen by config.
	var sender mailer.Mailer
	switch cfg.Mail.Provider {
	case "sendgrid":
		sender = mailer.NewSendGridMailer(cfg.Mail.SendGridKey, cfg.Mail.SenderName, cfg.Mail.SenderAddress)
	default:
		sender = mailer.NewConsoleMailer(logr)
	}
	mailQueue := jobs.NewMailQueue(sender, jobs.MailQueueConfig{
		Workers:    cfg.Mail.QueueWorkers,
		MaxRetries: cfg.Mail.QueueRetries,
		Logger:     logr,
	})
	queueCtx, queueCancel := context.WithCancel(context.Background())
	mailQueue.Start(queueCtx)
	defer func() {
		queueCancel()
		mailQueue.Stop()
	}()

	// Services.
	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Cache.SummaryTTL, logr, cfg.Cache.Enabled)
	authService := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		Secret: cfg.Session.Secret,
		Expiry: cfg.Session.Expiration,
		Issuer: cfg.Session.Issuer,
	})
	otpService := service.NewOTPService(userRepo, cacheRepo, mailQueue, authService, validate, logr, service.OTPConfig{
		TTL:         cfg.OTP.TTL,
		MaxAttempts: cfg.OTP.MaxAttempts,
	})
	userService := service.NewUserService(userRepo, validate, logr)
	courseService := service.NewCourseService(courseRepo, userRepo, validate, logr)
	scoreService := service.NewScoreService(scoreRepo, cacheService, validate, logr)
	rosterService := service.NewRosterService(rosterRepo, auditRepo, validate, logr)
	catalogService := service.NewCatalogService(catalogRepo, validate, logr)
	reportService := service.NewReportService(scoreService, courseService, export.NewCSVExporter(), export.NewPDFExporter(), logr)
	feedbackService := service.NewFeedbackService(mailQueue, cfg.Mail.SenderName, cfg.Mail.FeedbackRecipient, validate, logr)

	// Handlers.
	secureCookie := cfg.Env == config.EnvProduction
	router := handler.NewRouter(handler.RouterDeps{
		Cfg:            cfg,
		Logger:         logr,
		DB:             db,
		Redis:          redisClient,
		AuthService:    authService,
		MetricsService: metricsService,
		Auth:           handler.NewAuthHandler(authService, otpService, secureCookie),
		Teachers:       handler.NewTeacherHandler(userService, courseService),
		Courses:        handler.NewCourseHandler(courseService),
		Scores:         handler.NewScoreHandler(scoreService),
		Rosters:        handler.NewRosterHandler(rosterService),
		Catalog:        handler.NewCatalogHandler(catalogService),
		Reports:        handler.NewReportHandler(reportService),
		Feedback:       handler.NewFeedbackHandler(feedbackService),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
