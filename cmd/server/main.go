// Command server runs the loan origination back-office API.
//
// @title                       Loan Origination API
// @version                     1.0
// @description                 Back office for loan applications: registry, status workflow and notifications.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/loanflow/origination/internal/api"
	"github.com/loanflow/origination/internal/api/handler"
	"github.com/loanflow/origination/internal/core/service"
	"github.com/loanflow/origination/internal/infrastructure/config"
	mongodb "github.com/loanflow/origination/internal/infrastructure/db/mongo"
	redisdb "github.com/loanflow/origination/internal/infrastructure/db/redis"
	"github.com/loanflow/origination/internal/infrastructure/queue"
	"github.com/loanflow/origination/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// a missing .env is fine; the environment may already be set
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.Init(logger.Options{})
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "origination",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	// --- Repositories ---
	users := mongodb.NewUserRepository(db)
	modules := mongodb.NewModuleRepository(db)
	products := mongodb.NewProductRepository(db)
	applications := mongodb.NewApplicationRepository(db)
	remarks := mongodb.NewRemarkRepository(db)
	notificationRepo := mongodb.NewNotificationRepository(db)
	tx := mongodb.NewTxManager(mongoClient)

	// --- Mail queue ---
	mail := queue.NewMailDispatcher(cfg.Mail.Workers, queue.NewLogMailer(cfg.Mail.From, log), log)
	mail.Start(ctx)

	// --- Services ---
	permissions := service.NewPermissionService(users)
	notifications := service.NewNotificationService(notificationRepo, log)
	verification := service.NewVerificationService(redisdb.NewVerificationStore(rdb), users, mail, service.VerificationConfig{
		Secret:      cfg.JWTSecret,
		CodeTTL:     cfg.Verification.CodeTTL,
		MaxAttempts: cfg.Verification.MaxAttempts,
	}, log)

	router := api.NewRouter(api.RouterConfig{
		JWTSecret: cfg.JWTSecret,
		Logger:    log,
		UserRepo:  users,
		Services: api.Services{
			Auth:         service.NewAuthService(users, verification, cfg.JWTSecret, cfg.TokenTTL, log),
			Verification: verification,
			Catalog:      service.NewCatalogService(modules, products, users, tx, permissions, log),
			Applications: service.NewApplicationService(service.ApplicationDeps{
				Applications:  applications,
				Remarks:       remarks,
				Notifications: notificationRepo,
				Users:         users,
				Modules:       modules,
				Products:      products,
				Tx:            tx,
				Notifier:      notifications,
				Permissions:   permissions,
			}, log, cfg.ReferenceMaxAttempts),
			Workflow:      service.NewWorkflowService(applications, remarks, tx, notifications, permissions, log),
			Notifications: notifications,
			Users:         service.NewUserService(users, modules, log),
		},
		Readiness: map[string]handler.Pinger{
			"mongodb": handler.MongoPinger(mongoClient),
			"redis":   handler.RedisPinger(rdb),
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
