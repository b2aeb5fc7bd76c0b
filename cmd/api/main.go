package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexarts74/payetavie/internal/app"
	"github.com/alexarts74/payetavie/internal/cache"
	"github.com/alexarts74/payetavie/internal/cognito"
	"github.com/alexarts74/payetavie/internal/config"
	apihttp "github.com/alexarts74/payetavie/internal/http"
	"github.com/alexarts74/payetavie/internal/middleware"
	"github.com/alexarts74/payetavie/internal/notify"
	"github.com/alexarts74/payetavie/internal/repository"
	"github.com/alexarts74/payetavie/internal/service"
)

// userResolverAdapter adapts the user service to the middleware.UserResolver interface.
type userResolverAdapter struct {
	users *service.UserService
}

func (a *userResolverAdapter) ResolveUser(ctx context.Context, sub, email, accessToken string) (string, string, error) {
	user, err := a.users.Resolve(ctx, sub, email, accessToken)
	if err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			return "", "", fmt.Errorf("%w: %v", middleware.ErrIdentityRejected, err)
		}
		return "", "", err
	}
	return user.ID, user.Email, nil
}

func main() {
	// Initial logger at info level; reconfigured after config load
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(context.Background()); err != nil {
		logger.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.ParseLogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("config loaded",
		"env", cfg.AppEnv,
		"port", cfg.ServerPort,
		"auth_dev_mode", cfg.AuthDevMode,
		"log_level", cfg.LogLevel,
		"timezone", cfg.Timezone,
		"mail_provider", cfg.Mail.Provider,
	)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// Database connection
	db, err := repository.NewDB(ctx, cfg.DB.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database connected")

	if cfg.AutoMigrate {
		if err := repository.MigrateUp(ctx, db); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	// Repositories
	reminderRepo := repository.NewPostgresReminder(db)
	userRepo := repository.NewPostgresUser(db)

	// Topic view cache
	var topicCache service.TopicCache
	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer client.Close()
		topicCache = cache.NewRedisTopicCache(client, cfg.Redis.TTL)
		logger.Info("redis cache enabled", "addr", cfg.Redis.Addr)
	}

	// Services
	reminderSvc := service.NewReminderService(reminderRepo, topicCache, loc, logger)

	var directory cognito.Directory
	if !cfg.AuthDevMode {
		d, err := cognito.NewAWSDirectory(ctx, cfg.Cognito.Region)
		if err != nil {
			return err
		}
		directory = d
		logger.Info("cognito directory initialized", "region", cfg.Cognito.Region)
	}
	userSvc := service.NewUserService(userRepo, directory)

	// Notifications
	dispatcher, err := app.NewDispatcher(ctx, cfg, db, logger)
	if err != nil {
		return err
	}
	if cfg.Cron.Secret == "" {
		logger.Warn("CRON_SECRET not set: dispatch endpoint is unprotected")
	}

	// Auth middleware
	authCfg := middleware.AuthConfig{
		DevMode:      cfg.AuthDevMode,
		UserResolver: &userResolverAdapter{users: userSvc},
	}
	if !cfg.AuthDevMode {
		jwksURL := middleware.CognitoJWKSURL(cfg.Cognito.Region, cfg.Cognito.UserPoolID)
		authCfg.JWKSClient = middleware.NewJWKSClient(jwksURL)
		authCfg.Issuer = middleware.CognitoIssuer(cfg.Cognito.Region, cfg.Cognito.UserPoolID)
		authCfg.AppClientID = cfg.Cognito.AppClientID
	}
	auth, err := middleware.NewAuth(authCfg)
	if err != nil {
		return fmt.Errorf("failed to create auth middleware: %w", err)
	}

	// HTTP Server
	srv := apihttp.NewServer(cfg.ServerPort, apihttp.Deps{
		Reminders:  reminderSvc,
		DB:         db,
		Runner:     dispatcher,
		CronSecret: cfg.Cron.Secret,
		Logger:     logger,
	}, auth)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Cron.Schedule != "" {
		scheduler, err := notify.NewScheduler(cfg.Cron.Schedule, loc, dispatcher, logger)
		if err != nil {
			return err
		}
		scheduler.Start()
		logger.Info("notification schedule started", "schedule", cfg.Cron.Schedule)
		defer func() {
			<-scheduler.Stop().Done()
			logger.Info("notification schedule stopped")
		}()
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	logger.Info("server starting", "port", cfg.ServerPort)

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server stopped gracefully")
	return nil
}
