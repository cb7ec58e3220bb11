package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/studycore/internal/api"
	"github.com/example/studycore/internal/auth"
	"github.com/example/studycore/internal/bot"
	"github.com/example/studycore/internal/calendar"
	"github.com/example/studycore/internal/config"
	"github.com/example/studycore/internal/database"
	"github.com/example/studycore/internal/logger"
	"github.com/example/studycore/internal/notify"
	"github.com/example/studycore/internal/scheduler"
	"github.com/example/studycore/internal/study"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLog.Sync()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("failed to connect to database", "driver", cfg.DatabaseDriver, "error", err)
	}
	store := database.NewStore(db)
	defer store.Close()

	var states auth.StateStore = auth.NewMemoryStateStore()
	if cfg.RedisAddr != "" {
		redisStates, err := auth.NewRedisStateStore(ctx, cfg.RedisAddr)
		if err != nil {
			appLog.Fatal("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		}
		defer redisStates.Close()
		states = redisStates
	}

	provider := auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI)
	issuer := auth.NewTokenIssuer(cfg.SecretKey, cfg.AccessTokenTTL)

	opts := study.Options{
		Location:         cfg.Location,
		DefaultIntervals: cfg.DefaultIntervals,
		FeedbackTo:       cfg.FeedbackEmailTo,
		Logger:           appLog,
	}

	var notifiers notify.Multi
	if cfg.SendGridAPIKey != "" {
		mailer, err := notify.NewMailer(appLog, notify.MailConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		})
		if err != nil {
			appLog.Fatal("failed to create mailer", "error", err)
		}
		opts.Feedback = mailer
		notifiers = append(notifiers, notify.NewEmailNotifier(mailer, cfg.AppURL))
	} else {
		appLog.Warn("SENDGRID_API_KEY not set, email is disabled")
	}

	if cfg.CalendarSyncEnabled {
		opts.Calendar = calendar.NewSink(provider.OAuthConfig(), store.Tokens, appLog)
	}

	svc := study.NewService(store, opts)

	if cfg.TelegramBotToken != "" {
		b, err := bot.New(&bot.Config{
			Token:         cfg.TelegramBotToken,
			AppURL:        cfg.AppURL,
			UpdateTimeout: bot.DefaultConfig().UpdateTimeout,
		}, svc, appLog)
		if err != nil {
			appLog.Fatal("failed to create telegram bot", "error", err)
		}
		notifiers = append(notifiers, b)
		go func() {
			if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				appLog.Error("telegram bot stopped", "error", err)
			}
		}()
	}

	if cfg.SchedulerEnabled && len(notifiers) > 0 {
		sched := scheduler.New(svc, notifiers, scheduler.Config{
			Hour:     cfg.ReminderHour,
			Location: cfg.Location,
		}, appLog)
		if err := sched.Start(ctx); err != nil {
			appLog.Fatal("failed to start scheduler", "error", err)
		}
		defer sched.Stop()
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.RouterConfig{
		AuthHandler: api.NewAuthHandler(appLog, api.AuthHandlerConfig{
			Provider:      provider,
			States:        states,
			StateTTL:      cfg.OAuthStateTTL,
			Issuer:        issuer,
			Accounts:      svc,
			AppURL:        cfg.AppURL,
			SecureCookies: cfg.IsProduction(),
		}),
		AuthMiddleware: api.NewAuthMiddleware(appLog, issuer, svc),
		StudyHandler:   api.NewStudyHandler(appLog, svc),
		HealthHandler:  api.NewHealthHandler(store.Ping),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	server := api.NewServer(cfg.HTTPAddr, router, appLog)

	done := make(chan struct{})
	go func() {
		sig := <-sigChan
		appLog.Info("received signal", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			appLog.Error("error during shutdown", "error", err)
		}
		close(done)
	}()

	if err := server.Run(); err != nil {
		appLog.Fatal("http server failed", "error", err)
	}
	<-done
	appLog.Info("server stopped")
}
