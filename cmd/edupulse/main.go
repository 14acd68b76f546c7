package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/CamHV12/edupulse/internal/api/http"
	"github.com/CamHV12/edupulse/internal/app"
	auth "github.com/CamHV12/edupulse/internal/auth/middleware"
	"github.com/CamHV12/edupulse/internal/config"
	"github.com/CamHV12/edupulse/internal/db"
	"github.com/CamHV12/edupulse/internal/exam"
	"github.com/CamHV12/edupulse/internal/logx"
	"github.com/CamHV12/edupulse/internal/notify"
	"github.com/CamHV12/edupulse/internal/store"
	syncx "github.com/CamHV12/edupulse/internal/sync"
)

var version = "dev"

func main() {
	cfg := config.FromEnv()
	logger := logx.New(logx.Options{
		Level:        cfg.LogLevel,
		Format:       cfg.LogFormat,
		RollbarToken: cfg.RollbarToken,
		Environment:  cfg.Env,
		Version:      version,
	})
	slog.SetDefault(logger)
	defer logx.Flush()

	// --- Journal DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		logger.Error("db open failed", "driver", cfg.DBDriver, "err", err)
		os.Exit(1)
	}
	defer dbh.Close()

	// --- Remote store + result sync ---
	st := store.New(store.Config{
		URL:          cfg.StoreURL,
		Timeout:      cfg.StoreTimeout,
		TokenURL:     cfg.StoreTokenURL,
		ClientID:     cfg.StoreClientID,
		ClientSecret: cfg.StoreClientSecret,
	})
	events := syncx.NewEventRepo(dbh)
	syncer := syncx.New(syncx.NewSQLJournal(dbh), st, events, logger)

	// --- Reminders ---
	var sender notify.Sender = notify.NewConsoleSender(logger)
	if cfg.SendGridAPIKey != "" {
		from, err := mail.ParseAddress(cfg.MailFrom)
		if err != nil {
			logger.Error("bad mail_from", "value", cfg.MailFrom, "err", err)
			os.Exit(1)
		}
		sender = notify.NewSendGridSender(cfg.SendGridAPIKey, *from)
	}

	var admin auth.LocalAdmin
	if cfg.EnableLocalAuth {
		admin = auth.LocalAdmin{User: cfg.AdminUser, PassHash: cfg.AdminPassHash}
	}

	svc := app.New(app.Options{
		Store:        st,
		Syncer:       syncer,
		Events:       events,
		Reminders:    notify.NewDispatcher(sender, logger),
		LocalAdmin:   admin,
		Sessions:     exam.NewRegistry(),
		Log:          logger,
		StoreTimeout: cfg.StoreTimeout,
	})
	// /readyz stays 503 until a snapshot loads
	if err := svc.Refresh(ctx); err != nil {
		logger.Warn("initial snapshot not loaded; retry with POST /snapshot/refresh", "err", err)
	}

	authSvc := auth.NewAuthService(cfg.AuthHMACSecret, cfg.SessionTTL)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	api.Mount(r, authSvc, svc, cfg.Mode == config.ModeOffline)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdown, done := context.WithTimeout(context.Background(), 20*time.Second)
	defer done()
	if err := srv.Shutdown(shutdown); err != nil {
		logger.Error("shutdown", "err", err)
	}
	svc.Wait()
	logger.Info("stopped")
}
