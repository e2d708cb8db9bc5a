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

	"sport_sessions/internal/booking"
	"sport_sessions/internal/config"
	"sport_sessions/internal/logger"
	"sport_sessions/internal/middleware"
	"sport_sessions/internal/realtime"
	"sport_sessions/internal/routes"
	"sport_sessions/internal/store"
	"sport_sessions/internal/telemetry"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		logrus.Fatal(err)
	}
}

// run owns every resource of the server; it returns only after its deferred
// cleanups have executed.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Initialize structured logging to file
	accessLog, err := logger.Setup(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "sport_sessions", cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		logrus.WithError(err).Warn("Tracing disabled.")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logrus.WithError(err).Warn("Flush traces.")
		}
	}()

	db, err := config.OpenDB(cfg, logger.GormLogger())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	s := store.New(db)
	defer s.Close()

	if n, err := s.EnsureSports(ctx, cfg.SeedSports); err != nil {
		return fmt.Errorf("seed sports: %w", err)
	} else if n > 0 {
		logrus.WithField("added", n).Info("Seeded sport catalog.")
	}

	engine := booking.NewEngine(s, booking.WithTimeout(cfg.OpTimeout))
	hub := realtime.NewHub(256)
	defer hub.Close()

	r := routes.SetupRouter(routes.Deps{
		Auth:      middleware.NewAuthenticator(cfg.JWTSecret),
		Sessions:  engine,
		Sports:    engine,
		Reports:   engine,
		Users:     s,
		Hub:       hub,
		AccessLog: accessLog,
		Timeout:   cfg.OpTimeout,

		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{"addr": srv.Addr, "driver": cfg.DBDriver}).Info("Server listening.")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		logrus.Info("Shutting down.")
		hub.Close()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
	}
	return nil
}
