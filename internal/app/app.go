package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/gradebook-backend/internal/config"
	"github.com/heartmarshall/gradebook-backend/internal/realtime"
	"github.com/heartmarshall/gradebook-backend/internal/service/gradebook"
	"github.com/heartmarshall/gradebook-backend/internal/service/notify"
	"github.com/heartmarshall/gradebook-backend/internal/transport"
	"github.com/heartmarshall/gradebook-backend/internal/transport/middleware"
	"github.com/heartmarshall/gradebook-backend/internal/transport/rest"
	"github.com/heartmarshall/gradebook-backend/internal/transport/ws"
)

// Run is the application entry point. It loads configuration, opens the
// configured store, serves HTTP and blocks until ctx is cancelled or a
// component fails.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("storage", cfg.Storage.Driver),
	)

	clock := clockwork.NewRealClock()
	hub := realtime.NewHub(logger)

	g, ctx := errgroup.WithContext(ctx)

	store, err := openStore(ctx, cfg, logger, hub, clock)
	if err != nil {
		return err
	}
	defer store.close()

	if store.listener != nil {
		g.Go(func() error { return store.listener.Run(ctx) })
	}

	recorder := notify.NewRecorder(logger, clock, cfg.Notify.History)

	svc := gradebook.NewService(logger, store.stores, hub, recorder, clock, gradebook.Options{
		RollbackFailedDelete: cfg.Sync.RollbackFailedDelete,
	})
	if err := svc.Open(ctx); err != nil {
		// Collections stay subscribed and reload on the next change.
		logger.Warn("initial load incomplete", slog.String("error", err.Error()))
	}
	defer svc.Close()

	limiter := middleware.NewRateLimiter(clock, time.Minute)
	defer limiter.Stop()

	stream := ws.NewHandler(
		func(opts gradebook.Options, n notify.Func) ws.Session {
			opts.RollbackFailedDelete = cfg.Sync.RollbackFailedDelete
			return gradebook.NewService(logger, store.stores, hub, n, clock, opts)
		},
		recorder,
		clock,
		ws.Config{
			Recent:         cfg.Sync.DashboardRecent,
			WriteTimeout:   cfg.Sync.WSWriteTimeout,
			PingInterval:   cfg.Sync.WSPingInterval,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
		},
		logger,
	)

	router := transport.NewRouter(transport.RouterDeps{
		Health:      rest.NewHealthHandler(store.pinger, store.feed, Version),
		Gradebook:   rest.NewGradebookHandler(svc, recorder, cfg.Sync.DashboardRecent, logger),
		Stream:      stream,
		RateLimiter: limiter,
		Config:      *cfg,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		// Websocket sessions end when the application shuts down.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("application stopped")
	return err
}
