// Package server hosts the HTTP surface of the bot: the LINE webhook,
// service info, health check, and meeting listing endpoints.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	coreconfig "github.com/Fuu-choco/zoom-line-bot/core/config"
	"github.com/Fuu-choco/zoom-line-bot/core/logger"

	"log/slog"
)

const shutdownGrace = 10 * time.Second

// RunOptions controls the behaviour of Run.
type RunOptions struct {
	Config  *coreconfig.Config
	Handler http.Handler

	OnStart func(ctx context.Context) error
	OnStop  func(ctx context.Context) error
}

// Run serves HTTP until the provided context is done, then shuts down
// gracefully.
func Run(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return errors.New("server: nil config provided")
	}
	if opts.Handler == nil {
		return errors.New("server: nil handler provided")
	}

	addr := opts.Config.ListenAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           Recover(opts.Handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx); err != nil {
			return err
		}
	}

	logger.HTTP.Info("listening",
		slog.String("event", "listen"),
		slog.String("listen", addr),
	)

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.ListenAndServe()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.HTTP.Warn("shutdown incomplete",
				slog.String("event", "shutdown"),
				slog.String("err", err.Error()),
			)
		}
		<-serveDone
		runErr = ctx.Err()
	case err := <-serveDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	var stopErr error
	if opts.OnStop != nil {
		stopErr = opts.OnStop(context.Background())
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return stopErr
}
