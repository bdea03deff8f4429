// Package shutdown runs long-lived commands until they finish or the process
// is asked to stop.
package shutdown

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// RunWithGracefulShutdown starts runner and blocks until it returns or the
// process receives SIGINT/SIGTERM. On a signal the runner context is
// cancelled and shutdown is given up to timeout to release resources.
func RunWithGracefulShutdown(
	ctx context.Context,
	logger *slog.Logger,
	timeout time.Duration,
	runner func(ctx context.Context) error,
	shutdown func(ctx context.Context) error,
) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	return run(ctx, logger, timeout, sigChan, runner, shutdown)
}

func run(
	ctx context.Context,
	logger *slog.Logger,
	timeout time.Duration,
	sigChan <-chan os.Signal,
	runner func(ctx context.Context) error,
	shutdown func(ctx context.Context) error,
) error {
	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()

	runDone := make(chan error, 1)
	go func() {
		runDone <- runner(runCtx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("received signal, initiating shutdown", "signal", sig)
	case <-ctx.Done():
		logger.Info("context cancelled, initiating shutdown")
	case err := <-runDone:
		if shutdown != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if serr := shutdown(shutdownCtx); serr != nil {
				logger.Error("shutdown error", "error", serr)
			}
		}
		return err
	}

	runCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if shutdown != nil {
		if err := shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}

	select {
	case err := <-runDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded")
	}

	logger.Info("shutdown complete")
	return nil
}
