package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Run serves srv until ctx is cancelled, then drains in-flight requests
// for at most shutdownTimeout. It returns the listener error, if any.
func Run(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, logger *slog.Logger) error {
	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("🌍 [Server] HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		logger.Error("❌ [Server] HTTP server failed", "error", err)
		wg.Wait()
		return err
	case <-ctx.Done():
	}

	logger.Info("🛑 [Server] Initiating graceful shutdown...", "timeout", shutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("⚠️ [Server] Shutdown timeout exceeded, some requests may not have completed",
			"timeout", shutdownTimeout,
			"error", err,
		)
		srv.Close()
	}

	wg.Wait()
	logger.Info("✅ [Server] HTTP server stopped")
	return nil
}
