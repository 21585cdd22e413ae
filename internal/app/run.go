package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// Run starts every long-lived component and blocks until ctx is canceled or
// one of them fails. The HTTP server shuts down gracefully on cancel.
func (r *Runtime) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	httpServer := &http.Server{
		Addr:              r.Config.HTTPAddr,
		Handler:           r.Gateway.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group.Go(func() error {
		r.Logger.Info("gateway listening", "addr", r.Config.HTTPAddr)
		err := httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	group.Go(func() error { return r.Engine.Start(ctx) })
	group.Go(func() error { return r.Scheduler.Run(ctx) })
	group.Go(func() error { return r.Watcher.Run(ctx) })

	if r.MCP != nil {
		group.Go(func() error { return r.MCP.RunHTTP(ctx, r.Config.MCPAddr) })
	}

	return group.Wait()
}
