package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Run starts the message router, background jobs and HTTP servers, and
// blocks until ctx is cancelled or a server fails.
func (a *App) Run(ctx context.Context) error {
	logger := a.Observability.Logger

	g, gctx := errgroup.WithContext(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go a.Modules.Mention.Run(gctx, &wg)

	g.Go(func() error {
		if err := a.WatermillRouter.Run(gctx); err != nil {
			return fmt.Errorf("watermill router stopped: %w", err)
		}
		return nil
	})

	servers := []*http.Server{a.HTTPServer}
	if a.MetricsServer != nil {
		servers = append(servers, a.MetricsServer)
	}
	for _, srv := range servers {
		g.Go(func() error {
			logger.InfoContext(gctx, "HTTP server listening", slog.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return a.Shutdown(context.WithoutCancel(gctx))
	})

	err := g.Wait()
	wg.Wait()
	return err
}
