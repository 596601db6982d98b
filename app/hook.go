package app

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// shutdownTimeout bounds how long in-flight requests and jobs get to finish.
const shutdownTimeout = 15 * time.Second

// Shutdown stops the HTTP servers, the job queue and the message router, then
// releases infrastructure.
func (a *App) Shutdown(ctx context.Context) error {
	logger := a.Observability.Logger
	logger.InfoContext(ctx, "Shutting down application")

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs []error
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if a.MetricsServer != nil {
		if err := a.MetricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
		}
	}
	if a.Modules.Mention != nil {
		if err := a.Modules.Mention.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.WatermillRouter != nil {
		if err := a.WatermillRouter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("watermill router close: %w", err))
		}
	}
	errs = append(errs, a.closeInfra())

	logger.InfoContext(ctx, "Application shut down")
	return errors.Join(errs...)
}

func (a *App) closeInfra() error {
	var errs []error
	if a.EventBus != nil {
		if err := a.EventBus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event bus close: %w", err))
		}
	}
	if a.NATS != nil {
		a.NATS.Close()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}
	return errors.Join(errs...)
}
