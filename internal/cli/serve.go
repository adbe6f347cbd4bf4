package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

type listener struct {
	name    string
	ln      net.Listener
	handler http.Handler
}

// serveAll runs every listener until ctx is cancelled, SIGINT/SIGTERM
// arrives, or one of them fails; then shuts all of them down.
//
// Request contexts derive from the group context so long-lived streams
// (/events) end when shutdown starts instead of holding it open.
func serveAll(ctx context.Context, log *zap.Logger, ls ...listener) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, egCtx := errgroup.WithContext(ctx)
	for _, l := range ls {
		srv := &http.Server{
			Handler:           l.handler,
			BaseContext:       func(net.Listener) context.Context { return egCtx },
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		eg.Go(func() error {
			log.Info("listening", zap.String("server", l.name), zap.String("addr", l.ln.Addr().String()))
			if err := srv.Serve(l.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		eg.Go(func() error {
			<-egCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("shutdown", zap.String("server", l.name), zap.Error(err))
			}
			return nil
		})
	}
	return eg.Wait()
}
