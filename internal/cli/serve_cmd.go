package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alexanderramin/edboard/internal/api"
	"github.com/alexanderramin/edboard/internal/board"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP with a background poller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			fmt.Fprintf(cmd.OutOrStdout(), "edboard listening on %s\n", addr)
			return runServer(ctx, app, addr)
		},
	}

	defaultAddr := app.HTTPAddr
	if defaultAddr == "" {
		defaultAddr = ":8080"
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "Listen address")
	return cmd
}

// runServer polls the board and serves the API until ctx is cancelled,
// then shuts the server down and waits for the poller to exit.
func runServer(ctx context.Context, app *App, addr string) error {
	logger := app.logger()
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewHandler(app.Board, logger).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	pollCtx, cancelPoll := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = board.NewPoller(app.Board, app.PollInterval, logger).Run(pollCtx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server started", zap.String("addr", addr))
		serveErr <- srv.ListenAndServe()
	}()

	var err error
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if sErr := srv.Shutdown(shutdownCtx); sErr != nil {
			err = fmt.Errorf("shutting down http server: %w", sErr)
		}
	case sErr := <-serveErr:
		if !errors.Is(sErr, http.ErrServerClosed) {
			err = fmt.Errorf("http server: %w", sErr)
		}
	}

	cancelPoll()
	wg.Wait()
	logger.Info("http server stopped")
	return err
}
