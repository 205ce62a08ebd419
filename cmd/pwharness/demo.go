package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gotrs-io/pwharness/internal/demoapp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Serve the demo application the e2e suite runs against",
	Long: `Serves the demo application so the e2e suite can be pointed at it with
BASE_URL, or so a page object can be developed against it with VIEW_SPEED set.`,
	RunE: runDemo,
}

var demoAddrFlag string

func init() {
	demoCmd.Flags().StringVar(&demoAddrFlag, "addr", "127.0.0.1:8089", "Listen address")
}

func runDemo(cmd *cobra.Command, args []string) error {
	_, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	srv := &http.Server{
		Addr:              demoAddrFlag,
		Handler:           demoapp.New(demoapp.WithLogger(log)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	fmt.Fprintf(cmd.OutOrStdout(), "🚀 Demo app listening on http://%s\n", demoAddrFlag)
	log.Info("demo app started", zap.String("addr", demoAddrFlag))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("demo app stopped")
	return nil
}
