package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmfigueroa/planilla/internal/aggregate"
	"github.com/jmfigueroa/planilla/internal/api"
	"github.com/jmfigueroa/planilla/internal/config"
	"github.com/jmfigueroa/planilla/internal/engine"
	"github.com/jmfigueroa/planilla/internal/infer"
	"github.com/jmfigueroa/planilla/internal/sheet"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Serve the import and summary endpoints over HTTP:

  POST /api/imports                    multipart workbook upload
  GET  /api/weeks/{start}/summary      weekly financial summary`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", ":8420", "listen address")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	provider, err := infer.NewProvider(config.LoadInferenceConfig())
	if err != nil {
		// The server can still run legacy and override imports without a
		// provider; inference imports will fail per request.
		slog.Warn("No inference provider available", "error", err)
		provider = nil
	}

	importer := engine.NewImporter(store, sheet.NewAnalyzer(provider, sheet.ModeInference))
	server := api.NewServer(viper.GetString("server.addr"), importer, aggregate.NewAggregator(store))

	errChan := make(chan error, 1)
	go func() {
		if serveErr := server.ListenAndServe(); !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
