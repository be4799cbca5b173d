package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/bookswap/internal/handlers"
	"github.com/lehigh-university-libraries/bookswap/internal/storage"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the donation kiosk web server",
		Long: `Starts the kiosk web interface and JSON API.

Donors upload labeled photos of their book to /api/intake. The configured
vision provider grades the photos and the credit engine awards credits.
Every intake is recorded in the configured store.`,
		Example: `  # Start server on the configured port (default 8888)
  bookswap serve

  # Start server on custom port with a config file
  bookswap serve --port 3000 --config /etc/bookswap.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			store, err := storage.Open(cfg.Store.Driver, cfg.Store.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			assessor, closeProvider, err := newAssessor(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeProvider(); err != nil {
					slog.Error("Unable to close provider", "err", err)
				}
			}()

			handler := handlers.New(handlers.Config{
				Store:       store,
				Assessor:    assessor,
				Engine:      cfg.NewEngine(),
				Provider:    cfg.Assessment.Provider,
				UploadsDir:  cfg.Server.UploadsDir,
				StaticDir:   cfg.Server.StaticDir,
				MaxUploadMB: cfg.Server.MaxUploadMB,
			})

			addr := ":" + cfg.Server.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Bookswap kiosk available",
					"addr", addr,
					"url", "http://localhost"+addr,
					"provider", cfg.Assessment.Provider,
					"models", cfg.Assessment.Models,
					"store", cfg.Store.Driver)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on (overrides server.port)")

	return cmd
}
