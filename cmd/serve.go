package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/imagenet-fetch/internal/config"
	"github.com/lehigh-university-libraries/imagenet-fetch/internal/handlers"
	"github.com/lehigh-university-libraries/imagenet-fetch/internal/report"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	var dir string
	var reportPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Browse downloaded class directories over HTTP",
		Long: `Starts a read-only web server over the class directories written by
"download images".

Endpoints:
  GET /api/classes          class directories with image counts
  GET /api/classes/{wnid}   images of one class
  GET /api/report           the run report given with --report
  GET /images/{wnid}/{file} an image file`,
		Example: `  # Browse ./images on the default port 8888
  imagenet-fetch serve --output ./images

  # Also expose a run report
  imagenet-fetch serve --output ./images --report reports/run.yaml --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("output") {
				dir = config.FromEnv().OutputDir
			}

			var rep *report.Report
			if reportPath != "" {
				var err error
				rep, err = report.Load(reportPath)
				if err != nil {
					return err
				}
			}
			handler := handlers.New(dir, rep)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/classes", handler.HandleClasses)
			mux.HandleFunc("/api/classes/", handler.HandleClassDetail)
			mux.HandleFunc("/api/report", handler.HandleReport)
			mux.HandleFunc("/images/", handler.HandleImage)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Class browser available", "addr", addr, "url", "http://localhost"+addr, "dir", dir)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
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

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVarP(&dir, "output", "o", config.DefaultOutputDir, "Directory holding the class directories")
	cmd.Flags().StringVar(&reportPath, "report", "", "Run report to expose at /api/report (.yaml, .yml or .parquet)")

	return cmd
}
