package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/CageChen/repodoc/internal/config"
	"github.com/CageChen/repodoc/internal/handler"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	var open bool
	cmd := &cobra.Command{
		Use:   "serve [PATHS...]",
		Short: "Serve the documents over HTTP and keep them current",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, args)
			if err != nil {
				return err
			}
			defer a.close()
			ctx := cmd.Context()

			wsHandler := handler.NewWSHandler()
			a.runner.OnGenerated(wsHandler.OnGenerated)

			w, err := startWatching(ctx, a, wsHandler.OnFileChange)
			if err != nil {
				a.log.Warn("file watcher disabled: %v", err)
			} else {
				defer func() { _ = w.Stop() }()
			}

			gin.SetMode(gin.ReleaseMode)
			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", a.cfg.Port),
				Handler:           handler.NewRouter(a.cfg, a.runner, wsHandler),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()
			url := fmt.Sprintf("http://localhost:%d", a.cfg.Port)
			a.log.Info("server starting at %s (config: %s)", url, a.cfg.GetConfigFilePath())
			if open {
				go openBrowser(url)
			}

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	defaults := config.DefaultConfig()
	cmd.Flags().IntP("port", "p", defaults.Port, "HTTP server port")
	cmd.Flags().Int("debounce", defaults.DebounceMs, "milliseconds of quiet before a changed root is regenerated")
	cmd.Flags().BoolVar(&open, "open", false, "open the browser on startup")
	return cmd
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		cmd = "open"
		args = []string{url}
	default: // linux, etc.
		cmd = "xdg-open"
		args = []string{url}
	}

	_ = exec.Command(cmd, args...).Start()
}
