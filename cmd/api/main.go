package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"

	"github.com/bryanwahyu/greenscan/internal/config"
	"github.com/bryanwahyu/greenscan/internal/infra/httpserver"
	"github.com/bryanwahyu/greenscan/internal/logging"
)

const sessionSweep = 5 * time.Minute

var configPath string

var rootCmd = &cobra.Command{
	Use:   "greenscan",
	Short: "Sustainability analysis for everyday products.",
	Long: `greenscan serves a small web page where signed-in users describe a product
and get back a sustainability report produced by an analysis webhook.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the history table if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openHistory(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.repo.Migrate(cmd.Context()); err != nil {
			return err
		}
		logging.Default().Info("history table ready",
			"driver", cfg.Database.Driver, "table", cfg.Database.Table)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is $CONFIG_PATH or config.yaml)")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	// path config.yaml
	path := configPath
	if path == "" {
		path = "config.yaml"
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			path = v
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logging.SetDefault(logging.New(cfg.Log.Level, os.Stdout))
	return cfg, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.Default()

	app, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go app.deps.Analysis.Cleanup(cleanupCtx, sessionSweep)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpserver.NewRouter(app.deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr,
			"analyzer", cfg.Analyzer.Provider, "identity", cfg.Identity.Mode, "database", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	logger.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	// archive and history writes may still be running
	if err := app.deps.Analysis.Flush(ctx2); err != nil {
		logger.Warn("analyses not flushed", "error", err)
	}
	return nil
}
