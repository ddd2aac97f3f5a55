package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vehicle-intelligence/config"
	"vehicle-intelligence/internal/api/httpapi"
	"vehicle-intelligence/internal/container"
	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/errors"
	"vehicle-intelligence/internal/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "vehicle-intelligence",
		Short:        "Vehicle inspection from walk-around videos",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newInspectCmd())
	return root
}

// bootstrap загружает конфиг, логгер и собирает контейнер
func bootstrap(ctx context.Context) (*config.Config, *zap.Logger, *container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "load config")
	}
	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "create logger")
	}
	c, err := container.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize services", zap.Error(err))
		_ = logger.Sync()
		return nil, nil, nil, err
	}
	return cfg, logger, c, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, logger, c, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer logger.Sync()

			srv := &http.Server{
				Addr: cfg.HTTPAddr,
				Handler: httpapi.NewRouter(httpapi.Deps{
					Processor:  c.Processor,
					Tracker:    c.Tracker,
					Ready:      c.Ready,
					Production: cfg.Production(),
					Logger:     logger,
				}),
				ReadHeaderTimeout: 15 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server listening", zap.String("addr", cfg.HTTPAddr), zap.Bool("mock", cfg.MockMode))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					logger.Error("server failed", zap.Error(err))
					_ = c.Close()
					return err
				}
			case <-ctx.Done():
				logger.Info("shutting down server")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("shutdown error", zap.Error(err))
			}
			if err := c.Close(); err != nil {
				logger.Warn("release models", zap.Error(err))
			}
			return nil
		},
	}
}

func newInspectCmd() *cobra.Command {
	var req entity.InspectionRequest

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Run one inspection and print the JSON result",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, logger, c, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer c.Close()

			result, err := c.Processor.Process(ctx, req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&req.VideoPath, "video", "", "path to the inspection video")
	cmd.Flags().StringVar(&req.InspectionID, "id", "", "inspection id")
	cmd.Flags().StringVar(&req.OdometerImagePath, "odometer", "", "optional odometer photo")
	_ = cmd.MarkFlagRequired("video")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
