package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mimir-aip/credit-decision/pkg/api"
	"github.com/mimir-aip/credit-decision/pkg/logging"
	"github.com/mimir-aip/credit-decision/pkg/mlmodel"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve loan decisions over HTTP",
	Long: `Serve loads the $MODEL_NAME artifact once and answers
POST /predict and POST /prediction_api on $PORT until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := logging.New("api")

	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	predictor, err := mlmodel.LoadPredictor(svc.artifacts, cfg.ModelName, schema)
	if err != nil {
		return err
	}
	logger.Info("model loaded", "model", cfg.ModelName, "type", predictor.ModelType(), "environment", cfg.Environment)

	server := api.NewServer(predictor, svc.models, cfg.Port, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return err
	}
	logger.Info("server exited")
	return nil
}
