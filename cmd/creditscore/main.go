// creditscore trains, evaluates and serves the loan decision pipeline.
//
// Usage:
//
//	creditscore generate --rows 5000 --out datasets/train.csv
//	creditscore train [--data datasets/train.csv] [--folds 5] [--schedule "0 3 * * *"]
//	creditscore evaluate [--data datasets/test.csv] [--model random_forest]
//	creditscore predict --input rows.json [--model random_forest]
//	creditscore serve
//	creditscore models
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mimir-aip/credit-decision/pkg/config"
	"github.com/mimir-aip/credit-decision/pkg/logging"
	"github.com/mimir-aip/credit-decision/pkg/metadatastore"
	"github.com/mimir-aip/credit-decision/pkg/mlmodel"
	"github.com/mimir-aip/credit-decision/pkg/storage"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfg    *config.Config
	schema config.FeatureSchema
)

var rootCmd = &cobra.Command{
	Use:   "creditscore",
	Short: "Loan approval model training and serving",
	Long: `creditscore fits the loan application feature pipeline and classifier,
stores the fitted artifact, and serves Approved/Rejected decisions.

Configuration comes from the environment (PORT, DATA_DIR, MODEL_DIR,
MODEL_NAME, LOG_LEVEL, ...). Flags override it per command.`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logging.Init(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
		schema, err = cfg.Schema()
		if err != nil {
			return fmt.Errorf("failed to load feature schema: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// services holds the stores every model command needs.
type services struct {
	store     *metadatastore.SQLiteStore
	artifacts *storage.ArtifactStore
	models    *mlmodel.Service
}

func openServices() (*services, error) {
	artifacts, err := storage.NewArtifactStore(cfg.ModelDir)
	if err != nil {
		return nil, err
	}
	store, err := metadatastore.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open model registry: %w", err)
	}
	return &services{
		store:     store,
		artifacts: artifacts,
		models:    mlmodel.NewService(store, artifacts, schema),
	}, nil
}

func (s *services) Close() error {
	return s.store.Close()
}
