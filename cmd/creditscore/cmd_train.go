package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mimir-aip/credit-decision/pkg/logging"
	"github.com/mimir-aip/credit-decision/pkg/models"
	"github.com/mimir-aip/credit-decision/pkg/scheduler"
)

var trainFlags struct {
	data     string
	folds    int
	testSize float64
	seed     int64
	grid     string
	schedule string
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Grid-search, fit and store every candidate model",
	Long: `Train loads the labelled CSV, holds out a test split, tunes each
candidate classifier by stratified k-fold cross-validation, refits the
best setting and stores the fitted pipeline under the model type.

With --schedule the run repeats on a cron schedule until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	f := trainCmd.Flags()
	f.StringVar(&trainFlags.data, "data", "", "Training CSV (default: $DATA_DIR/$TRAIN_FILE)")
	f.IntVar(&trainFlags.folds, "folds", 0, "Cross-validation folds (default: $CV_FOLDS)")
	f.Float64Var(&trainFlags.testSize, "test-size", 0, "Held-out share (default: $TEST_SIZE)")
	f.Int64Var(&trainFlags.seed, "seed", 0, "Random seed (default: $RANDOM_SEED)")
	f.StringVar(&trainFlags.grid, "grid", "", "YAML file listing candidates (type, param, values)")
	f.StringVar(&trainFlags.schedule, "schedule", "", "Cron spec for repeated training (default: $TRAIN_SCHEDULE)")
}

func runTrain(cmd *cobra.Command, _ []string) error {
	req, err := trainingRequest()
	if err != nil {
		return err
	}

	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	logger := logging.New("train")
	job := func(ctx context.Context) error {
		trained, err := svc.models.Train(ctx, req)
		if err != nil {
			return err
		}
		for _, m := range trained {
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s v%-3d cv=%.4f accuracy=%.4f f1=%.4f roc_auc=%.4f %s\n",
				m.Name, m.Version, m.CVScore,
				m.PerformanceMetrics.Accuracy, m.PerformanceMetrics.F1Score, m.PerformanceMetrics.ROCAUC,
				m.ModelArtifactPath)
		}
		return nil
	}

	spec := trainFlags.schedule
	if spec == "" {
		spec = cfg.TrainSchedule
	}
	if spec == "" {
		return job(cmd.Context())
	}

	sched, err := scheduler.NewService(spec, job, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched.Start(ctx)
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sched.Stop(stopCtx)
	return nil
}

func trainingRequest() (*models.TrainingRequest, error) {
	req := &models.TrainingRequest{
		DataPath:   trainFlags.data,
		CVFolds:    trainFlags.folds,
		TestSize:   trainFlags.testSize,
		RandomSeed: trainFlags.seed,
	}
	if req.DataPath == "" {
		req.DataPath = cfg.TrainPath()
	}
	if req.CVFolds == 0 {
		req.CVFolds = cfg.CVFolds
	}
	if req.TestSize == 0 {
		req.TestSize = cfg.TestSize
	}
	if req.RandomSeed == 0 {
		req.RandomSeed = cfg.RandomSeed
	}
	if trainFlags.grid != "" {
		candidates, err := loadGrid(trainFlags.grid)
		if err != nil {
			return nil, err
		}
		req.Candidates = candidates
	}
	return req, req.Validate()
}

// loadGrid reads a YAML list of candidates.
func loadGrid(path string) ([]models.Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read grid file: %w", err)
	}
	var candidates []models.Candidate
	if err := yaml.Unmarshal(data, &candidates); err != nil {
		return nil, fmt.Errorf("failed to parse grid file: %w", err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("grid file %s lists no candidates", path)
	}
	return candidates, nil
}
