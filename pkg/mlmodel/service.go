package mlmodel

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/mimir-aip/credit-decision/pkg/config"
	"github.com/mimir-aip/credit-decision/pkg/dataset"
	"github.com/mimir-aip/credit-decision/pkg/logging"
	"github.com/mimir-aip/credit-decision/pkg/metadatastore"
	"github.com/mimir-aip/credit-decision/pkg/mlmodel/training"
	"github.com/mimir-aip/credit-decision/pkg/models"
	"github.com/mimir-aip/credit-decision/pkg/pipeline"
	"github.com/mimir-aip/credit-decision/pkg/storage"
)

const scoring = "accuracy"

// Service trains, evaluates and registers loan decision models
type Service struct {
	store     metadatastore.MetadataStore
	artifacts *storage.ArtifactStore
	schema    config.FeatureSchema
	logger    *slog.Logger
}

// NewService creates a new ML model service
func NewService(store metadatastore.MetadataStore, artifacts *storage.ArtifactStore, schema config.FeatureSchema) *Service {
	return &Service{
		store:     store,
		artifacts: artifacts,
		schema:    schema,
		logger:    logging.New("mlmodel"),
	}
}

// Train runs one full training pass: load the labelled CSV, hold out a test
// split, grid-search every candidate on the training rows, refit each
// winner on all training rows, score it on the held-out rows, and store
// the artifact under the candidate's model type. It returns one registry
// record per candidate.
func (s *Service) Train(ctx context.Context, req *models.TrainingRequest) ([]*models.MLModel, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	candidates := req.Candidates
	if len(candidates) == 0 {
		candidates = models.DefaultCandidates()
	}

	x, y, err := s.loadLabelled(req.DataPath)
	if err != nil {
		return nil, err
	}
	trainIdx, testIdx, err := training.TrainTestSplit(x.Len(), req.TestSize, req.RandomSeed)
	if err != nil {
		return nil, fmt.Errorf("failed to split data: %w", err)
	}
	xTrain, yTrain := x.Take(trainIdx), pick(y, trainIdx)
	xTest, yTest := x.Take(testIdx), pick(y, testIdx)

	s.logger.Info("training started",
		"data", req.DataPath,
		"rows", x.Len(),
		"train_rows", len(trainIdx),
		"test_rows", len(testIdx),
		"candidates", len(candidates),
		"cv_folds", req.CVFolds)

	results := make([]*models.MLModel, 0, len(candidates))
	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		now := time.Now().UTC()
		record := &models.MLModel{
			ID:          uuid.New().String(),
			Name:        string(cand.Type),
			Description: fmt.Sprintf("%s searched over %s=%v", cand.Type, cand.Param, cand.Values),
			Type:        cand.Type,
			Status:      models.ModelStatusTraining,
			TrainingConfig: &models.TrainingConfig{
				TrainTestSplit: 1 - req.TestSize,
				RandomSeed:     req.RandomSeed,
				CVFolds:        req.CVFolds,
				Scoring:        scoring,
				DataPath:       req.DataPath,
				TrainRows:      len(trainIdx),
				TestRows:       len(testIdx),
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.store.SaveMLModel(record); err != nil {
			return results, fmt.Errorf("failed to register model: %w", err)
		}

		if err := s.trainCandidate(ctx, record, cand, req, xTrain, yTrain, xTest, yTest); err != nil {
			record.Status = models.ModelStatusFailed
			record.Error = err.Error()
			record.UpdatedAt = time.Now().UTC()
			if saveErr := s.store.SaveMLModel(record); saveErr != nil {
				s.logger.Error("failed to record training failure", "model", record.Name, "error", saveErr)
			}
			return results, fmt.Errorf("failed to train %s: %w", cand.Type, err)
		}
		results = append(results, record)
	}

	s.logger.Info("training finished", "models", len(results))
	return results, nil
}

func (s *Service) trainCandidate(ctx context.Context, record *models.MLModel, cand models.Candidate, req *models.TrainingRequest, xTrain *dataset.Frame, yTrain []float64, xTest *dataset.Frame, yTest []float64) error {
	start := time.Now()
	grid, err := GridSearch(ctx, s.schema, cand, xTrain, yTrain, req.CVFolds, req.RandomSeed)
	if err != nil {
		return err
	}
	s.logger.Info("grid search complete",
		"model", cand.Type,
		"best_params", grid.BestParams,
		"cv_accuracy", grid.BestScore,
		"failed_folds", grid.FailedFolds,
		"duration", time.Since(start))

	clf, err := training.NewClassifier(cand.Type, grid.BestParams, req.RandomSeed)
	if err != nil {
		return err
	}
	p, err := pipeline.New(s.schema, clf)
	if err != nil {
		return err
	}
	if err := p.Fit(xTrain, yTrain); err != nil {
		return err
	}

	metrics, err := s.score(p, xTest, yTest)
	if err != nil {
		return err
	}

	path, err := s.artifacts.Save(p, string(cand.Type))
	if err != nil {
		return err
	}

	trainedAt := time.Now().UTC()
	record.Status = models.ModelStatusTrained
	record.Hyperparameters = clf.Params()
	record.CVScore = grid.BestScore
	record.PerformanceMetrics = metrics
	record.ModelArtifactPath = path
	record.Features = slices.Clone(p.Features)
	record.TrainedAt = &trainedAt
	record.UpdatedAt = trainedAt
	if err := s.store.SaveMLModel(record); err != nil {
		return fmt.Errorf("failed to update model record: %w", err)
	}

	s.logger.Info("model trained",
		"model", record.Name,
		"version", record.Version,
		"accuracy", metrics.Accuracy,
		"precision", metrics.Precision,
		"recall", metrics.Recall,
		"f1", metrics.F1Score,
		"roc_auc", metrics.ROCAUC,
		"artifact", path)
	return nil
}

// Evaluate scores the artifact stored under key against a labelled CSV.
func (s *Service) Evaluate(ctx context.Context, key, path string) (*models.PerformanceMetrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.artifacts.Load(key, s.schema)
	if err != nil {
		return nil, err
	}
	x, y, err := s.loadLabelled(path)
	if err != nil {
		return nil, err
	}
	metrics, err := s.score(p, x, y)
	if err != nil {
		return nil, err
	}
	s.logger.Info("model evaluated",
		"model", key,
		"data", path,
		"rows", metrics.Support,
		"skipped", metrics.Skipped,
		"accuracy", metrics.Accuracy,
		"f1", metrics.F1Score,
		"roc_auc", metrics.ROCAUC)
	return metrics, nil
}

// ListModels returns every registry record, newest first.
func (s *Service) ListModels() ([]*models.MLModel, error) {
	return s.store.ListMLModels()
}

// LatestModel returns the newest registry record for a model name.
func (s *Service) LatestModel(name string) (*models.MLModel, error) {
	return s.store.GetLatestMLModel(name)
}

// score computes held-out metrics. Rows carrying a category the pipeline
// never saw are left out of the metrics and counted in Skipped.
func (s *Service) score(p *pipeline.Pipeline, x *dataset.Frame, y []float64) (*models.PerformanceMetrics, error) {
	keptY, pred, skipped, err := predictKnown(p, x, y)
	if err != nil {
		return nil, fmt.Errorf("failed to predict: %w", err)
	}
	if skipped > 0 {
		s.logger.Warn("rows with unseen categories left out of metrics",
			"skipped", skipped,
			"rows", x.Len())
	}
	metrics, err := training.Evaluate(keptY, pred)
	if err != nil {
		return nil, err
	}
	metrics.Skipped = skipped
	return metrics, nil
}

// loadLabelled reads a CSV holding the schema features and the 0/1 target.
func (s *Service) loadLabelled(path string) (*dataset.Frame, []float64, error) {
	raw, err := dataset.LoadCSV(path, slices.Concat(s.schema.Numeric, []string{s.schema.Target}))
	if err != nil {
		return nil, nil, err
	}
	y, err := raw.Numbers(s.schema.Target)
	if err != nil {
		return nil, nil, err
	}
	for i, label := range y {
		if label != 0 && label != 1 {
			return nil, nil, &dataset.SchemaError{Column: s.schema.Target, Reason: fmt.Sprintf("row %d is %g, expected 0 or 1", i, label)}
		}
	}
	x, err := raw.Select(s.schema.Features)
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}
