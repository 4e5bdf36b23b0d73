package mlmodel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimir-aip/credit-decision/pkg/config"
	"github.com/mimir-aip/credit-decision/pkg/dataset"
	"github.com/mimir-aip/credit-decision/pkg/metadatastore"
	"github.com/mimir-aip/credit-decision/pkg/mlmodel/training"
	"github.com/mimir-aip/credit-decision/pkg/models"
	"github.com/mimir-aip/credit-decision/pkg/storage"
	"github.com/mimir-aip/credit-decision/pkg/synth"
)

// smallGrid keeps the tests fast while still exercising every family.
var smallGrid = []models.Candidate{
	{Type: models.ModelTypeLogisticRegression, Param: "C", Values: []float64{1, 10}},
	{Type: models.ModelTypeRandomForest, Param: "n_estimators", Values: []float64{15}},
	{Type: models.ModelTypeDecisionTree, Param: "max_depth", Values: []float64{3, 6}},
}

type fixture struct {
	dir       string
	store     *metadatastore.SQLiteStore
	artifacts *storage.ArtifactStore
	service   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := metadatastore.NewSQLiteStore(filepath.Join(dir, "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	artifacts, err := storage.NewArtifactStore(filepath.Join(dir, "models"))
	require.NoError(t, err)
	return &fixture{
		dir:       dir,
		store:     store,
		artifacts: artifacts,
		service:   NewService(store, artifacts, config.DefaultSchema()),
	}
}

func (f *fixture) writeCSV(t *testing.T, name string, n int, seed int64, missing float64) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, synth.WriteCSV(file, synth.Generate(n, seed), config.DefaultSchema(), missing, seed))
	return path
}

func request(path string) *models.TrainingRequest {
	return &models.TrainingRequest{
		DataPath:   path,
		Candidates: smallGrid,
		CVFolds:    3,
		TestSize:   0.2,
		RandomSeed: 42,
	}
}

func TestTrainRegistersEveryCandidate(t *testing.T) {
	f := newFixture(t)
	path := f.writeCSV(t, "train.csv", 600, 5, 0.02)

	trained, err := f.service.Train(context.Background(), request(path))
	require.NoError(t, err)
	require.Len(t, trained, len(smallGrid))

	for i, m := range trained {
		assert.Equal(t, smallGrid[i].Type, m.Type)
		assert.Equal(t, models.ModelStatusTrained, m.Status)
		assert.Equal(t, 1, m.Version)
		assert.Contains(t, smallGrid[i].Values, m.Hyperparameters[smallGrid[i].Param])
		require.NotNil(t, m.PerformanceMetrics)
		assert.Greater(t, m.PerformanceMetrics.Accuracy, 0.7, m.Name)
		assert.Equal(t, 120, m.PerformanceMetrics.Support)
		assert.Equal(t, 480, m.TrainingConfig.TrainRows)
		assert.True(t, f.artifacts.Exists(string(m.Type)))
		assert.NotContains(t, m.Features, "income")

		stored, err := f.store.GetLatestMLModel(m.Name)
		require.NoError(t, err)
		assert.Equal(t, m.ID, stored.ID)
	}

	// retraining bumps the registry version
	again, err := f.service.Train(context.Background(), request(path))
	require.NoError(t, err)
	assert.Equal(t, 2, again[0].Version)
}

func TestTrainSkipsRowsWithUnseenCategories(t *testing.T) {
	f := newFixture(t)
	samples := synth.Generate(600, 5)
	trainIdx, testIdx, err := training.TrainTestSplit(len(samples), 0.2, 42)
	require.NoError(t, err)
	// one training row lands in a single CV test fold; two held-out rows
	// carry a purpose no training row has
	samples[trainIdx[0]].Application.Purpose = "boat"
	samples[testIdx[0]].Application.Purpose = "yacht"
	samples[testIdx[1]].Application.Purpose = "yacht"

	path := filepath.Join(f.dir, "boat.csv")
	file, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, synth.WriteCSV(file, samples, config.DefaultSchema(), 0, 5))
	require.NoError(t, file.Close())

	req := request(path)
	req.Candidates = []models.Candidate{{Type: models.ModelTypeDecisionTree, Param: "max_depth", Values: []float64{4}}}
	trained, err := f.service.Train(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, trained, 1)

	m := trained[0]
	assert.Equal(t, models.ModelStatusTrained, m.Status)
	assert.Greater(t, m.CVScore, 0.0)
	require.NotNil(t, m.PerformanceMetrics)
	assert.Equal(t, 2, m.PerformanceMetrics.Skipped)
	assert.Equal(t, 118, m.PerformanceMetrics.Support)
}

func TestTrainedModelsSeparateExtremes(t *testing.T) {
	f := newFixture(t)
	path := f.writeCSV(t, "train.csv", 800, 21, 0)
	_, err := f.service.Train(context.Background(), request(path))
	require.NoError(t, err)

	for _, mt := range []models.ModelType{models.ModelTypeRandomForest, models.ModelTypeLogisticRegression} {
		t.Run(string(mt), func(t *testing.T) {
			predictor, err := LoadPredictor(f.artifacts, string(mt), config.DefaultSchema())
			require.NoError(t, err)
			assert.Equal(t, mt, predictor.ModelType())

			resp, err := predictor.Predict([]models.LoanApplication{synth.Favorable(), synth.Adversarial()})
			require.NoError(t, err)
			assert.Equal(t, []string{models.LabelApproved, models.LabelRejected}, resp.Predictions)
		})
	}
}

func TestEvaluateStoredModel(t *testing.T) {
	f := newFixture(t)
	train := f.writeCSV(t, "train.csv", 500, 8, 0)
	test := f.writeCSV(t, "test.csv", 200, 9, 0)
	req := request(train)
	req.Candidates = smallGrid[:1]
	_, err := f.service.Train(context.Background(), req)
	require.NoError(t, err)

	metrics, err := f.service.Evaluate(context.Background(), string(models.ModelTypeLogisticRegression), test)
	require.NoError(t, err)
	assert.Equal(t, 200, metrics.Support)
	assert.Greater(t, metrics.Accuracy, 0.75)
	assert.GreaterOrEqual(t, metrics.ROCAUC, 0.5)

	_, err = f.service.Evaluate(context.Background(), "missing", test)
	assert.ErrorIs(t, err, storage.ErrArtifactNotFound)
}

func TestTrainRejectsBadTarget(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.dir, "bad.csv")
	var rows string
	for i, col := range config.DefaultSchema().Features {
		if i > 0 {
			rows += ","
		}
		rows += col
	}
	rows += ",loan_status\n"
	for i := range config.DefaultSchema().Features {
		if i > 0 {
			rows += ","
		}
		rows += "1"
	}
	rows += ",2\n"
	require.NoError(t, os.WriteFile(path, []byte(rows), 0644))

	_, err := f.service.Train(context.Background(), request(path))
	assert.ErrorIs(t, err, dataset.ErrSchema)
}

func TestTrainValidatesRequest(t *testing.T) {
	f := newFixture(t)
	req := request("")
	_, err := f.service.Train(context.Background(), req)
	assert.Error(t, err)

	req = request("x.csv")
	req.CVFolds = 1
	_, err = f.service.Train(context.Background(), req)
	assert.Error(t, err)
}

func TestTrainHonoursCancelledContext(t *testing.T) {
	f := newFixture(t)
	path := f.writeCSV(t, "train.csv", 200, 2, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	trained, err := f.service.Train(ctx, request(path))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, trained)
}
