package mlmodel

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimir-aip/credit-decision/pkg/config"
	"github.com/mimir-aip/credit-decision/pkg/dataset"
	"github.com/mimir-aip/credit-decision/pkg/features"
	"github.com/mimir-aip/credit-decision/pkg/mlmodel/training"
	"github.com/mimir-aip/credit-decision/pkg/models"
	"github.com/mimir-aip/credit-decision/pkg/pipeline"
	"github.com/mimir-aip/credit-decision/pkg/synth"
)

func TestGridSearchPicksBestValue(t *testing.T) {
	schema := config.DefaultSchema()
	f, y, err := synth.Frame(synth.Generate(300, 4), schema)
	require.NoError(t, err)

	cand := models.Candidate{Type: models.ModelTypeDecisionTree, Param: "max_depth", Values: []float64{1, 4, 8}}
	res, err := GridSearch(context.Background(), schema, cand, f, y, 3, 42)
	require.NoError(t, err)
	require.Len(t, res.MeanScores, 3)

	best := 0
	for i, s := range res.MeanScores {
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
		if s > res.MeanScores[best] {
			best = i
		}
	}
	assert.Equal(t, cand.Values[best], res.BestParams["max_depth"])
	assert.Equal(t, res.MeanScores[best], res.BestScore)
}

func TestGridSearchDeterministic(t *testing.T) {
	schema := config.DefaultSchema()
	f, y, err := synth.Frame(synth.Generate(200, 6), schema)
	require.NoError(t, err)
	cand := models.Candidate{Type: models.ModelTypeRandomForest, Param: "n_estimators", Values: []float64{5, 10}}

	a, err := GridSearch(context.Background(), schema, cand, f, y, 3, 1)
	require.NoError(t, err)
	b, err := GridSearch(context.Background(), schema, cand, f, y, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, a.MeanScores, b.MeanScores)
	assert.Equal(t, a.BestParams, b.BestParams)
}

func TestGridSearchTiesKeepFirstValue(t *testing.T) {
	schema := config.DefaultSchema()
	f, y, err := synth.Frame(synth.Generate(150, 2), schema)
	require.NoError(t, err)

	// identical values score identically
	cand := models.Candidate{Type: models.ModelTypeDecisionTree, Param: "max_depth", Values: []float64{3, 3}}
	res, err := GridSearch(context.Background(), schema, cand, f, y, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, res.MeanScores[0], res.MeanScores[1])
	assert.Equal(t, 3.0, res.BestParams["max_depth"])
}

func TestGridSearchErrors(t *testing.T) {
	schema := config.DefaultSchema()
	f, y, err := synth.Frame(synth.Generate(20, 2), schema)
	require.NoError(t, err)

	_, err = GridSearch(context.Background(), schema, models.Candidate{Type: "svm", Param: "C", Values: []float64{1}}, f, y, 3, 1)
	assert.Error(t, err)

	_, err = GridSearch(context.Background(), schema, models.DefaultCandidates()[0], f, y[:10], 3, 1)
	assert.Error(t, err)

	_, err = GridSearch(context.Background(), schema, models.DefaultCandidates()[0], f, y, 50, 1)
	assert.Error(t, err)
}

func TestGridSearchSkipsFoldWithUnseenCategory(t *testing.T) {
	schema := config.DefaultSchema()
	samples := synth.Generate(300, 4)
	samples[7].Application.Purpose = "boat"
	f, y, err := synth.Frame(samples, schema)
	require.NoError(t, err)

	cand := models.Candidate{Type: models.ModelTypeDecisionTree, Param: "max_depth", Values: []float64{3, 5}}
	res, err := GridSearch(context.Background(), schema, cand, f, y, 3, 42)
	require.NoError(t, err)
	// the row sits in exactly one test fold, once per grid value
	assert.Equal(t, len(cand.Values), res.FailedFolds)
	for _, s := range res.MeanScores {
		assert.Greater(t, s, 0.0)
	}
}

func TestGridSearchFailsWhenEveryFoldFails(t *testing.T) {
	schema := config.DefaultSchema()
	samples := synth.Generate(150, 3)
	y := make([]float64, len(samples))
	for i, s := range samples {
		y[i] = s.Label()
	}
	folds, err := training.StratifiedKFold(y, 3)
	require.NoError(t, err)
	for k, fold := range folds {
		samples[fold.Test[0]].Application.Purpose = fmt.Sprintf("boat-%d", k)
	}
	f, y, err := synth.Frame(samples, schema)
	require.NoError(t, err)

	cand := models.Candidate{Type: models.ModelTypeDecisionTree, Param: "max_depth", Values: []float64{3}}
	_, err = GridSearch(context.Background(), schema, cand, f, y, 3, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, features.ErrUnseenCategory))
}

func TestPredictKnownDropsUnseenRows(t *testing.T) {
	schema := config.DefaultSchema()
	f, y, err := synth.Frame(synth.Generate(200, 8), schema)
	require.NoError(t, err)
	clf, err := training.NewClassifier(models.ModelTypeDecisionTree, map[string]float64{"max_depth": 4}, 1)
	require.NoError(t, err)
	p, err := pipeline.New(schema, clf)
	require.NoError(t, err)
	require.NoError(t, p.Fit(f, y))

	apps := []models.LoanApplication{synth.Favorable(), synth.Adversarial(), synth.Favorable()}
	apps[1].Purpose = "boat"
	rows := make([]dataset.Row, len(apps))
	for i, a := range apps {
		rows[i] = a.ToRow()
	}
	x, err := dataset.FromRows(rows, schema.Features)
	require.NoError(t, err)

	keptY, pred, skipped, err := predictKnown(p, x, []float64{0, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, []float64{0, 0}, keptY)
	assert.Len(t, pred, 2)

	keptY, _, skipped, err = predictKnown(p, x.Take([]int{0, 2}), []float64{0, 0})
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Len(t, keptY, 2)
}
