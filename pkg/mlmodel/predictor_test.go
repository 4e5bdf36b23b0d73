package mlmodel

import (
	"encoding/json"
	"strings"
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

func fittedPredictor(t *testing.T) *Predictor {
	t.Helper()
	schema := config.DefaultSchema()
	clf, err := training.NewClassifier(models.ModelTypeLogisticRegression, map[string]float64{"C": 10}, 42)
	require.NoError(t, err)
	p, err := pipeline.New(schema, clf)
	require.NoError(t, err)
	f, y, err := synth.Frame(synth.Generate(600, 13), schema)
	require.NoError(t, err)
	require.NoError(t, p.Fit(f, y))

	predictor, err := NewPredictor(p)
	require.NoError(t, err)
	return predictor
}

func TestNewPredictorRequiresFittedPipeline(t *testing.T) {
	_, err := NewPredictor(nil)
	assert.Error(t, err)

	clf, err := training.NewClassifier(models.ModelTypeDecisionTree, nil, 1)
	require.NoError(t, err)
	p, err := pipeline.New(config.DefaultSchema(), clf)
	require.NoError(t, err)
	_, err = NewPredictor(p)
	assert.Error(t, err)
}

func TestPredictMapsLabels(t *testing.T) {
	predictor := fittedPredictor(t)

	var items []map[string]any
	for _, app := range []models.LoanApplication{synth.Adversarial(), synth.Favorable(), synth.Adversarial()} {
		raw, err := json.Marshal(app)
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		items = append(items, m)
	}

	resp, err := predictor.PredictMaps(items)
	require.NoError(t, err)
	assert.Equal(t, []string{models.LabelRejected, models.LabelApproved, models.LabelRejected}, resp.Predictions)
}

func TestPredictMapsAcceptsNulls(t *testing.T) {
	predictor := fittedPredictor(t)
	raw, err := json.Marshal(synth.Favorable())
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	m["cus_age"] = nil
	m["job_sector"] = nil

	resp, err := predictor.PredictMaps([]map[string]any{m})
	require.NoError(t, err)
	assert.Len(t, resp.Predictions, 1)
}

func TestPredictMapsSchemaErrors(t *testing.T) {
	predictor := fittedPredictor(t)
	raw, err := json.Marshal(synth.Favorable())
	require.NoError(t, err)

	var extra map[string]any
	require.NoError(t, json.Unmarshal(raw, &extra))
	extra["loan_status"] = 1
	_, err = predictor.PredictMaps([]map[string]any{extra})
	assert.ErrorIs(t, err, dataset.ErrSchema)

	var short map[string]any
	require.NoError(t, json.Unmarshal(raw, &short))
	delete(short, "income")
	_, err = predictor.PredictMaps([]map[string]any{short})
	assert.ErrorIs(t, err, dataset.ErrSchema)
}

func TestPredictUnseenCategory(t *testing.T) {
	predictor := fittedPredictor(t)
	app := synth.Favorable()
	app.Purpose = "yacht"

	_, err := predictor.Predict([]models.LoanApplication{app})
	require.Error(t, err)
	assert.ErrorIs(t, err, features.ErrUnseenCategory)
	assert.True(t, strings.Contains(err.Error(), "yacht"))
}

func TestPredictEmpty(t *testing.T) {
	predictor := fittedPredictor(t)
	_, err := predictor.Predict(nil)
	assert.Error(t, err)
}
