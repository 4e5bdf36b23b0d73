package mlmodel

import (
	"fmt"

	"github.com/mimir-aip/credit-decision/pkg/config"
	"github.com/mimir-aip/credit-decision/pkg/dataset"
	"github.com/mimir-aip/credit-decision/pkg/models"
	"github.com/mimir-aip/credit-decision/pkg/pipeline"
	"github.com/mimir-aip/credit-decision/pkg/storage"
)

// Predictor turns loan applications into decision labels with one fitted
// pipeline. It is safe for concurrent use.
type Predictor struct {
	key      string
	pipeline *pipeline.Pipeline
}

// NewPredictor wraps an already fitted pipeline.
func NewPredictor(p *pipeline.Pipeline) (*Predictor, error) {
	if p == nil || !p.Fitted {
		return nil, fmt.Errorf("predictor needs a fitted pipeline")
	}
	return &Predictor{pipeline: p}, nil
}

// LoadPredictor reads the artifact stored under key. The artifact must
// have been trained under schema.
func LoadPredictor(store *storage.ArtifactStore, key string, schema config.FeatureSchema) (*Predictor, error) {
	p, err := store.Load(key, schema)
	if err != nil {
		return nil, err
	}
	return &Predictor{key: key, pipeline: p}, nil
}

// Key is the artifact key the predictor was loaded from, empty when it
// wraps an in-memory pipeline.
func (p *Predictor) Key() string { return p.key }

// Schema is the feature schema the pipeline was trained under.
func (p *Predictor) Schema() config.FeatureSchema { return p.pipeline.Schema }

// ModelType reports the classifier family behind the pipeline.
func (p *Predictor) ModelType() models.ModelType { return p.pipeline.Classifier.Type() }

// Predict labels each application, in input order.
func (p *Predictor) Predict(apps []models.LoanApplication) (*models.PredictionResponse, error) {
	rows := make([]dataset.Row, len(apps))
	for i, app := range apps {
		rows[i] = app.ToRow()
	}
	return p.PredictRows(rows)
}

// PredictMaps labels decoded JSON objects. Each object must carry exactly
// the schema's feature fields.
func (p *Predictor) PredictMaps(items []map[string]any) (*models.PredictionResponse, error) {
	rows := make([]dataset.Row, len(items))
	for i, item := range items {
		row, err := models.FeatureRow(item, p.pipeline.Schema)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rows[i] = row
	}
	return p.PredictRows(rows)
}

// PredictRows labels feature rows, in input order.
func (p *Predictor) PredictRows(rows []dataset.Row) (*models.PredictionResponse, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows to predict")
	}
	classes, err := p.pipeline.PredictRows(rows)
	if err != nil {
		return nil, err
	}
	labels := make([]string, len(classes))
	for i, c := range classes {
		label, err := models.LabelFor(c)
		if err != nil {
			return nil, err
		}
		labels[i] = label
	}
	return &models.PredictionResponse{Predictions: labels}, nil
}
