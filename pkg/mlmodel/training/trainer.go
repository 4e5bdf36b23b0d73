package training

import (
	"encoding/gob"
	"fmt"

	"github.com/mimir-aip/credit-decision/pkg/models"
)

// Classifier is a binary classifier over dense feature rows. Labels are 0
// and 1. A fitted classifier must be safe for concurrent Predict calls and
// keep all learned state in exported fields so it survives gob encoding.
type Classifier interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)
	Type() models.ModelType
	Params() map[string]float64
}

// builder constructs an unfitted classifier from hyperparameters.
type builder func(params map[string]float64, seed int64) (Classifier, error)

// TrainerFactory creates classifiers for different model types
type TrainerFactory struct {
	builders map[models.ModelType]builder
}

// NewTrainerFactory creates a new trainer factory
func NewTrainerFactory() *TrainerFactory {
	factory := &TrainerFactory{
		builders: make(map[models.ModelType]builder),
	}

	factory.builders[models.ModelTypeLogisticRegression] = func(p map[string]float64, _ int64) (Classifier, error) {
		return NewLogisticRegression(p)
	}
	factory.builders[models.ModelTypeDecisionTree] = func(p map[string]float64, seed int64) (Classifier, error) {
		return NewDecisionTree(p, seed)
	}
	factory.builders[models.ModelTypeRandomForest] = func(p map[string]float64, seed int64) (Classifier, error) {
		return NewRandomForest(p, seed)
	}

	return factory
}

// New returns an unfitted classifier of the given type
func (f *TrainerFactory) New(modelType models.ModelType, params map[string]float64, seed int64) (Classifier, error) {
	build, ok := f.builders[modelType]
	if !ok {
		return nil, fmt.Errorf("no trainer available for model type: %s", modelType)
	}
	return build(params, seed)
}

// NewClassifier is shorthand for NewTrainerFactory().New.
func NewClassifier(modelType models.ModelType, params map[string]float64, seed int64) (Classifier, error) {
	return NewTrainerFactory().New(modelType, params, seed)
}

func init() {
	gob.Register(&LogisticRegression{})
	gob.Register(&DecisionTree{})
	gob.Register(&RandomForest{})
}

func checkTrainingData(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("no training data provided")
	}
	if len(X) != len(y) {
		return fmt.Errorf("got %d rows but %d labels", len(X), len(y))
	}
	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("row %d has %d features, expected %d", i, len(row), width)
		}
	}
	for i, label := range y {
		if label != 0 && label != 1 {
			return fmt.Errorf("label %g at row %d is not 0 or 1", label, i)
		}
	}
	return nil
}

func checkWidth(X [][]float64, width int) error {
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("row %d has %d features, model expects %d", i, len(row), width)
		}
	}
	return nil
}

// checkParams rejects keys the classifier family does not read.
func checkParams(t models.ModelType, params map[string]float64) error {
	for key := range params {
		if !t.AcceptsParam(key) {
			return fmt.Errorf("%s: unknown param %q, expected one of %v", t, key, t.Params())
		}
	}
	return nil
}

func intParam(params map[string]float64, key string, fallback int) (int, error) {
	v, ok := params[key]
	if !ok {
		return fallback, nil
	}
	if v != float64(int(v)) || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %g", key, v)
	}
	return int(v), nil
}
