// Package pipeline chains the feature stages and a classifier into one
// fit/predict unit.
package pipeline

import (
	"errors"
	"fmt"
	"slices"

	pkgerrors "github.com/pkg/errors"

	"github.com/mimir-aip/credit-decision/pkg/config"
	"github.com/mimir-aip/credit-decision/pkg/dataset"
	"github.com/mimir-aip/credit-decision/pkg/features"
	"github.com/mimir-aip/credit-decision/pkg/mlmodel/training"
)

// ErrFeatureSet matches FeatureSetError.
var ErrFeatureSet = errors.New("feature set mismatch")

// FeatureSetError is returned when the transformed columns differ from the
// schema's model feature set.
type FeatureSetError struct {
	Missing    []string
	Unexpected []string
}

func (e *FeatureSetError) Error() string {
	return fmt.Sprintf("transformed features do not match schema: missing %v, unexpected %v", e.Missing, e.Unexpected)
}

func (e *FeatureSetError) Is(target error) bool { return target == ErrFeatureSet }

// Step is a named stage.
type Step struct {
	Name  string
	Stage features.Stage
}

// Pipeline is the fixed stage sequence followed by a classifier. After Fit
// it is read-only and may be shared by concurrent Predict calls.
type Pipeline struct {
	Schema     config.FeatureSchema
	Steps      []Step
	Classifier training.Classifier
	Features   []string // column order fed to the classifier
	Fitted     bool
}

// New validates schema and wires the stages in their fixed order.
func New(schema config.FeatureSchema, clf training.Classifier) (*Pipeline, error) {
	if clf == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid feature schema: %w", err)
	}
	deriver, err := features.NewDeriver(schema)
	if err != nil {
		return nil, err
	}

	stages := []features.Stage{
		features.NewMeanImputer(features.Config{Variables: schema.Numeric}),
		features.NewModeImputer(features.Config{Variables: schema.Categorical}),
		deriver,
		features.NewColumnDropper(features.Config{Variables: schema.Drop}),
		features.NewCategoricalEncoder(features.Config{Variables: schema.Encode}),
		features.NewLogScaler(features.Config{Variables: schema.LogColumns, AddConstant: schema.LogAddConstant}, schema.LogConstant),
		features.NewStandardScaler(features.Config{}),
	}
	steps := make([]Step, len(stages))
	for i, stage := range stages {
		steps[i] = Step{Name: stage.Name(), Stage: stage}
	}

	return &Pipeline{Schema: schema, Steps: steps, Classifier: clf}, nil
}

// StepNames lists the stage names in execution order, classifier last.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, len(p.Steps)+1)
	for _, s := range p.Steps {
		names = append(names, s.Name)
	}
	return append(names, "classifier")
}

// Fit learns every stage on the output of the stages before it, checks the
// resulting columns against the schema, then fits the classifier. Columns
// of f outside the schema's features, such as the target, are ignored. A
// failed Fit leaves the pipeline unfitted, even if an earlier Fit succeeded.
func (p *Pipeline) Fit(f *dataset.Frame, y []float64) error {
	p.Fitted = false
	p.Features = nil
	if f.Len() != len(y) {
		return fmt.Errorf("frame has %d rows but %d labels", f.Len(), len(y))
	}
	x, err := f.Select(p.Schema.Features)
	if err != nil {
		return err
	}

	for _, step := range p.Steps {
		if err := step.Stage.Fit(x, y); err != nil {
			return pkgerrors.Wrapf(err, "failed to fit step '%s'", step.Name)
		}
		if x, err = step.Stage.Apply(x); err != nil {
			return pkgerrors.Wrapf(err, "failed to apply step '%s'", step.Name)
		}
	}

	cols := x.Columns()
	if err := checkFeatureSet(cols, p.Schema.ModelFeatures()); err != nil {
		return err
	}
	X, err := x.Matrix()
	if err != nil {
		return err
	}
	if err := p.Classifier.Fit(X, y); err != nil {
		return pkgerrors.Wrap(err, "failed to fit classifier")
	}

	p.Features = cols
	p.Fitted = true
	return nil
}

// Transform replays the fitted stages on f.
func (p *Pipeline) Transform(f *dataset.Frame) (*dataset.Frame, error) {
	if !p.Fitted {
		return nil, &features.NotFittedError{Stage: "pipeline"}
	}
	x, err := f.Select(p.Schema.Features)
	if err != nil {
		return nil, err
	}
	for _, step := range p.Steps {
		if x, err = step.Stage.Apply(x); err != nil {
			return nil, pkgerrors.Wrapf(err, "failed to apply step '%s'", step.Name)
		}
	}
	return x.Select(p.Features)
}

// Predict transforms f and returns the raw 0/1 classes in row order.
func (p *Pipeline) Predict(f *dataset.Frame) ([]int, error) {
	x, err := p.Transform(f)
	if err != nil {
		return nil, err
	}
	X, err := x.Matrix()
	if err != nil {
		return nil, err
	}
	raw, err := p.Classifier.Predict(X)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to predict")
	}
	classes := make([]int, len(raw))
	for i, v := range raw {
		classes[i] = int(v)
	}
	return classes, nil
}

// PredictRows scores feature rows. Each row must carry exactly the schema's
// features.
func (p *Pipeline) PredictRows(rows []dataset.Row) ([]int, error) {
	f, err := dataset.FromRows(rows, p.Schema.Features)
	if err != nil {
		return nil, err
	}
	return p.Predict(f)
}

func checkFeatureSet(got, want []string) error {
	var missing, unexpected []string
	for _, col := range want {
		if !slices.Contains(got, col) {
			missing = append(missing, col)
		}
	}
	for _, col := range got {
		if !slices.Contains(want, col) {
			unexpected = append(unexpected, col)
		}
	}
	if len(missing) > 0 || len(unexpected) > 0 {
		return &FeatureSetError{Missing: missing, Unexpected: unexpected}
	}
	return nil
}
