package models

import (
	"fmt"
	"time"
)

// ModelType represents the type of ML model
type ModelType string

const (
	ModelTypeLogisticRegression ModelType = "logistic_regression"
	ModelTypeRandomForest       ModelType = "random_forest"
	ModelTypeDecisionTree       ModelType = "decision_tree"
)

// ModelTypes lists every supported classifier family.
func ModelTypes() []ModelType {
	return []ModelType{ModelTypeLogisticRegression, ModelTypeRandomForest, ModelTypeDecisionTree}
}

// Valid reports whether t names a supported classifier.
func (t ModelType) Valid() bool {
	for _, known := range ModelTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Params lists the hyperparameters the classifier family accepts.
func (t ModelType) Params() []string {
	switch t {
	case ModelTypeLogisticRegression:
		return []string{"C"}
	case ModelTypeRandomForest:
		return []string{"n_estimators", "max_depth"}
	case ModelTypeDecisionTree:
		return []string{"max_depth"}
	}
	return nil
}

// AcceptsParam reports whether name is a hyperparameter of t.
func (t ModelType) AcceptsParam(name string) bool {
	for _, p := range t.Params() {
		if p == name {
			return true
		}
	}
	return false
}

// ModelStatus represents the current status of an ML model
type ModelStatus string

const (
	ModelStatusTraining ModelStatus = "training" // Grid search in progress
	ModelStatusTrained  ModelStatus = "trained"  // Artifact written and evaluated
	ModelStatusFailed   ModelStatus = "failed"   // Training aborted
)

// MLModel is the registry record of one trained artifact.
type MLModel struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	Description        string              `json:"description,omitempty"`
	Type               ModelType           `json:"type"`
	Status             ModelStatus         `json:"status"`
	Version            int                 `json:"version"`
	Hyperparameters    map[string]float64  `json:"hyperparameters,omitempty"`
	CVScore            float64             `json:"cv_score"`
	TrainingConfig     *TrainingConfig     `json:"training_config,omitempty"`
	PerformanceMetrics *PerformanceMetrics `json:"performance_metrics,omitempty"`
	ModelArtifactPath  string              `json:"model_artifact_path,omitempty"`
	Features           []string            `json:"features,omitempty"`
	Error              string              `json:"error,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	TrainedAt          *time.Time          `json:"trained_at,omitempty"`
}

// TrainingConfig holds configuration for model training
type TrainingConfig struct {
	TrainTestSplit float64 `json:"train_test_split"` // fraction used for training, e.g. 0.8
	RandomSeed     int64   `json:"random_seed"`
	CVFolds        int     `json:"cv_folds"`
	Scoring        string  `json:"scoring"`
	DataPath       string  `json:"data_path"`
	TrainRows      int     `json:"train_rows"`
	TestRows       int     `json:"test_rows"`
}

// PerformanceMetrics holds held-out classification metrics
type PerformanceMetrics struct {
	Accuracy        float64 `json:"accuracy"`
	Precision       float64 `json:"precision"`
	Recall          float64 `json:"recall"`
	F1Score         float64 `json:"f1_score"`
	ROCAUC          float64 `json:"roc_auc"`
	ConfusionMatrix [][]int `json:"confusion_matrix,omitempty"` // [actual][predicted], class 0 first
	Support         int     `json:"support"`
	Skipped         int     `json:"skipped,omitempty"` // rows left out for unseen categories
}

// Candidate is one classifier family and the grid of values searched for
// its single hyperparameter.
type Candidate struct {
	Type   ModelType `json:"type" yaml:"type"`
	Param  string    `json:"param" yaml:"param"`
	Values []float64 `json:"values" yaml:"values"`
}

// Validate checks if the Candidate is valid
func (c Candidate) Validate() error {
	if !c.Type.Valid() {
		return fmt.Errorf("unknown model type: %s", c.Type)
	}
	if c.Param == "" {
		return fmt.Errorf("%s: param is required", c.Type)
	}
	if !c.Type.AcceptsParam(c.Param) {
		return fmt.Errorf("%s: unknown param %q, expected one of %v", c.Type, c.Param, c.Type.Params())
	}
	if len(c.Values) == 0 {
		return fmt.Errorf("%s: at least one %s value is required", c.Type, c.Param)
	}
	return nil
}

// DefaultCandidates is the grid searched when a training request names none.
func DefaultCandidates() []Candidate {
	return []Candidate{
		{Type: ModelTypeLogisticRegression, Param: "C", Values: []float64{0.1, 1, 10}},
		{Type: ModelTypeRandomForest, Param: "n_estimators", Values: []float64{10, 100, 200}},
		{Type: ModelTypeDecisionTree, Param: "max_depth", Values: []float64{3, 5, 7}},
	}
}

// TrainingRequest describes one offline training run.
type TrainingRequest struct {
	DataPath   string      `json:"data_path"`
	Candidates []Candidate `json:"candidates,omitempty"`
	CVFolds    int         `json:"cv_folds"`
	TestSize   float64     `json:"test_size"`
	RandomSeed int64       `json:"random_seed"`
}

// Validate checks if the TrainingRequest is valid
func (r *TrainingRequest) Validate() error {
	if r.DataPath == "" {
		return fmt.Errorf("data_path is required")
	}
	if r.CVFolds < 2 {
		return fmt.Errorf("cv_folds must be at least 2")
	}
	if r.TestSize <= 0 || r.TestSize >= 1 {
		return fmt.Errorf("test_size must be between 0 and 1")
	}
	for _, c := range r.Candidates {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}
