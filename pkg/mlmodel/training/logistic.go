package training

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/mimir-aip/credit-decision/pkg/models"
)

// LogisticRegression is an L2-regularised logistic model fitted by batch
// gradient descent. C is the inverse regularisation strength; the intercept
// is not penalised.
type LogisticRegression struct {
	C            float64
	MaxIter      int
	LearningRate float64
	Tolerance    float64
	Weights      []float64
	Intercept    float64
}

// NewLogisticRegression reads C from params.
func NewLogisticRegression(params map[string]float64) (*LogisticRegression, error) {
	if err := checkParams(models.ModelTypeLogisticRegression, params); err != nil {
		return nil, err
	}
	c := 1.0
	if v, ok := params["C"]; ok {
		c = v
	}
	if c <= 0 {
		return nil, fmt.Errorf("C must be positive, got %g", c)
	}
	return &LogisticRegression{C: c, MaxIter: 1000, LearningRate: 0.1, Tolerance: 1e-6}, nil
}

func (l *LogisticRegression) Type() models.ModelType { return models.ModelTypeLogisticRegression }

func (l *LogisticRegression) Params() map[string]float64 {
	return map[string]float64{"C": l.C}
}

func (l *LogisticRegression) Fit(X [][]float64, y []float64) error {
	if err := checkTrainingData(X, y); err != nil {
		return err
	}
	n, d := float64(len(X)), len(X[0])
	w := make([]float64, d)
	b := 0.0
	grad := make([]float64, d)

	for iter := 0; iter < l.MaxIter; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		gb := 0.0
		for i, row := range X {
			residual := sigmoid(floats.Dot(w, row)+b) - y[i]
			floats.AddScaled(grad, residual, row)
			gb += residual
		}
		floats.Scale(1/n, grad)
		floats.AddScaled(grad, 1/(l.C*n), w)
		gb /= n

		floats.AddScaled(w, -l.LearningRate, grad)
		b -= l.LearningRate * gb

		if l.LearningRate*math.Max(floats.Norm(grad, math.Inf(1)), math.Abs(gb)) < l.Tolerance {
			break
		}
	}

	l.Weights = w
	l.Intercept = b
	return nil
}

func (l *LogisticRegression) Predict(X [][]float64) ([]float64, error) {
	if l.Weights == nil {
		return nil, fmt.Errorf("model not trained")
	}
	if err := checkWidth(X, len(l.Weights)); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i, row := range X {
		if sigmoid(floats.Dot(l.Weights, row)+l.Intercept) > 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
