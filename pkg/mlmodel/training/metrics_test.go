package training

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	yTrue := []float64{1, 1, 1, 0, 0, 0, 0, 0}
	yPred := []float64{1, 1, 0, 1, 0, 0, 0, 0}

	m, err := Evaluate(yTrue, yPred)
	require.NoError(t, err)

	assert.InDelta(t, 6.0/8.0, m.Accuracy, 1e-12)
	assert.InDelta(t, 2.0/3.0, m.Precision, 1e-12)
	assert.InDelta(t, 2.0/3.0, m.Recall, 1e-12)
	assert.InDelta(t, 2.0/3.0, m.F1Score, 1e-12)
	// hard-label AUC is the mean of TPR and TNR
	assert.InDelta(t, (2.0/3.0+4.0/5.0)/2, m.ROCAUC, 1e-12)
	assert.Equal(t, [][]int{{4, 1}, {1, 2}}, m.ConfusionMatrix)
	assert.Equal(t, 8, m.Support)
}

func TestEvaluatePerfect(t *testing.T) {
	y := []float64{0, 1, 0, 1}
	m, err := Evaluate(y, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.Accuracy)
	assert.Equal(t, 1.0, m.F1Score)
	assert.InDelta(t, 1.0, m.ROCAUC, 1e-12)
}

func TestEvaluateDegenerate(t *testing.T) {
	m, err := Evaluate([]float64{0, 0, 0}, []float64{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.Accuracy)
	assert.Equal(t, 0.0, m.Precision)
	assert.Equal(t, 0.0, m.F1Score)
	assert.Equal(t, 0.0, m.ROCAUC)

	_, err = Evaluate([]float64{1}, nil)
	assert.Error(t, err)
	_, err = Evaluate(nil, nil)
	assert.Error(t, err)
}

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 0.5, Accuracy([]float64{0, 1}, []float64{1, 1}))
	assert.Equal(t, 0.0, Accuracy(nil, nil))
}
