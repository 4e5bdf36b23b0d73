package training

import (
	"fmt"
	"math"
	"sort"

	"github.com/sjwhitworth/golearn/evaluation"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/mimir-aip/credit-decision/pkg/models"
)

const positiveClass = "1"

// Evaluate scores hard 0/1 predictions against the truth. Precision,
// recall and F1 are for class 1 (Rejected). Undefined ratios are reported
// as 0.
func Evaluate(yTrue, yPred []float64) (*models.PerformanceMetrics, error) {
	if len(yTrue) != len(yPred) {
		return nil, fmt.Errorf("got %d labels but %d predictions", len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return nil, fmt.Errorf("nothing to evaluate")
	}

	cm := confusionMatrix(yTrue, yPred)
	return &models.PerformanceMetrics{
		Accuracy:  finite(evaluation.GetAccuracy(cm)),
		Precision: finite(evaluation.GetPrecision(positiveClass, cm)),
		Recall:    finite(evaluation.GetRecall(positiveClass, cm)),
		F1Score:   finite(evaluation.GetF1Score(positiveClass, cm)),
		ROCAUC:    rocAUC(yTrue, yPred),
		ConfusionMatrix: [][]int{
			{cm["0"]["0"], cm["0"]["1"]},
			{cm["1"]["0"], cm["1"]["1"]},
		},
		Support: len(yTrue),
	}, nil
}

// Accuracy is the share of matching labels.
func Accuracy(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return 0
	}
	return finite(evaluation.GetAccuracy(confusionMatrix(yTrue, yPred)))
}

// confusionMatrix builds golearn's reference -> predicted count map with
// both classes always present.
func confusionMatrix(yTrue, yPred []float64) evaluation.ConfusionMatrix {
	cm := evaluation.ConfusionMatrix{
		"0": {"0": 0, "1": 0},
		"1": {"0": 0, "1": 0},
	}
	for i := range yTrue {
		cm[classKey(yTrue[i])][classKey(yPred[i])]++
	}
	return cm
}

func classKey(v float64) string {
	if v == 1 {
		return "1"
	}
	return "0"
}

// rocAUC integrates the ROC curve of the scores against the labels. With a
// single class present the curve is undefined and 0 is returned.
func rocAUC(yTrue, scores []float64) float64 {
	type pair struct {
		score float64
		pos   bool
	}
	pairs := make([]pair, len(scores))
	npos := 0
	for i := range scores {
		pairs[i] = pair{score: scores[i], pos: yTrue[i] == 1}
		if pairs[i].pos {
			npos++
		}
	}
	if npos == 0 || npos == len(pairs) {
		return 0
	}
	sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].score < pairs[b].score })

	y := make([]float64, len(pairs))
	classes := make([]bool, len(pairs))
	for i, p := range pairs {
		y[i] = p.score
		classes[i] = p.pos
	}
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return finite(integrate.Trapezoidal(fpr, tpr))
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
