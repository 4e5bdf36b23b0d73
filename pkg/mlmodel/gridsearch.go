package mlmodel

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/mimir-aip/credit-decision/pkg/config"
	"github.com/mimir-aip/credit-decision/pkg/dataset"
	"github.com/mimir-aip/credit-decision/pkg/features"
	"github.com/mimir-aip/credit-decision/pkg/logging"
	"github.com/mimir-aip/credit-decision/pkg/mlmodel/training"
	"github.com/mimir-aip/credit-decision/pkg/models"
	"github.com/mimir-aip/credit-decision/pkg/pipeline"
)

// GridResult is the outcome of searching one candidate's grid.
type GridResult struct {
	Candidate  models.Candidate
	BestParams map[string]float64
	BestScore  float64
	// MeanScores holds the mean fold accuracy for each grid value, in the
	// order of Candidate.Values.
	MeanScores []float64
	// FailedFolds counts folds left out of the means because their test
	// rows held a category the fold's training rows never showed.
	FailedFolds int
}

// GridSearch scores every value of the candidate's grid by stratified
// k-fold cross-validation accuracy. Each fold fits a fresh pipeline, so the
// stages only ever learn from that fold's training rows. The first value
// with the highest mean score wins. A fold whose test rows carry a category
// unseen in its training rows is logged and left out of the mean; the
// search fails only when every fold of a value fails.
func GridSearch(ctx context.Context, schema config.FeatureSchema, cand models.Candidate, f *dataset.Frame, y []float64, folds int, seed int64) (*GridResult, error) {
	if err := cand.Validate(); err != nil {
		return nil, err
	}
	if f.Len() != len(y) {
		return nil, fmt.Errorf("got %d rows but %d labels", f.Len(), len(y))
	}
	splits, err := training.StratifiedKFold(y, folds)
	if err != nil {
		return nil, fmt.Errorf("failed to build folds: %w", err)
	}

	scores := make([][]float64, len(cand.Values))
	scored := make([][]bool, len(cand.Values))
	for i := range scores {
		scores[i] = make([]float64, len(splits))
		scored[i] = make([]bool, len(splits))
	}

	logger := logging.New("gridsearch")
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for vi, value := range cand.Values {
		for fi, fold := range splits {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				params := map[string]float64{cand.Param: value}
				acc, err := scoreFold(schema, cand.Type, params, seed, f, y, fold)
				if errors.Is(err, features.ErrUnseenCategory) {
					logger.Warn("fold skipped",
						"model", cand.Type,
						"param", cand.Param,
						"value", value,
						"fold", fi,
						"error", err)
					return nil
				}
				if err != nil {
					return fmt.Errorf("%s %s=%g fold %d: %w", cand.Type, cand.Param, value, fi, err)
				}
				scores[vi][fi] = acc
				scored[vi][fi] = true
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &GridResult{Candidate: cand, MeanScores: make([]float64, len(cand.Values)), BestScore: -1}
	for vi, value := range cand.Values {
		var kept []float64
		for fi, ok := range scored[vi] {
			if ok {
				kept = append(kept, scores[vi][fi])
			} else {
				result.FailedFolds++
			}
		}
		if len(kept) == 0 {
			return nil, fmt.Errorf("%s %s=%g: all %d folds failed: %w", cand.Type, cand.Param, value, len(splits), features.ErrUnseenCategory)
		}
		mean := stat.Mean(kept, nil)
		result.MeanScores[vi] = mean
		if mean > result.BestScore {
			result.BestScore = mean
			result.BestParams = map[string]float64{cand.Param: value}
		}
	}
	return result, nil
}

func scoreFold(schema config.FeatureSchema, modelType models.ModelType, params map[string]float64, seed int64, f *dataset.Frame, y []float64, fold training.Fold) (float64, error) {
	clf, err := training.NewClassifier(modelType, params, seed)
	if err != nil {
		return 0, err
	}
	p, err := pipeline.New(schema, clf)
	if err != nil {
		return 0, err
	}
	if err := p.Fit(f.Take(fold.Train), pick(y, fold.Train)); err != nil {
		return 0, err
	}
	pred, err := p.Predict(f.Take(fold.Test))
	if err != nil {
		return 0, err
	}
	return training.Accuracy(pick(y, fold.Test), toFloats(pred)), nil
}

// predictKnown predicts every row of x it can. When the frame as a whole
// holds an unseen category, rows are scored one at a time and those that
// fail with ErrUnseenCategory are dropped. It returns the labels and
// predictions of the kept rows and how many rows were dropped.
func predictKnown(p *pipeline.Pipeline, x *dataset.Frame, y []float64) ([]float64, []float64, int, error) {
	pred, err := p.Predict(x)
	if err == nil {
		return y, toFloats(pred), 0, nil
	}
	if !errors.Is(err, features.ErrUnseenCategory) {
		return nil, nil, 0, err
	}

	keptY := make([]float64, 0, len(y))
	keptPred := make([]float64, 0, len(y))
	skipped := 0
	for i := range x.Len() {
		one, err := p.Predict(x.Take([]int{i}))
		if errors.Is(err, features.ErrUnseenCategory) {
			skipped++
			continue
		}
		if err != nil {
			return nil, nil, 0, fmt.Errorf("row %d: %w", i, err)
		}
		keptY = append(keptY, y[i])
		keptPred = append(keptPred, float64(one[0]))
	}
	return keptY, keptPred, skipped, nil
}

func pick(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = y[i]
	}
	return out
}

func toFloats(classes []int) []float64 {
	out := make([]float64, len(classes))
	for i, c := range classes {
		out[i] = float64(c)
	}
	return out
}
