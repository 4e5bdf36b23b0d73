package training

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/mimir-aip/credit-decision/pkg/models"
)

// RandomForest averages bootstrap-trained trees that each try a random
// subset of features at every split.
type RandomForest struct {
	NEstimators int
	MaxDepth    int
	MaxFeatures int // 0 means sqrt of the feature count
	Seed        int64
	NumFeatures int
	Trees       []*DecisionTree
}

// NewRandomForest reads n_estimators and max_depth from params.
func NewRandomForest(params map[string]float64, seed int64) (*RandomForest, error) {
	if err := checkParams(models.ModelTypeRandomForest, params); err != nil {
		return nil, err
	}
	n, err := intParam(params, "n_estimators", 100)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("n_estimators must be at least 1")
	}
	depth, err := intParam(params, "max_depth", 0)
	if err != nil {
		return nil, err
	}
	return &RandomForest{NEstimators: n, MaxDepth: depth, Seed: seed}, nil
}

func (f *RandomForest) Type() models.ModelType { return models.ModelTypeRandomForest }

func (f *RandomForest) Params() map[string]float64 {
	return map[string]float64{
		"n_estimators": float64(f.NEstimators),
		"max_depth":    float64(f.MaxDepth),
	}
}

// Fit trains the trees in parallel. Each tree draws from its own seeded
// source, so the result does not depend on scheduling.
func (f *RandomForest) Fit(X [][]float64, y []float64) error {
	if err := checkTrainingData(X, y); err != nil {
		return err
	}
	width := len(X[0])
	maxFeatures := f.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = max(1, int(math.Sqrt(float64(width))))
	}

	trees := make([]*DecisionTree, f.NEstimators)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range trees {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(f.Seed + int64(i)*7919 + 1))

			bx := make([][]float64, len(X))
			by := make([]float64, len(X))
			for k := range bx {
				j := rng.Intn(len(X))
				bx[k], by[k] = X[j], y[j]
			}

			tree := &DecisionTree{
				MaxDepth:        f.MaxDepth,
				MinSamplesSplit: 2,
				MinSamplesLeaf:  1,
				MaxFeatures:     maxFeatures,
				Seed:            rng.Int63(),
			}
			if err := tree.Fit(bx, by); err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
			trees[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.NumFeatures = width
	f.Trees = trees
	return nil
}

// Predict returns 1 where the mean leaf share of class 1 exceeds one half.
func (f *RandomForest) Predict(X [][]float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, fmt.Errorf("model not trained")
	}
	if err := checkWidth(X, f.NumFeatures); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i, row := range X {
		sum := 0.0
		for _, tree := range f.Trees {
			sum += tree.prob(row)
		}
		if sum/float64(len(f.Trees)) > 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}
