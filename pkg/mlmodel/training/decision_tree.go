package training

import (
	"fmt"
	"math/rand"
	"slices"
	"sort"

	"github.com/mimir-aip/credit-decision/pkg/models"
)

// TreeNode is one node of a fitted decision tree. Leaves carry the share
// of class 1 among the training rows that reached them.
type TreeNode struct {
	Feature   int
	Threshold float64
	Left      *TreeNode
	Right     *TreeNode
	Prob      float64
	Samples   int
	IsLeaf    bool
}

// DecisionTree is a CART classifier splitting on Gini impurity.
type DecisionTree struct {
	MaxDepth        int // 0 grows until leaves are pure
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // features tried per split, 0 for all
	Seed            int64
	NumFeatures     int
	Root            *TreeNode
}

// NewDecisionTree reads max_depth from params.
func NewDecisionTree(params map[string]float64, seed int64) (*DecisionTree, error) {
	if err := checkParams(models.ModelTypeDecisionTree, params); err != nil {
		return nil, err
	}
	depth, err := intParam(params, "max_depth", 0)
	if err != nil {
		return nil, err
	}
	return &DecisionTree{
		MaxDepth:        depth,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Seed:            seed,
	}, nil
}

func (t *DecisionTree) Type() models.ModelType { return models.ModelTypeDecisionTree }

func (t *DecisionTree) Params() map[string]float64 {
	return map[string]float64{"max_depth": float64(t.MaxDepth)}
}

// Fit grows the tree on X and y.
func (t *DecisionTree) Fit(X [][]float64, y []float64) error {
	if err := checkTrainingData(X, y); err != nil {
		return err
	}
	t.NumFeatures = len(X[0])
	rng := rand.New(rand.NewSource(t.Seed))

	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	t.Root = t.grow(X, y, idx, 0, rng)
	return nil
}

// Predict returns 1 where the leaf's class-1 share exceeds one half.
func (t *DecisionTree) Predict(X [][]float64) ([]float64, error) {
	if t.Root == nil {
		return nil, fmt.Errorf("model not trained")
	}
	if err := checkWidth(X, t.NumFeatures); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i, row := range X {
		if t.prob(row) > 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

func (t *DecisionTree) prob(row []float64) float64 {
	node := t.Root
	for !node.IsLeaf {
		if row[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Prob
}

// grow recursively builds a subtree over the rows in idx
func (t *DecisionTree) grow(X [][]float64, y []float64, idx []int, depth int, rng *rand.Rand) *TreeNode {
	pos := 0
	for _, i := range idx {
		if y[i] == 1 {
			pos++
		}
	}
	n := len(idx)
	node := &TreeNode{Prob: float64(pos) / float64(n), Samples: n, IsLeaf: true}

	if (t.MaxDepth > 0 && depth >= t.MaxDepth) || n < t.MinSamplesSplit || pos == 0 || pos == n {
		return node
	}

	feature, threshold, ok := t.bestSplit(X, y, idx, pos, rng)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	node.IsLeaf = false
	node.Feature = feature
	node.Threshold = threshold
	node.Left = t.grow(X, y, left, depth+1, rng)
	node.Right = t.grow(X, y, right, depth+1, rng)
	return node
}

// bestSplit sweeps each candidate feature in sorted order and returns the
// threshold with the largest impurity decrease.
func (t *DecisionTree) bestSplit(X [][]float64, y []float64, idx []int, pos int, rng *rand.Rand) (int, float64, bool) {
	n := len(idx)
	parent := gini(pos, n)

	candidates := rng.Perm(t.NumFeatures)
	if t.MaxFeatures > 0 && t.MaxFeatures < t.NumFeatures {
		candidates = candidates[:t.MaxFeatures]
	} else {
		slices.Sort(candidates)
	}

	bestFeature, bestThreshold, bestGain := 0, 0.0, 0.0
	found := false
	sorted := make([]int, n)

	for _, f := range candidates {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, b int) bool { return X[sorted[a]][f] < X[sorted[b]][f] })

		leftPos := 0
		for k := 0; k < n-1; k++ {
			if y[sorted[k]] == 1 {
				leftPos++
			}
			cur, next := X[sorted[k]][f], X[sorted[k+1]][f]
			if cur == next {
				continue
			}
			nl, nr := k+1, n-k-1
			if nl < t.MinSamplesLeaf || nr < t.MinSamplesLeaf {
				continue
			}
			weighted := (float64(nl)*gini(leftPos, nl) + float64(nr)*gini(pos-leftPos, nr)) / float64(n)
			gain := parent - weighted
			if gain > bestGain+1e-12 {
				threshold := cur + (next-cur)/2
				if threshold >= next {
					threshold = cur
				}
				bestFeature, bestThreshold, bestGain = f, threshold, gain
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

// gini is the impurity of a node holding pos positives out of n rows.
func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 1 - p*p - (1-p)*(1-p)
}
