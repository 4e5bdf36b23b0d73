package training

import (
	"fmt"
	"math"
	"math/rand"
)

// Fold is one cross-validation partition of row positions.
type Fold struct {
	Train []int
	Test  []int
}

// TrainTestSplit shuffles row positions with seed and holds out
// ceil(testSize*n) of them.
func TrainTestSplit(n int, testSize float64, seed int64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be between 0 and 1, got %g", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest < 1 || nTest >= n {
		return nil, nil, fmt.Errorf("cannot hold out %d of %d rows", nTest, n)
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// StratifiedKFold deals the rows of each class round-robin into k folds,
// so every fold keeps roughly the overall class balance. Row order inside
// each fold is ascending.
func StratifiedKFold(y []float64, k int) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("need at least 2 folds, got %d", k)
	}
	if len(y) < k {
		return nil, fmt.Errorf("cannot split %d rows into %d folds", len(y), k)
	}

	assign := make([]int, len(y))
	seen := map[float64]int{}
	for i, label := range y {
		assign[i] = seen[label] % k
		seen[label]++
	}

	folds := make([]Fold, k)
	for i, f := range assign {
		for j := range folds {
			if j == f {
				folds[j].Test = append(folds[j].Test, i)
			} else {
				folds[j].Train = append(folds[j].Train, i)
			}
		}
	}
	for j, fold := range folds {
		if len(fold.Test) == 0 {
			return nil, fmt.Errorf("fold %d is empty", j)
		}
	}
	return folds, nil
}
