package training

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainTestSplit(t *testing.T) {
	train, test, err := TrainTestSplit(100, 0.2, 42)
	require.NoError(t, err)
	assert.Len(t, test, 20)
	assert.Len(t, train, 80)

	all := append(slices.Clone(train), test...)
	slices.Sort(all)
	for i, v := range all {
		require.Equal(t, i, v)
	}

	train2, test2, err := TrainTestSplit(100, 0.2, 42)
	require.NoError(t, err)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	_, _, err = TrainTestSplit(100, 0, 42)
	assert.Error(t, err)
	_, _, err = TrainTestSplit(1, 0.5, 42)
	assert.Error(t, err)
}

func TestStratifiedKFold(t *testing.T) {
	y := make([]float64, 50)
	for i := range y {
		if i%5 == 0 {
			y[i] = 1
		}
	}
	folds, err := StratifiedKFold(y, 5)
	require.NoError(t, err)
	require.Len(t, folds, 5)

	seen := make([]int, len(y))
	for _, fold := range folds {
		assert.Len(t, fold.Test, 10)
		assert.Len(t, fold.Train, 40)
		pos := 0
		for _, i := range fold.Test {
			seen[i]++
			if y[i] == 1 {
				pos++
			}
		}
		assert.Equal(t, 2, pos, "each fold keeps the 20%% positive rate")
		assert.True(t, slices.IsSorted(fold.Train))
	}
	for i, n := range seen {
		assert.Equal(t, 1, n, "row %d tested once", i)
	}

	_, err = StratifiedKFold(y[:3], 5)
	assert.Error(t, err)
	_, err = StratifiedKFold(y, 1)
	assert.Error(t, err)
}
