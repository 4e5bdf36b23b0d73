package features

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mimir-aip/credit-decision/pkg/dataset"
)

func frameOf(t *testing.T, cols map[string][]dataset.Value, order ...string) *dataset.Frame {
	t.Helper()
	values := make([][]dataset.Value, len(order))
	for i, name := range order {
		values[i] = cols[name]
	}
	f, err := dataset.NewFrame(order, values)
	require.NoError(t, err)
	return f
}

func nums(vs ...float64) []dataset.Value {
	out := make([]dataset.Value, len(vs))
	for i, v := range vs {
		out[i] = dataset.Number(v)
	}
	return out
}

func texts(vs ...string) []dataset.Value {
	out := make([]dataset.Value, len(vs))
	for i, v := range vs {
		out[i] = dataset.Text(v)
	}
	return out
}

func column(t *testing.T, f *dataset.Frame, name string) []dataset.Value {
	t.Helper()
	vals, err := f.Column(name)
	require.NoError(t, err)
	return vals
}
