package features

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/mimir-aip/credit-decision/pkg/dataset"
)

// MeanImputer fills missing numeric cells with the training mean.
type MeanImputer struct {
	Config Config
	Means  map[string]float64
	Fitted bool
}

func NewMeanImputer(cfg Config) *MeanImputer {
	return &MeanImputer{Config: cfg}
}

func (m *MeanImputer) Name() string { return "mean_imputation" }

func (m *MeanImputer) Fit(f *dataset.Frame, _ []float64) error {
	means := make(map[string]float64, len(m.Config.Variables))
	for _, col := range m.Config.Variables {
		vals, err := f.Column(col)
		if err != nil {
			return err
		}
		present := make([]float64, 0, len(vals))
		for i, v := range vals {
			switch v.Kind {
			case dataset.KindNumber:
				present = append(present, v.Num)
			case dataset.KindText:
				return &dataset.SchemaError{Column: col, Reason: fmt.Sprintf("row %d: expected number, got %q", i, v.Text)}
			}
		}
		if len(present) == 0 {
			return &NoDataError{Stage: m.Name(), Column: col}
		}
		means[col] = stat.Mean(present, nil)
	}
	m.Means = means
	m.Fitted = true
	return nil
}

func (m *MeanImputer) Apply(f *dataset.Frame) (*dataset.Frame, error) {
	if !m.Fitted {
		return nil, &NotFittedError{Stage: m.Name()}
	}
	out := f
	for _, col := range m.Config.Variables {
		vals, err := f.Column(col)
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			switch v.Kind {
			case dataset.KindMissing:
				vals[i] = dataset.Number(m.Means[col])
			case dataset.KindText:
				return nil, &dataset.SchemaError{Column: col, Reason: fmt.Sprintf("row %d: expected number, got %q", i, v.Text)}
			}
		}
		if out, err = out.WithColumn(col, vals); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ModeImputer fills missing categorical cells with the most frequent
// training value. Ties go to the lexicographically smallest value.
type ModeImputer struct {
	Config Config
	Modes  map[string]dataset.Value
	Fitted bool
}

func NewModeImputer(cfg Config) *ModeImputer {
	return &ModeImputer{Config: cfg}
}

func (m *ModeImputer) Name() string { return "mode_imputation" }

func (m *ModeImputer) Fit(f *dataset.Frame, _ []float64) error {
	modes := make(map[string]dataset.Value, len(m.Config.Variables))
	for _, col := range m.Config.Variables {
		vals, err := f.Column(col)
		if err != nil {
			return err
		}
		counts, first := countCategories(vals)
		if len(counts) == 0 {
			return &NoDataError{Stage: m.Name(), Column: col}
		}

		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		best := keys[0]
		for _, k := range keys[1:] {
			if counts[k] > counts[best] {
				best = k
			}
		}
		modes[col] = first[best]
	}
	m.Modes = modes
	m.Fitted = true
	return nil
}

func (m *ModeImputer) Apply(f *dataset.Frame) (*dataset.Frame, error) {
	if !m.Fitted {
		return nil, &NotFittedError{Stage: m.Name()}
	}
	out := f
	for _, col := range m.Config.Variables {
		vals, err := f.Column(col)
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			if v.IsMissing() {
				vals[i] = m.Modes[col]
			}
		}
		if out, err = out.WithColumn(col, vals); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// countCategories counts non-missing values by category key and keeps the
// first value seen for each key.
func countCategories(vals []dataset.Value) (map[string]int, map[string]dataset.Value) {
	counts := make(map[string]int)
	first := make(map[string]dataset.Value)
	for _, v := range vals {
		if v.IsMissing() {
			continue
		}
		key := v.Category()
		if _, ok := first[key]; !ok {
			first[key] = v
		}
		counts[key]++
	}
	return counts, first
}
