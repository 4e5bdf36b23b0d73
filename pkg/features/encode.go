package features

import (
	"fmt"
	"sort"

	"github.com/mimir-aip/credit-decision/pkg/dataset"
)

// CategoricalEncoder maps each category to its frequency rank in the
// training data: the rarest value gets 0, the most common k-1. Equal
// frequencies are ranked by ascending value.
type CategoricalEncoder struct {
	Config Config
	Codes  map[string]map[string]int
	Fitted bool
}

func NewCategoricalEncoder(cfg Config) *CategoricalEncoder {
	return &CategoricalEncoder{Config: cfg}
}

func (e *CategoricalEncoder) Name() string { return "label_encoder" }

func (e *CategoricalEncoder) Fit(f *dataset.Frame, _ []float64) error {
	codes := make(map[string]map[string]int, len(e.Config.Variables))
	for _, col := range e.Config.Variables {
		vals, err := f.Column(col)
		if err != nil {
			return err
		}
		counts, _ := countCategories(vals)
		if len(counts) == 0 {
			return &NoDataError{Stage: e.Name(), Column: col}
		}

		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if counts[keys[i]] != counts[keys[j]] {
				return counts[keys[i]] < counts[keys[j]]
			}
			return keys[i] < keys[j]
		})

		mapping := make(map[string]int, len(keys))
		for rank, k := range keys {
			mapping[k] = rank
		}
		codes[col] = mapping
	}
	e.Codes = codes
	e.Fitted = true
	return nil
}

func (e *CategoricalEncoder) Apply(f *dataset.Frame) (*dataset.Frame, error) {
	if !e.Fitted {
		return nil, &NotFittedError{Stage: e.Name()}
	}
	out := f
	for _, col := range e.Config.Variables {
		vals, err := f.Column(col)
		if err != nil {
			return nil, err
		}
		mapping := e.Codes[col]
		for i, v := range vals {
			if v.IsMissing() {
				return nil, &dataset.SchemaError{Column: col, Reason: fmt.Sprintf("row %d: missing value reached the encoder", i)}
			}
			code, ok := mapping[v.Category()]
			if !ok {
				return nil, &UnseenCategoryError{Column: col, Value: v.Category()}
			}
			vals[i] = dataset.Number(float64(code))
		}
		if out, err = out.WithColumn(col, vals); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Categories lists a column's known values in code order.
func (e *CategoricalEncoder) Categories(col string) []string {
	mapping := e.Codes[col]
	out := make([]string, len(mapping))
	for k, code := range mapping {
		out[code] = k
	}
	return out
}
