package features

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/mimir-aip/credit-decision/pkg/dataset"
)

// LogScaler replaces each value v with log(v + Constant), or log(v) when
// AddConstant is off. It has no learned state.
type LogScaler struct {
	Config   Config
	Constant float64
}

func NewLogScaler(cfg Config, constant float64) *LogScaler {
	return &LogScaler{Config: cfg, Constant: constant}
}

func (l *LogScaler) Name() string { return "log_scaling" }

func (l *LogScaler) Fit(*dataset.Frame, []float64) error { return nil }

func (l *LogScaler) Apply(f *dataset.Frame) (*dataset.Frame, error) {
	out := f
	for _, col := range l.Config.Variables {
		vals, err := f.Column(col)
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			if v.Kind != dataset.KindNumber {
				return nil, &dataset.SchemaError{Column: col, Reason: fmt.Sprintf("row %d is %s, expected number", i, v.Kind)}
			}
			x := v.Num
			if l.Config.AddConstant {
				x += l.Constant
			}
			if !(x > 0) {
				return nil, &NumericDomainError{Stage: l.Name(), Column: col, Row: i, Value: v.Num, Reason: "log of non-positive value"}
			}
			vals[i] = dataset.Number(math.Log(x))
		}
		if out, err = out.WithColumn(col, vals); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// StandardScaler centres each column on its training mean and divides by
// the population standard deviation. A zero-variance column keeps scale 1.
// With no Variables configured it scales every column present at Fit.
type StandardScaler struct {
	Config  Config
	Columns []string
	Means   map[string]float64
	Scales  map[string]float64
	Fitted  bool
}

func NewStandardScaler(cfg Config) *StandardScaler {
	return &StandardScaler{Config: cfg}
}

func (s *StandardScaler) Name() string { return "standard_scale" }

func (s *StandardScaler) Fit(f *dataset.Frame, _ []float64) error {
	cols := s.Config.Variables
	if len(cols) == 0 {
		cols = f.Columns()
	}
	means := make(map[string]float64, len(cols))
	scales := make(map[string]float64, len(cols))
	for _, col := range cols {
		vals, err := f.Numbers(col)
		if err != nil {
			return err
		}
		if len(vals) == 0 {
			return &NoDataError{Stage: s.Name(), Column: col}
		}
		mean, std := stat.PopMeanStdDev(vals, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		means[col] = mean
		scales[col] = std
	}
	s.Columns = cols
	s.Means = means
	s.Scales = scales
	s.Fitted = true
	return nil
}

func (s *StandardScaler) Apply(f *dataset.Frame) (*dataset.Frame, error) {
	if !s.Fitted {
		return nil, &NotFittedError{Stage: s.Name()}
	}
	out := f
	for _, col := range s.Columns {
		vals, err := f.Numbers(col)
		if err != nil {
			return nil, err
		}
		scaled := make([]dataset.Value, len(vals))
		for i, v := range vals {
			scaled[i] = dataset.Number((v - s.Means[col]) / s.Scales[col])
		}
		if out, err = out.WithColumn(col, scaled); err != nil {
			return nil, err
		}
	}
	return out, nil
}
