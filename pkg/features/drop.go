package features

import "github.com/mimir-aip/credit-decision/pkg/dataset"

// ColumnDropper removes raw columns once derivations have consumed them.
type ColumnDropper struct {
	Config Config
}

func NewColumnDropper(cfg Config) *ColumnDropper {
	return &ColumnDropper{Config: cfg}
}

func (c *ColumnDropper) Name() string { return "drop_features" }

func (c *ColumnDropper) Fit(*dataset.Frame, []float64) error { return nil }

func (c *ColumnDropper) Apply(f *dataset.Frame) (*dataset.Frame, error) {
	return f.Drop(c.Config.Variables...)
}
