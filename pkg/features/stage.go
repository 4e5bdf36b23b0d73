// Package features holds the fit/apply stages of the loan feature pipeline.
//
// Each stage learns its state from training data in Fit and replays it in
// Apply. Apply never mutates its input frame and never refits, so a fitted
// stage can be shared by concurrent callers.
package features

import (
	"encoding/gob"

	"github.com/mimir-aip/credit-decision/pkg/dataset"
)

// Stage is one step of the feature pipeline.
type Stage interface {
	Name() string
	// Fit learns state from f. y is the training target and may be nil;
	// none of the built-in stages read it. Refitting replaces prior state.
	Fit(f *dataset.Frame, y []float64) error
	Apply(f *dataset.Frame) (*dataset.Frame, error)
}

// Config is the per-stage column selection.
type Config struct {
	Variables   []string `yaml:"variables" json:"variables"`
	AddConstant bool     `yaml:"add_constant" json:"add_constant"`
}

func init() {
	gob.Register(&MeanImputer{})
	gob.Register(&ModeImputer{})
	gob.Register(&Deriver{})
	gob.Register(&ColumnDropper{})
	gob.Register(&CategoricalEncoder{})
	gob.Register(&LogScaler{})
	gob.Register(&StandardScaler{})
}
