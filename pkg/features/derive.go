package features

import (
	"fmt"

	"github.com/mimir-aip/credit-decision/pkg/config"
	"github.com/mimir-aip/credit-decision/pkg/dataset"
)

// Deriver appends synthesized columns. It has no learned state; Order is
// resolved once from the derivation graph at construction.
type Deriver struct {
	Derivations []config.Derivation
	Order       []string
}

// NewDeriver resolves the evaluation order of the schema's derivations.
func NewDeriver(schema config.FeatureSchema) (*Deriver, error) {
	order, err := schema.DerivationOrder()
	if err != nil {
		return nil, err
	}
	return &Deriver{Derivations: schema.Derived, Order: order}, nil
}

func (d *Deriver) Name() string { return "custom_processing" }

func (d *Deriver) Fit(*dataset.Frame, []float64) error { return nil }

func (d *Deriver) Apply(f *dataset.Frame) (*dataset.Frame, error) {
	byName := make(map[string]config.Derivation, len(d.Derivations))
	for _, spec := range d.Derivations {
		byName[spec.Name] = spec
	}

	out := f
	for _, name := range d.Order {
		spec := byName[name]
		inputs := make([][]float64, len(spec.Inputs))
		for i, col := range spec.Inputs {
			vals, err := d.operand(out, col)
			if err != nil {
				return nil, err
			}
			inputs[i] = vals
		}

		col := make([]dataset.Value, out.Len())
		for r := range col {
			v, err := d.compute(spec, inputs, r)
			if err != nil {
				return nil, err
			}
			col[r] = dataset.Number(v)
		}

		var err error
		if out, err = out.WithColumn(spec.Name, col); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *Deriver) operand(f *dataset.Frame, col string) ([]float64, error) {
	vals, err := f.Column(col)
	if err != nil {
		return nil, err
	}
	nums := make([]float64, len(vals))
	for r, v := range vals {
		switch v.Kind {
		case dataset.KindNumber:
			nums[r] = v.Num
		case dataset.KindMissing:
			return nil, &NumericDomainError{Stage: d.Name(), Column: col, Row: r, Reason: "missing operand"}
		default:
			return nil, &dataset.SchemaError{Column: col, Reason: fmt.Sprintf("row %d: expected number, got %q", r, v.Text)}
		}
	}
	return nums, nil
}

func (d *Deriver) compute(spec config.Derivation, inputs [][]float64, r int) (float64, error) {
	switch spec.Op {
	case config.OpScale:
		return inputs[0][r] * spec.Factor, nil
	case config.OpRatio:
		den := inputs[1][r]
		if den == 0 {
			return 0, &NumericDomainError{Stage: d.Name(), Column: spec.Inputs[1], Row: r, Value: den, Reason: "division by zero"}
		}
		return inputs[0][r] / den, nil
	default:
		return 0, fmt.Errorf("%s: unknown op %q for %q", d.Name(), spec.Op, spec.Name)
	}
}
