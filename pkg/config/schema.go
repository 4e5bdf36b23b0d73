package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/dominikbraun/graph"
	"gopkg.in/yaml.v3"
)

// Derivation ops.
const (
	OpScale = "scale" // inputs[0] * factor
	OpRatio = "ratio" // inputs[0] / inputs[1]
)

const (
	annualMultiplier = 12
	logConstant      = 1e-6
)

// Derivation describes one synthesized column.
type Derivation struct {
	Name   string   `yaml:"name" json:"name"`
	Op     string   `yaml:"op" json:"op"`
	Inputs []string `yaml:"inputs" json:"inputs"`
	Factor float64  `yaml:"factor,omitempty" json:"factor,omitempty"`
}

// FeatureSchema is the single source of truth for which columns the pipeline
// consumes and how each is treated. Every stage is configured from it, and
// stored artifacts embed the schema they were trained with.
type FeatureSchema struct {
	Target         string       `yaml:"target" json:"target"`
	Features       []string     `yaml:"features" json:"features"`
	Numeric        []string     `yaml:"numeric" json:"numeric"`
	Categorical    []string     `yaml:"categorical" json:"categorical"`
	Encode         []string     `yaml:"encode" json:"encode"`
	Derived        []Derivation `yaml:"derived" json:"derived"`
	Drop           []string     `yaml:"drop" json:"drop"`
	LogColumns     []string     `yaml:"log_columns" json:"log_columns"`
	LogAddConstant bool         `yaml:"log_add_constant" json:"log_add_constant"`
	LogConstant    float64      `yaml:"log_constant" json:"log_constant"`
}

// DefaultSchema returns the loan-application schema.
func DefaultSchema() FeatureSchema {
	categorical := []string{
		"purpose", "gender", "education_level", "marital_status",
		"has_children", "living_situation", "job_sector",
	}
	return FeatureSchema{
		Target: "loan_status",
		Features: []string{
			"rate", "amount", "purpose", "period", "cus_age", "gender",
			"education_level", "marital_status", "has_children", "living_situation",
			"total_experience", "job_sector", "DTI", "APR", "ccr_tot_mounth_amt",
			"ccr_payed_loan_tot_amt", "ccr_act_loan_tot_rest_amt", "income",
		},
		Numeric: []string{
			"rate", "amount", "period", "cus_age", "total_experience",
			"ccr_act_loan_tot_rest_amt", "DTI", "APR", "ccr_tot_mounth_amt",
			"ccr_payed_loan_tot_amt", "income",
		},
		Categorical: categorical,
		Encode:      slices.Clone(categorical),
		Derived: []Derivation{
			{Name: "annual_income", Op: OpScale, Inputs: []string{"income"}, Factor: annualMultiplier},
			{Name: "income_to_loan_ratio", Op: OpRatio, Inputs: []string{"annual_income", "amount"}},
		},
		Drop: []string{"income"},
		LogColumns: []string{
			"rate", "amount", "period", "cus_age", "total_experience",
			"ccr_act_loan_tot_rest_amt", "DTI", "APR", "ccr_tot_mounth_amt",
			"ccr_payed_loan_tot_amt", "annual_income", "income_to_loan_ratio",
		},
		LogAddConstant: true,
		LogConstant:    logConstant,
	}
}

// LoadSchema reads a YAML schema file and validates it.
func LoadSchema(path string) (FeatureSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FeatureSchema{}, fmt.Errorf("failed to read schema file: %w", err)
	}

	var schema FeatureSchema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return FeatureSchema{}, fmt.Errorf("failed to parse schema file: %w", err)
	}
	if err := schema.Validate(); err != nil {
		return FeatureSchema{}, fmt.Errorf("invalid schema %s: %w", path, err)
	}
	return schema, nil
}

// Validate checks the schema's internal consistency.
func (s FeatureSchema) Validate() error {
	if s.Target == "" {
		return fmt.Errorf("target is required")
	}
	if len(s.Features) == 0 {
		return fmt.Errorf("at least one feature is required")
	}
	if dup := firstDuplicate(s.Features); dup != "" {
		return fmt.Errorf("feature %q listed twice", dup)
	}
	if slices.Contains(s.Features, s.Target) {
		return fmt.Errorf("target %q cannot also be a feature", s.Target)
	}

	for _, col := range s.Numeric {
		if slices.Contains(s.Categorical, col) {
			return fmt.Errorf("column %q is both numeric and categorical", col)
		}
	}
	typed := append(slices.Clone(s.Numeric), s.Categorical...)
	for _, col := range s.Features {
		if !slices.Contains(typed, col) {
			return fmt.Errorf("feature %q is neither numeric nor categorical", col)
		}
	}
	for _, col := range typed {
		if !slices.Contains(s.Features, col) {
			return fmt.Errorf("column %q is typed but not a feature", col)
		}
	}
	for _, col := range s.Encode {
		if !slices.Contains(s.Categorical, col) {
			return fmt.Errorf("encoded column %q is not categorical", col)
		}
	}

	order, err := s.DerivationOrder()
	if err != nil {
		return err
	}
	for _, col := range s.Drop {
		if !slices.Contains(s.Features, col) && !slices.Contains(order, col) {
			return fmt.Errorf("dropped column %q does not exist", col)
		}
	}

	model := s.ModelFeatures()
	for _, col := range s.LogColumns {
		if !slices.Contains(model, col) {
			return fmt.Errorf("log column %q is not a model feature", col)
		}
		if slices.Contains(s.Categorical, col) {
			return fmt.Errorf("log column %q is categorical", col)
		}
	}
	for _, col := range s.Categorical {
		if slices.Contains(model, col) && !slices.Contains(s.Encode, col) {
			return fmt.Errorf("categorical column %q reaches the model without encoding", col)
		}
	}
	if s.LogAddConstant && s.LogConstant <= 0 {
		return fmt.Errorf("log constant must be positive, got %g", s.LogConstant)
	}
	return nil
}

// DerivationOrder returns derived column names in evaluation order. Sources
// must be raw features or earlier derived columns, and the graph must be
// acyclic.
func (s FeatureSchema) DerivationOrder() ([]string, error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())

	for _, col := range s.Features {
		_ = g.AddVertex(col)
	}
	derived := make(map[string]bool, len(s.Derived))
	for _, d := range s.Derived {
		if err := validateDerivation(d); err != nil {
			return nil, err
		}
		if err := g.AddVertex(d.Name); err != nil {
			if errors.Is(err, graph.ErrVertexAlreadyExists) {
				return nil, fmt.Errorf("derived column %q collides with an existing column", d.Name)
			}
			return nil, fmt.Errorf("failed to register derived column %q: %w", d.Name, err)
		}
		derived[d.Name] = true
	}

	for _, d := range s.Derived {
		for _, in := range d.Inputs {
			err := g.AddEdge(in, d.Name)
			switch {
			case err == nil, errors.Is(err, graph.ErrEdgeAlreadyExists):
			case errors.Is(err, graph.ErrVertexNotFound):
				return nil, fmt.Errorf("derived column %q reads unknown column %q", d.Name, in)
			case errors.Is(err, graph.ErrEdgeCreatesCycle):
				return nil, fmt.Errorf("derived column %q forms a cycle through %q", d.Name, in)
			default:
				return nil, fmt.Errorf("failed to link %q to %q: %w", in, d.Name, err)
			}
		}
	}

	sorted, err := graph.StableTopologicalSort(g, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, fmt.Errorf("failed to order derived columns: %w", err)
	}

	order := make([]string, 0, len(s.Derived))
	for _, col := range sorted {
		if derived[col] {
			order = append(order, col)
		}
	}
	return order, nil
}

func validateDerivation(d Derivation) error {
	if d.Name == "" {
		return fmt.Errorf("derived column needs a name")
	}
	switch d.Op {
	case OpScale:
		if len(d.Inputs) != 1 {
			return fmt.Errorf("derived column %q: scale takes 1 input, got %d", d.Name, len(d.Inputs))
		}
	case OpRatio:
		if len(d.Inputs) != 2 {
			return fmt.Errorf("derived column %q: ratio takes 2 inputs, got %d", d.Name, len(d.Inputs))
		}
	default:
		return fmt.Errorf("derived column %q: unknown op %q", d.Name, d.Op)
	}
	return nil
}

// ModelFeatures is the column set the classifier sees: raw features plus
// derived columns, minus dropped ones.
func (s FeatureSchema) ModelFeatures() []string {
	out := make([]string, 0, len(s.Features)+len(s.Derived))
	for _, col := range s.Features {
		if !slices.Contains(s.Drop, col) {
			out = append(out, col)
		}
	}
	for _, d := range s.Derived {
		if !slices.Contains(s.Drop, d.Name) {
			out = append(out, d.Name)
		}
	}
	return out
}

// Equal reports whether two schemas describe the same pipeline contract.
func (s FeatureSchema) Equal(o FeatureSchema) bool {
	return len(s.Diff(o)) == 0
}

// Diff lists the fields that differ between two schemas.
func (s FeatureSchema) Diff(o FeatureSchema) []string {
	var diff []string
	if s.Target != o.Target {
		diff = append(diff, "target")
	}
	if !slices.Equal(s.Features, o.Features) {
		diff = append(diff, "features")
	}
	if !slices.Equal(s.Numeric, o.Numeric) {
		diff = append(diff, "numeric")
	}
	if !slices.Equal(s.Categorical, o.Categorical) {
		diff = append(diff, "categorical")
	}
	if !slices.Equal(s.Encode, o.Encode) {
		diff = append(diff, "encode")
	}
	if !slices.EqualFunc(s.Derived, o.Derived, func(a, b Derivation) bool {
		return a.Name == b.Name && a.Op == b.Op && a.Factor == b.Factor && slices.Equal(a.Inputs, b.Inputs)
	}) {
		diff = append(diff, "derived")
	}
	if !slices.Equal(s.Drop, o.Drop) {
		diff = append(diff, "drop")
	}
	if !slices.Equal(s.LogColumns, o.LogColumns) {
		diff = append(diff, "log_columns")
	}
	if s.LogAddConstant != o.LogAddConstant || s.LogConstant != o.LogConstant {
		diff = append(diff, "log_constant")
	}
	return diff
}

func firstDuplicate(cols []string) string {
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if seen[c] {
			return c
		}
		seen[c] = true
	}
	return ""
}
