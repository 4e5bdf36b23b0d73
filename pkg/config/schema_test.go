package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultSchemaIsValid(t *testing.T) {
	s := DefaultSchema()
	require.NoError(t, s.Validate())

	assert.Len(t, s.Features, 18)
	assert.Equal(t, "loan_status", s.Target)
	assert.NotContains(t, s.ModelFeatures(), "income")
	assert.Contains(t, s.ModelFeatures(), "annual_income")
	assert.Contains(t, s.ModelFeatures(), "income_to_loan_ratio")
	assert.Len(t, s.ModelFeatures(), 19)
}

func TestDerivationOrder(t *testing.T) {
	s := DefaultSchema()
	// Declare the dependent column first; ordering must still resolve it last.
	s.Derived = []Derivation{s.Derived[1], s.Derived[0]}

	order, err := s.DerivationOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"annual_income", "income_to_loan_ratio"}, order)
}

func TestDerivationOrderRejectsCycle(t *testing.T) {
	s := DefaultSchema()
	s.Derived = []Derivation{
		{Name: "a", Op: OpRatio, Inputs: []string{"b", "amount"}},
		{Name: "b", Op: OpScale, Inputs: []string{"a"}, Factor: 2},
	}
	_, err := s.DerivationOrder()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestDerivationOrderRejectsUnknownSource(t *testing.T) {
	s := DefaultSchema()
	s.Derived = append(s.Derived, Derivation{Name: "x", Op: OpScale, Inputs: []string{"salary"}, Factor: 1})
	_, err := s.DerivationOrder()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "salary")
}

func TestDerivationOrderRejectsCollision(t *testing.T) {
	s := DefaultSchema()
	s.Derived = append(s.Derived, Derivation{Name: "amount", Op: OpScale, Inputs: []string{"rate"}, Factor: 1})
	_, err := s.DerivationOrder()
	require.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FeatureSchema)
	}{
		{"missing target", func(s *FeatureSchema) { s.Target = "" }},
		{"duplicate feature", func(s *FeatureSchema) { s.Features = append(s.Features, "rate") }},
		{"untyped feature", func(s *FeatureSchema) { s.Numeric = s.Numeric[1:] }},
		{"overlapping types", func(s *FeatureSchema) { s.Categorical = append(s.Categorical, "rate") }},
		{"encode non categorical", func(s *FeatureSchema) { s.Encode = append(s.Encode, "rate") }},
		{"unencoded categorical", func(s *FeatureSchema) { s.Encode = s.Encode[1:] }},
		{"drop unknown", func(s *FeatureSchema) { s.Drop = []string{"salary"} }},
		{"log dropped column", func(s *FeatureSchema) { s.LogColumns = append(s.LogColumns, "income") }},
		{"bad op", func(s *FeatureSchema) { s.Derived[0].Op = "sqrt" }},
		{"ratio arity", func(s *FeatureSchema) { s.Derived[1].Inputs = []string{"amount"} }},
		{"non positive constant", func(s *FeatureSchema) { s.LogConstant = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSchema()
			tt.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestSchemaDiff(t *testing.T) {
	a := DefaultSchema()
	b := DefaultSchema()
	assert.True(t, a.Equal(b))

	b.Features[0], b.Features[1] = b.Features[1], b.Features[0]
	b.LogConstant = 1e-3
	assert.False(t, a.Equal(b))
	assert.Equal(t, []string{"features", "log_constant"}, a.Diff(b))
}

func TestLoadSchema(t *testing.T) {
	data, err := yaml.Marshal(DefaultSchema())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := LoadSchema(path)
	require.NoError(t, err)
	assert.True(t, loaded.Equal(DefaultSchema()), "diff: %v", loaded.Diff(DefaultSchema()))
}

func TestLoadSchemaInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte("target: loan_status\nfeatures: []\n"), 0o644))

	_, err := LoadSchema(path)
	assert.Error(t, err)

	_, err = LoadSchema(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
