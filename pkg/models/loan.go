package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/mimir-aip/credit-decision/pkg/config"
	"github.com/mimir-aip/credit-decision/pkg/dataset"
)

// LoanApplication is one applicant's features as submitted for scoring.
type LoanApplication struct {
	Rate                 float64 `json:"rate"`
	Amount               float64 `json:"amount"`
	Purpose              string  `json:"purpose"`
	Period               int     `json:"period"`
	CusAge               int     `json:"cus_age"`
	Gender               string  `json:"gender"`
	EducationLevel       string  `json:"education_level"`
	MaritalStatus        string  `json:"marital_status"`
	HasChildren          string  `json:"has_children"`
	LivingSituation      string  `json:"living_situation"`
	TotalExperience      int     `json:"total_experience"`
	Income               float64 `json:"income"`
	JobSector            string  `json:"job_sector"`
	DTI                  float64 `json:"DTI"`
	APR                  float64 `json:"APR"`
	CcrTotMounthAmt      float64 `json:"ccr_tot_mounth_amt"`
	CcrPayedLoanTotAmt   float64 `json:"ccr_payed_loan_tot_amt"`
	CcrActLoanTotRestAmt float64 `json:"ccr_act_loan_tot_rest_amt"`
}

// ToRow converts the application into a feature row keyed by JSON name.
func (a LoanApplication) ToRow() dataset.Row {
	return dataset.Row{
		"rate":                      dataset.Number(a.Rate),
		"amount":                    dataset.Number(a.Amount),
		"purpose":                   dataset.Text(a.Purpose),
		"period":                    dataset.Number(float64(a.Period)),
		"cus_age":                   dataset.Number(float64(a.CusAge)),
		"gender":                    dataset.Text(a.Gender),
		"education_level":           dataset.Text(a.EducationLevel),
		"marital_status":            dataset.Text(a.MaritalStatus),
		"has_children":              dataset.Text(a.HasChildren),
		"living_situation":          dataset.Text(a.LivingSituation),
		"total_experience":          dataset.Number(float64(a.TotalExperience)),
		"income":                    dataset.Number(a.Income),
		"job_sector":                dataset.Text(a.JobSector),
		"DTI":                       dataset.Number(a.DTI),
		"APR":                       dataset.Number(a.APR),
		"ccr_tot_mounth_amt":        dataset.Number(a.CcrTotMounthAmt),
		"ccr_payed_loan_tot_amt":    dataset.Number(a.CcrPayedLoanTotAmt),
		"ccr_act_loan_tot_rest_amt": dataset.Number(a.CcrActLoanTotRestAmt),
	}
}

// FeatureRow converts a decoded JSON object into a feature row for schema.
// Every feature must be present and no other key is allowed. A null value
// becomes a missing cell for the imputation stages to fill.
func FeatureRow(m map[string]any, schema config.FeatureSchema) (dataset.Row, error) {
	for key := range m {
		if !slices.Contains(schema.Features, key) {
			return nil, &dataset.SchemaError{Column: key, Reason: "unexpected field"}
		}
	}

	row := make(dataset.Row, len(schema.Features))
	for _, col := range schema.Features {
		raw, ok := m[col]
		if !ok {
			return nil, &dataset.SchemaError{Column: col, Reason: "required field missing"}
		}
		v, err := cellFor(raw, slices.Contains(schema.Numeric, col))
		if err != nil {
			return nil, &dataset.SchemaError{Column: col, Reason: err.Error()}
		}
		row[col] = v
	}
	return row, nil
}

func cellFor(raw any, numeric bool) (dataset.Value, error) {
	switch v := raw.(type) {
	case nil:
		return dataset.Missing(), nil
	case json.Number:
		if !numeric {
			return dataset.Text(v.String()), nil
		}
		f, err := v.Float64()
		if err != nil {
			return dataset.Value{}, fmt.Errorf("invalid number %q", v.String())
		}
		return dataset.Number(f), nil
	case float64:
		if !numeric {
			return dataset.Text(strconv.FormatFloat(v, 'g', -1, 64)), nil
		}
		return dataset.Number(v), nil
	case int:
		if !numeric {
			return dataset.Text(strconv.Itoa(v)), nil
		}
		return dataset.Number(float64(v)), nil
	case string:
		if !numeric {
			return dataset.Text(v), nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return dataset.Value{}, fmt.Errorf("expected a number, got %q", v)
		}
		return dataset.Number(f), nil
	default:
		return dataset.Value{}, fmt.Errorf("unsupported value of type %T", raw)
	}
}
