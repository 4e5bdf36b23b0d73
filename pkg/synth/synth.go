// Package synth generates reproducible loan application datasets for demos
// and tests. Labels follow a fixed risk rule over debt-to-income, APR and
// the income-to-loan ratio, so a fitted model has real structure to learn.
package synth

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"slices"
	"strconv"

	"github.com/mimir-aip/credit-decision/pkg/config"
	"github.com/mimir-aip/credit-decision/pkg/dataset"
	"github.com/mimir-aip/credit-decision/pkg/models"
)

var (
	purposes        = []string{"car", "education", "home", "medical", "personal"}
	genders         = []string{"female", "male"}
	educationLevels = []string{"bachelor", "high_school", "master", "phd"}
	maritalStatuses = []string{"divorced", "married", "single"}
	hasChildren     = []string{"no", "yes"}
	livingSituation = []string{"own", "parents", "rent"}
	jobSectors      = []string{"finance", "government", "healthcare", "it", "retail"}
)

// Sample is a generated application and its outcome.
type Sample struct {
	Application models.LoanApplication
	Rejected    bool
}

// Label is the target value: 1 for rejected, 0 for approved.
func (s Sample) Label() float64 {
	if s.Rejected {
		return 1
	}
	return 0
}

// Generate returns n applications drawn from seed.
func Generate(n int, seed int64) []Sample {
	rng := rand.New(rand.NewSource(seed))
	samples := make([]Sample, n)
	for i := range samples {
		age := 21 + rng.Intn(50)
		app := models.LoanApplication{
			Rate:                 round2(2 + rng.Float64()*18),
			Amount:               round2(1000 + rng.Float64()*39000),
			Purpose:              pick(purposes, i, rng),
			Period:               12 * (1 + rng.Intn(7)),
			CusAge:               age,
			Gender:               pick(genders, i, rng),
			EducationLevel:       pick(educationLevels, i, rng),
			MaritalStatus:        pick(maritalStatuses, i, rng),
			HasChildren:          pick(hasChildren, i, rng),
			LivingSituation:      pick(livingSituation, i, rng),
			TotalExperience:      rng.Intn(age - 18),
			Income:               round2(800 + rng.Float64()*8200),
			JobSector:            pick(jobSectors, i, rng),
			DTI:                  round2(5 + rng.Float64()*55),
			APR:                  round2(3 + rng.Float64()*32),
			CcrTotMounthAmt:      round2(rng.Float64() * 2000),
			CcrPayedLoanTotAmt:   round2(rng.Float64() * 20000),
			CcrActLoanTotRestAmt: round2(rng.Float64() * 15000),
		}
		samples[i] = Sample{Application: app, Rejected: Risk(app) > 0}
	}
	return samples
}

// Risk scores an application; positive means rejected.
func Risk(a models.LoanApplication) float64 {
	ratio := 12 * a.Income / a.Amount
	return (a.DTI-32.5)/27.5 + (a.APR-19)/16 - (math.Log(ratio)-math.Log(6))/2
}

// Favorable is an application every reasonable model approves.
func Favorable() models.LoanApplication {
	return models.LoanApplication{
		Rate: 4, Amount: 5000, Purpose: "car", Period: 24, CusAge: 45,
		Gender: "female", EducationLevel: "master", MaritalStatus: "married",
		HasChildren: "yes", LivingSituation: "own", TotalExperience: 20,
		Income: 8000, JobSector: "government", DTI: 8, APR: 4,
		CcrTotMounthAmt: 150, CcrPayedLoanTotAmt: 12000, CcrActLoanTotRestAmt: 500,
	}
}

// Adversarial is an application every reasonable model rejects: no income,
// extreme debt-to-income and APR.
func Adversarial() models.LoanApplication {
	return models.LoanApplication{
		Rate: 19, Amount: 20000, Purpose: "personal", Period: 84, CusAge: 23,
		Gender: "male", EducationLevel: "high_school", MaritalStatus: "single",
		HasChildren: "no", LivingSituation: "rent", TotalExperience: 1,
		Income: 0, JobSector: "retail", DTI: 58, APR: 34,
		CcrTotMounthAmt: 1900, CcrPayedLoanTotAmt: 100, CcrActLoanTotRestAmt: 14500,
	}
}

// Frame builds a dataset frame over schema.Features plus the target column
// values.
func Frame(samples []Sample, schema config.FeatureSchema) (*dataset.Frame, []float64, error) {
	rows := make([]dataset.Row, len(samples))
	y := make([]float64, len(samples))
	for i, s := range samples {
		rows[i] = s.Application.ToRow()
		y[i] = s.Label()
	}
	f, err := dataset.FromRows(rows, schema.Features)
	if err != nil {
		return nil, nil, err
	}
	return f, y, nil
}

// WriteCSV writes samples as CSV with the schema's features and target.
// Each feature cell is left blank with probability missingRate.
func WriteCSV(w io.Writer, samples []Sample, schema config.FeatureSchema, missingRate float64, seed int64) error {
	rng := rand.New(rand.NewSource(seed))
	cw := csv.NewWriter(w)

	header := append(slices.Clone(schema.Features), schema.Target)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(header))
	for i, s := range samples {
		row := s.Application.ToRow()
		for j, col := range schema.Features {
			v, ok := row[col]
			if !ok {
				return fmt.Errorf("sample %d has no value for %q", i, col)
			}
			if missingRate > 0 && rng.Float64() < missingRate {
				record[j] = ""
				continue
			}
			record[j] = v.Category()
		}
		record[len(header)-1] = strconv.Itoa(int(s.Label()))
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write sample %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// pick cycles through values for the first rows so every category appears,
// then draws at random.
func pick(values []string, i int, rng *rand.Rand) string {
	if i < 2*len(values) {
		return values[i%len(values)]
	}
	return values[rng.Intn(len(values))]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
