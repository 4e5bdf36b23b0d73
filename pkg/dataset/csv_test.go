package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loansCSV = `amount,purpose,loan_status
1000,car,0
,home,1
2500.5,NA,0
NaN,,1
`

func TestReadCSV(t *testing.T) {
	f, err := ReadCSV(strings.NewReader(loansCSV), []string{"amount", "loan_status"})
	require.NoError(t, err)

	assert.Equal(t, []string{"amount", "purpose", "loan_status"}, f.Columns())
	assert.Equal(t, 4, f.Len())

	amount, _ := f.Column("amount")
	assert.Equal(t, Number(1000), amount[0])
	assert.True(t, amount[1].IsMissing())
	assert.Equal(t, Number(2500.5), amount[2])
	assert.True(t, amount[3].IsMissing())

	purpose, _ := f.Column("purpose")
	assert.Equal(t, Text("home"), purpose[1])
	assert.True(t, purpose[2].IsMissing())
	assert.True(t, purpose[3].IsMissing())

	status, err := f.Numbers("loan_status")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0, 1}, status)
}

func TestReadCSVRejectsNonNumeric(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("amount\nlots\n"), []string{"amount"})
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "amount", se.Column)
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), nil)
	assert.Error(t, err)
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(path, []byte(loansCSV), 0o644))

	f, err := LoadCSV(path, []string{"amount"})
	require.NoError(t, err)
	assert.Equal(t, 4, f.Len())

	_, err = LoadCSV(filepath.Join(t.TempDir(), "nope.csv"), nil)
	assert.Error(t, err)
}
