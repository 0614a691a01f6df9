package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nhanes-ci/internal/db"
	"nhanes-ci/internal/simulate"
)

func TestEstimatesToCSV(t *testing.T) {
	a := db.Analysis{ID: 3, Kind: "proportion", Variable: "SMQ020", Level: 0.95}
	estimates := []db.Estimate{
		{GroupLabel: "Male", N: 1413, Estimate: 0.5251, SE: 0.0133, Lower: 0.4991, Upper: 0.5511, Method: "wald"},
		{GroupLabel: "Female", N: 1340, Estimate: 0.3043, SE: 0.0126, Lower: 0.2797, Upper: 0.3290, Method: "wald"},
	}

	var buf bytes.Buffer
	require.NoError(t, EstimatesToCSV(&buf, a, estimates))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"AnalysisID", "Kind", "Variable", "Level", "Group", "N", "Estimate", "SE", "Lower", "Upper", "Method"}, rows[0])
	assert.Equal(t, "Male", rows[1][4])
	assert.Equal(t, "0.525100", rows[1][6])
	assert.Equal(t, "Female", rows[2][4])
}

func TestSimulationToCSV(t *testing.T) {
	res := &simulate.Result{
		Variable: "BMXBMI",
		Level:    0.95,
		Sizes: []simulate.SizeResult{
			{Size: 50, Draws: 100, MeanWidth: 0.28, MeanSE: 0.07, Coverage: 0.96},
			{Size: 200, Draws: 100, MeanWidth: 0.14, MeanSE: 0.035, Coverage: 0.95},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, SimulationToCSV(&buf, res))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "50", rows[1][2])
	assert.Equal(t, "0.9500", rows[2][6])
}

func TestEstimatesToFile(t *testing.T) {
	path := t.TempDir() + "/out.csv"
	a := db.Analysis{ID: 1, Kind: "mean", Variable: "BMXBMI", Level: 0.95}
	require.NoError(t, EstimatesToFile(path, a, []db.Estimate{
		{GroupLabel: "All", N: 10, Estimate: 27.1, SE: 0.5, Lower: 26.1, Upper: 28.1, Method: "t"},
	}))
	assert.FileExists(t, path)
}
