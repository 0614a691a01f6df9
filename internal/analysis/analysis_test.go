package analysis

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nhanes-ci/internal/dataset"
	"nhanes-ci/internal/db"
)

func setupDataset(t *testing.T) (*db.DB, int64) {
	t.Helper()

	database, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	path := filepath.Join("..", "dataset", "testdata", "nhanes_mini.csv")
	persons, err := dataset.LoadFile(path)
	require.NoError(t, err)

	id, err := database.InsertDataset(&db.Dataset{
		Tag:      "test",
		Source:   path,
		Label:    "fixture",
		RowCount: int64(len(persons)),
	})
	require.NoError(t, err)
	require.NoError(t, database.InsertPersons(id, persons))
	return database, id
}

func TestRunProportion(t *testing.T) {
	database, id := setupDataset(t)

	res, err := Run(database, Request{
		DatasetID: id,
		Kind:      KindProportion,
		Variable:  dataset.VarSmoker,
	})
	require.NoError(t, err)

	require.Len(t, res.Estimates, 1)
	e := res.Estimates[0]
	assert.Equal(t, "All", e.GroupLabel)
	assert.Equal(t, int64(17), e.N)
	assert.InDelta(t, 7.0/17.0, e.Estimate, 1e-12)
	assert.Less(t, e.Lower, e.Estimate)
	assert.Greater(t, e.Upper, e.Estimate)
	assert.Equal(t, MethodWald, e.Method)

	// The analysis row was persisted with defaults filled in.
	a, err := database.GetAnalysis(res.Analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, string(KindProportion), a.Kind)
	assert.Equal(t, 0.95, a.Level)
}

func TestRunProportionWilsonByGroup(t *testing.T) {
	database, id := setupDataset(t)

	res, err := Run(database, Request{
		DatasetID: id,
		Kind:      KindProportion,
		Variable:  dataset.VarSmoker,
		GroupBy:   dataset.VarSex,
		Method:    MethodWilson,
	})
	require.NoError(t, err)

	require.Len(t, res.Estimates, 2)
	assert.Equal(t, "Female", res.Estimates[0].GroupLabel)
	assert.Equal(t, "Male", res.Estimates[1].GroupLabel)
	for _, e := range res.Estimates {
		assert.Equal(t, MethodWilson, e.Method)
		// Wilson bounds never leave the unit interval.
		assert.GreaterOrEqual(t, e.Lower, 0.0)
		assert.LessOrEqual(t, e.Upper, 1.0)
	}
}

func TestRunMean(t *testing.T) {
	database, id := setupDataset(t)

	res, err := Run(database, Request{
		DatasetID: id,
		Kind:      KindMean,
		Variable:  dataset.VarBMI,
		GroupBy:   dataset.VarSex,
		Level:     0.90,
	})
	require.NoError(t, err)

	require.Len(t, res.Estimates, 2)
	for _, e := range res.Estimates {
		assert.Equal(t, MethodT, e.Method)
		assert.Greater(t, e.SE, 0.0)
		assert.Less(t, e.Lower, e.Estimate)
	}
}

func TestRunCompareMeans(t *testing.T) {
	database, id := setupDataset(t)

	res, err := Run(database, Request{
		DatasetID: id,
		Kind:      KindCompare,
		Variable:  dataset.VarBMI,
		GroupBy:   dataset.VarSex,
		Groups:    []string{"Male", "Female"},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Comparison)

	require.Len(t, res.Estimates, 3)
	diff := res.Estimates[2]
	assert.Equal(t, "Male - Female", diff.GroupLabel)
	assert.InDelta(t, res.Estimates[0].Estimate-res.Estimates[1].Estimate, diff.Estimate, 1e-9)
	assert.GreaterOrEqual(t, res.Comparison.PValue, 0.0)
	assert.LessOrEqual(t, res.Comparison.PValue, 1.0)
}

func TestRunCompareProportions(t *testing.T) {
	database, id := setupDataset(t)

	res, err := Run(database, Request{
		DatasetID: id,
		Kind:      KindCompare,
		Variable:  dataset.VarSmoker,
		Groups:    []string{"Male", "Female"},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Comparison)
	require.Len(t, res.Estimates, 3)
	assert.Equal(t, MethodZ, res.Estimates[2].Method)
}

func TestRunCompareNeedsTwoGroups(t *testing.T) {
	database, id := setupDataset(t)

	_, err := Run(database, Request{
		DatasetID: id,
		Kind:      KindCompare,
		Variable:  dataset.VarBMI,
		Groups:    []string{"Male"},
	})
	require.Error(t, err)

	// No orphaned analysis rows after a failed run.
	n, err := database.CountAnalysesForDataset(id)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRunStratify(t *testing.T) {
	database, id := setupDataset(t)

	res, err := Run(database, Request{
		DatasetID: id,
		Kind:      KindStratify,
		Variable:  dataset.VarBMI,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Estimates)

	for _, e := range res.Estimates {
		assert.Contains(t, e.GroupLabel, "(")
		assert.Greater(t, e.N, int64(0))
	}
}

func TestRunStratifyBySex(t *testing.T) {
	database, id := setupDataset(t)

	res, err := Run(database, Request{
		DatasetID: id,
		Kind:      KindStratify,
		Variable:  dataset.VarSmoker,
		GroupBy:   dataset.VarSex,
	})
	require.NoError(t, err)
	for _, e := range res.Estimates {
		assert.Regexp(t, `\(\d+, \d+\] (Male|Female)`, e.GroupLabel)
	}
}

func TestRunUnknownKind(t *testing.T) {
	database, id := setupDataset(t)

	_, err := Run(database, Request{DatasetID: id, Kind: Kind("bogus")})
	require.Error(t, err)
}
