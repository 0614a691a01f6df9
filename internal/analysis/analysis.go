// Package analysis executes confidence-interval analyses over a stored
// dataset and records the resulting estimates.
package analysis

import (
	"fmt"
	"time"

	"nhanes-ci/internal/dataset"
	"nhanes-ci/internal/db"
	"nhanes-ci/internal/stats"
)

type Kind string

const (
	KindProportion Kind = "proportion"
	KindMean       Kind = "mean"
	KindCompare    Kind = "compare"
	KindStratify   Kind = "stratify"
)

// Methods for proportion intervals.
const (
	MethodWald   = "wald"
	MethodWilson = "wilson"
	MethodT      = "t"
	MethodZ      = "z"
)

// Request describes one analysis to run.
type Request struct {
	DatasetID int64
	Kind      Kind
	Variable  string
	GroupBy   string   // optional grouping variable for proportion/mean/stratify
	Groups    []string // exactly two labels for compare
	Level     float64
	Method    string // wald or wilson, proportion kinds only
	Notes     string
}

// Result is a persisted analysis with its estimates. Comparison is set for
// KindCompare only.
type Result struct {
	Analysis   db.Analysis
	Estimates  []db.Estimate
	Comparison *stats.Comparison
}

// Run loads the dataset, computes the requested estimates, persists them,
// and returns the stored rows. A failed run leaves no partial analysis
// behind.
func Run(database *db.DB, req Request) (*Result, error) {
	if req.Level == 0 {
		req.Level = 0.95
	}
	if req.Method == "" {
		req.Method = MethodWald
	}

	persons, err := database.LoadPersons(req.DatasetID)
	if err != nil {
		return nil, fmt.Errorf("load dataset %d: %w", req.DatasetID, err)
	}

	var estimates []db.Estimate
	var comparison *stats.Comparison

	switch req.Kind {
	case KindProportion:
		estimates, err = proportionEstimates(persons, req)
	case KindMean:
		estimates, err = meanEstimates(persons, req)
	case KindCompare:
		estimates, comparison, err = compareEstimates(persons, req)
	case KindStratify:
		estimates, err = stratifyEstimates(persons, req)
	default:
		err = fmt.Errorf("unknown analysis kind %q", req.Kind)
	}
	if err != nil {
		return nil, err
	}

	a := db.Analysis{
		DatasetID: req.DatasetID,
		Kind:      string(req.Kind),
		Variable:  req.Variable,
		GroupBy:   req.GroupBy,
		Level:     req.Level,
		CreatedAt: time.Now().Format(time.RFC3339),
		Notes:     req.Notes,
	}
	analysisID, err := database.InsertAnalysis(&a)
	if err != nil {
		return nil, fmt.Errorf("insert analysis: %w", err)
	}
	a.ID = analysisID
	cleanup := func() {
		_ = database.DeleteAnalysis(analysisID)
	}

	for i := range estimates {
		estimates[i].AnalysisID = analysisID
		id, err := database.InsertEstimate(&estimates[i])
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("insert estimate: %w", err)
		}
		estimates[i].ID = id
	}

	return &Result{Analysis: a, Estimates: estimates, Comparison: comparison}, nil
}

func proportionEstimates(persons []dataset.Person, req Request) ([]db.Estimate, error) {
	groups, err := resolveGroups(persons, req.GroupBy)
	if err != nil {
		return nil, err
	}

	var estimates []db.Estimate
	for _, g := range groups {
		successes, n, err := dataset.Binary(g.Persons, req.Variable)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", g.Label, err)
		}
		iv, err := proportionInterval(successes, n, req.Level, req.Method)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", g.Label, err)
		}
		estimates = append(estimates, toEstimate(g.Label, iv, req.Method))
	}
	return estimates, nil
}

func proportionInterval(successes, n int64, level float64, method string) (stats.Interval, error) {
	switch method {
	case MethodWald:
		return stats.ProportionInterval(successes, n, level)
	case MethodWilson:
		return stats.WilsonInterval(successes, n, level)
	default:
		return stats.Interval{}, fmt.Errorf("unknown interval method %q", method)
	}
}

func meanEstimates(persons []dataset.Person, req Request) ([]db.Estimate, error) {
	groups, err := resolveGroups(persons, req.GroupBy)
	if err != nil {
		return nil, err
	}

	var estimates []db.Estimate
	for _, g := range groups {
		values, err := dataset.Values(g.Persons, req.Variable)
		if err != nil {
			return nil, err
		}
		iv, err := stats.MeanIntervalOf(values, req.Level)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", g.Label, err)
		}
		estimates = append(estimates, toEstimate(g.Label, iv, MethodT))
	}
	return estimates, nil
}

func compareEstimates(persons []dataset.Person, req Request) ([]db.Estimate, *stats.Comparison, error) {
	if len(req.Groups) != 2 {
		return nil, nil, fmt.Errorf("compare needs exactly two groups, got %d", len(req.Groups))
	}
	groupBy := req.GroupBy
	if groupBy == "" {
		groupBy = dataset.VarSex
	}
	groups, err := dataset.GroupBy(persons, groupBy)
	if err != nil {
		return nil, nil, err
	}
	g1, err := dataset.FindGroup(groups, req.Groups[0])
	if err != nil {
		return nil, nil, err
	}
	g2, err := dataset.FindGroup(groups, req.Groups[1])
	if err != nil {
		return nil, nil, err
	}

	if req.Variable == dataset.VarSmoker {
		return compareProportions(g1, g2, req)
	}
	return compareMeans(g1, g2, req)
}

func compareProportions(g1, g2 dataset.Group, req Request) ([]db.Estimate, *stats.Comparison, error) {
	x1, n1, err := dataset.Binary(g1.Persons, req.Variable)
	if err != nil {
		return nil, nil, fmt.Errorf("group %s: %w", g1.Label, err)
	}
	x2, n2, err := dataset.Binary(g2.Persons, req.Variable)
	if err != nil {
		return nil, nil, fmt.Errorf("group %s: %w", g2.Label, err)
	}

	iv1, err := stats.ProportionInterval(x1, n1, req.Level)
	if err != nil {
		return nil, nil, err
	}
	iv2, err := stats.ProportionInterval(x2, n2, req.Level)
	if err != nil {
		return nil, nil, err
	}

	cmp, err := stats.CompareProportions(
		stats.GroupEstimate{Label: g1.Label, N: n1, Estimate: iv1.Estimate, SE: iv1.SE},
		stats.GroupEstimate{Label: g2.Label, N: n2, Estimate: iv2.Estimate, SE: iv2.SE},
		x1, x2, req.Level)
	if err != nil {
		return nil, nil, err
	}

	estimates := []db.Estimate{
		toEstimate(g1.Label, iv1, MethodWald),
		toEstimate(g2.Label, iv2, MethodWald),
		toEstimate(diffLabel(g1.Label, g2.Label), cmp.Diff, MethodZ),
	}
	return estimates, &cmp, nil
}

func compareMeans(g1, g2 dataset.Group, req Request) ([]db.Estimate, *stats.Comparison, error) {
	v1, err := dataset.Values(g1.Persons, req.Variable)
	if err != nil {
		return nil, nil, err
	}
	v2, err := dataset.Values(g2.Persons, req.Variable)
	if err != nil {
		return nil, nil, err
	}

	iv1, err := stats.MeanIntervalOf(v1, req.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("group %s: %w", g1.Label, err)
	}
	iv2, err := stats.MeanIntervalOf(v2, req.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("group %s: %w", g2.Label, err)
	}

	cmp, err := stats.CompareMeans(g1.Label, v1, g2.Label, v2, req.Level)
	if err != nil {
		return nil, nil, err
	}

	estimates := []db.Estimate{
		toEstimate(g1.Label, iv1, MethodT),
		toEstimate(g2.Label, iv2, MethodT),
		toEstimate(diffLabel(g1.Label, g2.Label), cmp.Diff, MethodZ),
	}
	return estimates, &cmp, nil
}

func stratifyEstimates(persons []dataset.Person, req Request) ([]db.Estimate, error) {
	bands := dataset.AgeBands(persons)

	// Optionally cross the age bands with a second grouping (typically sex).
	var estimates []db.Estimate
	for _, band := range bands {
		if len(band.Persons) == 0 {
			continue
		}

		groups := []dataset.Group{band}
		if req.GroupBy != "" {
			sub, err := dataset.GroupBy(band.Persons, req.GroupBy)
			if err != nil {
				continue // band has no valid records for the grouping
			}
			groups = groups[:0]
			for _, g := range sub {
				groups = append(groups, dataset.Group{
					Label:   band.Label + " " + g.Label,
					Persons: g.Persons,
				})
			}
		}

		for _, g := range groups {
			iv, method, err := stratumInterval(g.Persons, req)
			if err != nil {
				continue // stratum too sparse for the variable
			}
			estimates = append(estimates, toEstimate(g.Label, iv, method))
		}
	}

	if len(estimates) == 0 {
		return nil, fmt.Errorf("no stratum has valid observations for %s", req.Variable)
	}
	return estimates, nil
}

func stratumInterval(persons []dataset.Person, req Request) (stats.Interval, string, error) {
	if req.Variable == dataset.VarSmoker {
		successes, n, err := dataset.Binary(persons, req.Variable)
		if err != nil {
			return stats.Interval{}, "", err
		}
		iv, err := proportionInterval(successes, n, req.Level, req.Method)
		return iv, req.Method, err
	}

	values, err := dataset.Values(persons, req.Variable)
	if err != nil {
		return stats.Interval{}, "", err
	}
	iv, err := stats.MeanIntervalOf(values, req.Level)
	return iv, MethodT, err
}

// resolveGroups returns either the whole dataset as one group or the
// partition by the requested variable.
func resolveGroups(persons []dataset.Person, groupBy string) ([]dataset.Group, error) {
	if groupBy == "" {
		return []dataset.Group{{Label: "All", Persons: persons}}, nil
	}
	return dataset.GroupBy(persons, groupBy)
}

func toEstimate(label string, iv stats.Interval, method string) db.Estimate {
	return db.Estimate{
		GroupLabel: label,
		N:          iv.N,
		Estimate:   iv.Estimate,
		SE:         iv.SE,
		Lower:      iv.Lower,
		Upper:      iv.Upper,
		Method:     method,
	}
}

func diffLabel(l1, l2 string) string {
	return fmt.Sprintf("%s - %s", l1, l2)
}
