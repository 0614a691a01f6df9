// Package export writes stored estimates to CSV for downstream plotting.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"nhanes-ci/internal/db"
	"nhanes-ci/internal/simulate"
)

// EstimatesToCSV exports the estimates of one analysis with enough context
// columns to be self describing.
func EstimatesToCSV(w io.Writer, a db.Analysis, estimates []db.Estimate) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"AnalysisID", "Kind", "Variable", "Level", "Group", "N", "Estimate", "SE", "Lower", "Upper", "Method"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, e := range estimates {
		row := []string{
			fmt.Sprintf("%d", a.ID),
			a.Kind,
			a.Variable,
			fmt.Sprintf("%.2f", a.Level),
			e.GroupLabel,
			fmt.Sprintf("%d", e.N),
			fmt.Sprintf("%.6f", e.Estimate),
			fmt.Sprintf("%.6f", e.SE),
			fmt.Sprintf("%.6f", e.Lower),
			fmt.Sprintf("%.6f", e.Upper),
			e.Method,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush CSV: %w", err)
	}
	return nil
}

// SimulationToCSV exports a width-vs-n sweep, one row per subsample size.
func SimulationToCSV(w io.Writer, res *simulate.Result) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"Variable", "Level", "Size", "Draws", "MeanWidth", "MeanSE", "Coverage"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, sr := range res.Sizes {
		row := []string{
			res.Variable,
			fmt.Sprintf("%.2f", res.Level),
			fmt.Sprintf("%d", sr.Size),
			fmt.Sprintf("%d", sr.Draws),
			fmt.Sprintf("%.6f", sr.MeanWidth),
			fmt.Sprintf("%.6f", sr.MeanSE),
			fmt.Sprintf("%.4f", sr.Coverage),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush CSV: %w", err)
	}
	return nil
}

// EstimatesToFile is the path-taking convenience used by the CLI.
func EstimatesToFile(path string, a db.Analysis, estimates []db.Estimate) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()
	return EstimatesToCSV(file, a, estimates)
}
