package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"nhanes-ci/internal/analysis"
	"nhanes-ci/internal/dataset"
	"nhanes-ci/internal/db"
	"nhanes-ci/internal/dbg"
	"nhanes-ci/internal/export"
	"nhanes-ci/internal/render"
	"nhanes-ci/internal/simulate"
	"nhanes-ci/internal/stats"
	"nhanes-ci/internal/web"
)

var (
	dbPath  string
	level   float64
	verbose bool
)

func defaultDBPath() string {
	if env := os.Getenv("NHANES_DB"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "nhanes.db"
	}
	return filepath.Join(home, ".local/share/nhanes-ci", "nhanes.db")
}

func defaultLevel() float64 {
	if env := os.Getenv("NHANES_LEVEL"); env != "" {
		if v, err := strconv.ParseFloat(env, 64); err == nil {
			return v
		}
	}
	return 0.95
}

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "nhanes",
		Short: "Confidence intervals over NHANES survey data",
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath(), "database path")
	rootCmd.PersistentFlags().Float64Var(&level, "level", defaultLevel(), "confidence level")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(describeCmd())
	rootCmd.AddCommand(proportionCmd())
	rootCmd.AddCommand(meanCmd())
	rootCmd.AddCommand(compareCmd())
	rootCmd.AddCommand(stratifyCmd())
	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(plotCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func importCmd() *cobra.Command {
	var tag, label string

	cmd := &cobra.Command{
		Use:   "import [csv_path]",
		Short: "Import an NHANES CSV extract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			persons, err := dataset.LoadFile(args[0])
			if err != nil {
				return err
			}

			database, err := db.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() {
				if err := database.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Error closing database: %v\n", err)
				}
			}()

			if tag == "" {
				tag = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			// Tags are unique. Re-importing under a taken tag gets a
			// generated suffix instead of failing.
			if _, err := database.GetDatasetByRef(tag); err == nil {
				tag = tag + "-" + uuid.NewString()[:8]
			}

			id, err := database.InsertDataset(&db.Dataset{
				Tag:        tag,
				Source:     args[0],
				Label:      label,
				ImportedAt: time.Now().Format(time.RFC3339),
				RowCount:   int64(len(persons)),
			})
			if err != nil {
				return err
			}
			if err := database.InsertPersons(id, persons); err != nil {
				return err
			}

			color.Green("Imported dataset #%d (%d rows)", id, len(persons))
			return nil
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "dataset tag (default: file name)")
	cmd.Flags().StringVar(&label, "label", "", "optional description")

	return cmd
}

func listCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List imported datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() {
				if err := database.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Error closing database: %v\n", err)
				}
			}()

			datasets, err := database.ListDatasets(limit)
			if err != nil {
				return err
			}

			if len(datasets) == 0 {
				fmt.Println("No datasets found")
				return nil
			}

			cyan := color.New(color.FgCyan)
			dim := color.New(color.Faint)

			_, _ = cyan.Printf("%-6s %-16s %-8s %-20s %s\n", "ID", "Tag", "Rows", "Imported", "Label")
			_, _ = dim.Println(strings.Repeat("-", 70))

			for _, ds := range datasets {
				count, err := database.CountAnalysesForDataset(ds.ID)
				if err != nil {
					return err
				}
				date := ds.ImportedAt
				if len(date) > 19 {
					date = date[:19]
				}
				fmt.Printf("%-6d %-16s %-8d %-20s %s (%d analyses)\n",
					ds.ID, ds.Tag, ds.RowCount, date, ds.Label, count)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "max datasets to show")

	return cmd
}

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [dataset_id or tag]",
		Short: "Show a dataset and its analyses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() {
				if err := database.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Error closing database: %v\n", err)
				}
			}()

			ds, err := database.GetDatasetByRef(args[0])
			if err != nil {
				return fmt.Errorf("dataset not found: %w", err)
			}

			cyan := color.New(color.FgCyan)
			dim := color.New(color.Faint)

			_, _ = cyan.Printf("Dataset #%d\n", ds.ID)
			_, _ = dim.Println(strings.Repeat("-", 50))
			fmt.Printf("Tag:      %s\n", ds.Tag)
			fmt.Printf("Source:   %s\n", ds.Source)
			fmt.Printf("Rows:     %d\n", ds.RowCount)
			fmt.Printf("Imported: %s\n", ds.ImportedAt)
			if ds.Label != "" {
				fmt.Printf("Label:    %s\n", ds.Label)
			}
			fmt.Println()

			analyses, err := database.ListAnalyses(ds.ID, 50)
			if err != nil {
				return err
			}
			if len(analyses) == 0 {
				fmt.Println("No analyses recorded")
				return nil
			}

			_, _ = cyan.Printf("%-6s %-12s %-10s %-10s %-6s %s\n", "ID", "Kind", "Variable", "Group by", "Level", "Created")
			_, _ = dim.Println(strings.Repeat("-", 70))
			for _, a := range analyses {
				date := a.CreatedAt
				if len(date) > 19 {
					date = date[:19]
				}
				fmt.Printf("%-6d %-12s %-10s %-10s %-6.2f %s\n",
					a.ID, a.Kind, a.Variable, a.GroupBy, a.Level, date)
			}

			return nil
		},
	}

	return cmd
}

func describeCmd() *cobra.Command {
	var by string

	cmd := &cobra.Command{
		Use:   "describe [dataset] [variable]",
		Short: "Descriptive summary of a numeric variable",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() {
				if err := database.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Error closing database: %v\n", err)
				}
			}()

			ds, err := database.GetDatasetByRef(args[0])
			if err != nil {
				return fmt.Errorf("dataset not found: %w", err)
			}
			persons, err := database.LoadPersons(ds.ID)
			if err != nil {
				return err
			}

			groups := []dataset.Group{{Label: args[1], Persons: persons}}
			if by != "" {
				groups, err = dataset.GroupBy(persons, by)
				if err != nil {
					return err
				}
			}

			for i, g := range groups {
				if i > 0 {
					fmt.Println()
				}
				if err := printSummary(g, args[1], ds.ID); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", "", "summarize per group (e.g. RIAGENDR)")

	return cmd
}

func printSummary(g dataset.Group, variable string, datasetID int64) error {
	values, err := dataset.Values(g.Persons, variable)
	if err != nil {
		return err
	}
	s, err := stats.Describe(values)
	if err != nil {
		return fmt.Errorf("group %s: %w", g.Label, err)
	}

	cyan := color.New(color.FgCyan)
	dim := color.New(color.Faint)

	_, _ = cyan.Printf("%s (dataset #%d)\n", g.Label, datasetID)
	_, _ = dim.Println(strings.Repeat("-", 40))
	fmt.Printf("n:       %d (%d missing)\n", s.N, s.Missing)
	fmt.Printf("mean:    %.4f\n", s.Mean)
	fmt.Printf("std dev: %.4f\n", s.StdDev)
	fmt.Printf("se:      %.4f\n", s.SE)
	fmt.Printf("min:     %.4f\n", s.Min)
	fmt.Printf("q1:      %.4f\n", s.Q1)
	fmt.Printf("median:  %.4f\n", s.Median)
	fmt.Printf("q3:      %.4f\n", s.Q3)
	fmt.Printf("max:     %.4f\n", s.Max)

	iv, err := stats.MeanInterval(s.Mean, s.StdDev, s.N, level)
	if err == nil {
		fmt.Printf("\n%.0f%% CI for the mean: [%.4f, %.4f]\n", level*100, iv.Lower, iv.Upper)
	}
	return nil
}

func proportionCmd() *cobra.Command {
	var variable, by, method string

	cmd := &cobra.Command{
		Use:   "proportion [dataset]",
		Short: "Confidence interval for a population proportion",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysisCmd(firstArg(args), analysis.Request{
				Kind:     analysis.KindProportion,
				Variable: variable,
				GroupBy:  by,
				Method:   method,
			})
		},
	}

	cmd.Flags().StringVar(&variable, "variable", dataset.VarSmoker, "binary variable")
	cmd.Flags().StringVar(&by, "by", "", "grouping variable (e.g. RIAGENDR)")
	cmd.Flags().StringVar(&method, "method", analysis.MethodWald, "interval method (wald, wilson)")

	return cmd
}

func meanCmd() *cobra.Command {
	var variable, by string

	cmd := &cobra.Command{
		Use:   "mean [dataset]",
		Short: "Confidence interval for a population mean",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysisCmd(firstArg(args), analysis.Request{
				Kind:     analysis.KindMean,
				Variable: variable,
				GroupBy:  by,
			})
		},
	}

	cmd.Flags().StringVar(&variable, "variable", dataset.VarBMI, "numeric variable")
	cmd.Flags().StringVar(&by, "by", "", "grouping variable (e.g. RIAGENDR)")

	return cmd
}

func compareCmd() *cobra.Command {
	var variable, by, groups string

	cmd := &cobra.Command{
		Use:   "compare [dataset]",
		Short: "Compare two groups with a difference interval and test",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysisCmd(firstArg(args), analysis.Request{
				Kind:     analysis.KindCompare,
				Variable: variable,
				GroupBy:  by,
				Groups:   strings.Split(groups, ","),
			})
		},
	}

	cmd.Flags().StringVar(&variable, "variable", dataset.VarBMI, "variable to compare")
	cmd.Flags().StringVar(&by, "by", dataset.VarSex, "grouping variable")
	cmd.Flags().StringVar(&groups, "groups", "Male,Female", "two group labels, comma separated")

	return cmd
}

func stratifyCmd() *cobra.Command {
	var variable, by, method string

	cmd := &cobra.Command{
		Use:   "stratify [dataset]",
		Short: "Intervals per ten-year age band",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysisCmd(firstArg(args), analysis.Request{
				Kind:     analysis.KindStratify,
				Variable: variable,
				GroupBy:  by,
				Method:   method,
			})
		},
	}

	cmd.Flags().StringVar(&variable, "variable", dataset.VarBMI, "variable to stratify")
	cmd.Flags().StringVar(&by, "by", "", "cross age bands with a second variable")
	cmd.Flags().StringVar(&method, "method", analysis.MethodWald, "interval method for proportions")

	return cmd
}

// runAnalysisCmd handles the shared open/run/print flow of the four
// estimate commands.
func runAnalysisCmd(datasetRef string, req analysis.Request) error {
	database, err := db.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing database: %v\n", err)
		}
	}()

	var ds *db.Dataset
	if datasetRef == "" {
		ds, err = database.GetLatestDataset()
		if err != nil {
			return fmt.Errorf("no datasets imported: %w", err)
		}
	} else {
		ds, err = database.GetDatasetByRef(datasetRef)
		if err != nil {
			return fmt.Errorf("dataset not found: %w", err)
		}
	}
	req.DatasetID = ds.ID
	req.Level = level

	res, err := analysis.Run(database, req)
	if err != nil {
		return err
	}

	printEstimates(res)
	color.Green("\nRecorded analysis #%d", res.Analysis.ID)
	return nil
}

func printEstimates(res *analysis.Result) {
	cyan := color.New(color.FgCyan)
	dim := color.New(color.Faint)

	a := res.Analysis
	_, _ = cyan.Printf("%s of %s, %.0f%% intervals\n", a.Kind, a.Variable, a.Level*100)
	_, _ = dim.Println(strings.Repeat("-", 78))

	maxLabelLen := 5
	for _, e := range res.Estimates {
		if len(e.GroupLabel) > maxLabelLen {
			maxLabelLen = len(e.GroupLabel)
		}
	}

	_, _ = cyan.Printf("%-*s %8s %10s %10s %10s %10s %8s\n",
		maxLabelLen, "Group", "n", "Estimate", "SE", "Lower", "Upper", "Method")
	_, _ = dim.Println(strings.Repeat("-", maxLabelLen+60))

	for _, e := range res.Estimates {
		fmt.Printf("%-*s %8d %10.4f %10.4f %10.4f %10.4f %8s\n",
			maxLabelLen, e.GroupLabel, e.N, e.Estimate, e.SE, e.Lower, e.Upper, e.Method)
	}

	if cmp := res.Comparison; cmp != nil {
		fmt.Println()
		fmt.Printf("test statistic: %.4f", cmp.Stat)
		if cmp.DF > 0 {
			fmt.Printf(" (df %.1f)", cmp.DF)
		}
		fmt.Printf(", p-value: %.4g\n", cmp.PValue)
		if cmp.RankPValue > 0 {
			fmt.Printf("Mann-Whitney p-value: %.4g\n", cmp.RankPValue)
		}
		if cmp.Significant {
			color.Yellow("Difference is significant at the %.0f%% level", a.Level*100)
		} else {
			fmt.Printf("Difference is not significant at the %.0f%% level\n", a.Level*100)
		}
	}
}

func simulateCmd() *cobra.Command {
	var variable, sizesStr, outFile, svgFile string
	var draws int
	var seed int64

	cmd := &cobra.Command{
		Use:   "simulate [dataset]",
		Short: "Show interval width shrinking with sample size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() {
				if err := database.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Error closing database: %v\n", err)
				}
			}()

			ds, err := database.GetDatasetByRef(args[0])
			if err != nil {
				return fmt.Errorf("dataset not found: %w", err)
			}
			persons, err := database.LoadPersons(ds.ID)
			if err != nil {
				return err
			}

			var sizes []int
			if sizesStr != "" {
				for _, s := range strings.Split(sizesStr, ",") {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil {
						return fmt.Errorf("invalid size %q", s)
					}
					sizes = append(sizes, n)
				}
			}

			logger := dbg.NewLogger(verbose)
			defer func() { _ = logger.Sync() }()

			res, err := simulate.Run(persons, simulate.Config{
				Variable: variable,
				Sizes:    sizes,
				Draws:    draws,
				Seed:     seed,
				Level:    level,
			}, logger)
			if err != nil {
				return err
			}

			cyan := color.New(color.FgCyan)
			dim := color.New(color.Faint)

			_, _ = cyan.Printf("%s, %.0f%% intervals, %d draws per size\n", res.Variable, res.Level*100, draws)
			_, _ = dim.Printf("full sample: n=%d, estimate=%.4f, width=%.4f\n\n",
				res.Reference.N, res.Reference.Estimate, res.Reference.Width())

			_, _ = cyan.Printf("%8s %12s %12s %10s %s\n", "n", "Mean width", "Mean SE", "Coverage", "Width")
			_, _ = dim.Println(strings.Repeat("-", 70))

			maxWidth := res.Sizes[0].MeanWidth
			for _, sr := range res.Sizes {
				barLen := 0
				if maxWidth > 0 {
					barLen = int(sr.MeanWidth / maxWidth * 20)
				}
				if barLen > 20 {
					barLen = 20
				}
				bar := strings.Repeat("█", barLen) + strings.Repeat("░", 20-barLen)
				fmt.Printf("%8d %12.4f %12.4f %9.1f%% %s\n",
					sr.Size, sr.MeanWidth, sr.MeanSE, sr.Coverage*100, bar)
			}

			if outFile != "" {
				f, err := os.Create(outFile)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := export.SimulationToCSV(f, res); err != nil {
					return err
				}
				color.Green("\nWrote %s", outFile)
			}

			if svgFile != "" {
				ns := make([]int, 0, len(res.Sizes))
				widths := make([]float64, 0, len(res.Sizes))
				for _, sr := range res.Sizes {
					ns = append(ns, sr.Size)
					widths = append(widths, sr.MeanWidth)
				}
				title := fmt.Sprintf("%s, %.0f%% interval width by sample size", res.Variable, res.Level*100)
				svg := render.WidthCurve(title, ns, widths)
				if err := os.WriteFile(svgFile, svg, 0o644); err != nil {
					return fmt.Errorf("write file: %w", err)
				}
				color.Green("Wrote %s (%d bytes)", svgFile, len(svg))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&variable, "variable", dataset.VarBMI, "variable to subsample")
	cmd.Flags().StringVar(&sizesStr, "sizes", "", "comma separated subsample sizes (default 50..1600)")
	cmd.Flags().IntVar(&draws, "draws", 100, "draws per size")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = derived)")
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "write sweep as CSV")
	cmd.Flags().StringVar(&svgFile, "svg", "", "write width curve as SVG")

	return cmd
}

func exportCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "export [analysis_id]",
		Short: "Export the estimates of an analysis as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() {
				if err := database.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Error closing database: %v\n", err)
				}
			}()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid analysis ID: %w", err)
			}
			a, err := database.GetAnalysis(id)
			if err != nil {
				return fmt.Errorf("analysis not found: %w", err)
			}
			estimates, err := database.GetEstimatesForAnalysis(id)
			if err != nil {
				return err
			}

			if outFile == "" {
				return export.EstimatesToCSV(os.Stdout, *a, estimates)
			}
			if err := export.EstimatesToFile(outFile, *a, estimates); err != nil {
				return err
			}
			color.Green("Wrote %s (%d estimates)", outFile, len(estimates))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default: stdout)")

	return cmd
}

func plotCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "plot [analysis_id]",
		Short: "Render an analysis as an SVG forest plot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() {
				if err := database.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Error closing database: %v\n", err)
				}
			}()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid analysis ID: %w", err)
			}
			a, err := database.GetAnalysis(id)
			if err != nil {
				return fmt.Errorf("analysis not found: %w", err)
			}
			estimates, err := database.GetEstimatesForAnalysis(id)
			if err != nil {
				return err
			}

			points := make([]render.Point, 0, len(estimates))
			for _, e := range estimates {
				points = append(points, render.Point{
					Label:    e.GroupLabel,
					Estimate: e.Estimate,
					Lower:    e.Lower,
					Upper:    e.Upper,
				})
			}
			title := fmt.Sprintf("%s of %s (%.0f%% CI)", a.Kind, a.Variable, a.Level*100)
			svg := render.ForestPlot(title, points)

			if outFile != "" {
				if err := os.WriteFile(outFile, svg, 0o644); err != nil {
					return fmt.Errorf("write file: %w", err)
				}
				color.Green("Wrote %s (%d bytes)", outFile, len(svg))
				return nil
			}

			_, _ = os.Stdout.Write(svg)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default: stdout)")

	return cmd
}

func deleteCmd() *cobra.Command {
	var analysisID int64

	cmd := &cobra.Command{
		Use:   "delete [dataset_id]",
		Short: "Delete a dataset or a single analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() {
				if err := database.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Error closing database: %v\n", err)
				}
			}()

			if analysisID > 0 {
				if err := database.DeleteAnalysis(analysisID); err != nil {
					return err
				}
				color.Green("Deleted analysis #%d", analysisID)
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("specify dataset_id or --analysis")
			}

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid dataset ID: %w", err)
			}
			if err := database.DeleteDataset(id); err != nil {
				return err
			}

			color.Green("Deleted dataset #%d", id)
			return nil
		},
	}

	cmd.Flags().Int64Var(&analysisID, "analysis", 0, "delete one analysis instead")

	return cmd
}

func serveCmd() *cobra.Command {
	var port int
	var open bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web UI server",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() {
				if err := database.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Error closing database: %v\n", err)
				}
			}()

			logger := dbg.NewLogger(verbose)
			defer func() { _ = logger.Sync() }()

			addr := fmt.Sprintf(":%d", port)
			server := web.NewServer(database, addr, logger)
			return server.Start(open)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on")
	cmd.Flags().BoolVar(&open, "open", false, "open browser automatically")

	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
