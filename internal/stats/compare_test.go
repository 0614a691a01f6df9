package stats

import (
	"errors"
	"math"
	"testing"
)

func TestCompareProportions(t *testing.T) {
	t.Run("difference interval uses combined SE", func(t *testing.T) {
		// Group 1: 30/100 smokers, group 2: 20/100.
		iv1, _ := ProportionInterval(30, 100, 0.95)
		iv2, _ := ProportionInterval(20, 100, 0.95)
		g1 := GroupEstimate{Label: "Female", N: 100, Estimate: iv1.Estimate, SE: iv1.SE}
		g2 := GroupEstimate{Label: "Male", N: 100, Estimate: iv2.Estimate, SE: iv2.SE}

		cmp, err := CompareProportions(g1, g2, 30, 20, 0.95)
		if err != nil {
			t.Fatal(err)
		}
		if !almostEqual(cmp.Diff.Estimate, 0.1, 1e-9) {
			t.Fatalf("expected diff 0.1, got %f", cmp.Diff.Estimate)
		}
		wantSE := math.Sqrt(iv1.SE*iv1.SE + iv2.SE*iv2.SE)
		if !almostEqual(cmp.Diff.SE, wantSE, 1e-9) {
			t.Fatalf("expected se %f, got %f", wantSE, cmp.Diff.SE)
		}
		if cmp.PValue <= 0 || cmp.PValue >= 1 {
			t.Fatalf("p-value out of range: %f", cmp.PValue)
		}
	})

	t.Run("identical groups are not significant", func(t *testing.T) {
		iv, _ := ProportionInterval(25, 100, 0.95)
		g := GroupEstimate{N: 100, Estimate: iv.Estimate, SE: iv.SE}

		cmp, err := CompareProportions(g, g, 25, 25, 0.95)
		if err != nil {
			t.Fatal(err)
		}
		if cmp.Significant {
			t.Fatalf("identical groups flagged significant: %+v", cmp)
		}
		if !almostEqual(cmp.PValue, 1, 1e-9) {
			t.Fatalf("expected p=1, got %f", cmp.PValue)
		}
	})

	t.Run("rejects empty groups", func(t *testing.T) {
		_, err := CompareProportions(GroupEstimate{N: 0}, GroupEstimate{N: 10}, 0, 5, 0.95)
		if !errors.Is(err, ErrNoData) {
			t.Fatalf("expected ErrNoData, got %v", err)
		}
	})
}

func TestCompareMeans(t *testing.T) {
	t.Run("detects a clear shift", func(t *testing.T) {
		a := []float64{28, 29, 30, 31, 32, 30, 29, 31}
		b := []float64{22, 23, 24, 25, 26, 24, 23, 25}

		cmp, err := CompareMeans("a", a, "b", b, 0.95)
		if err != nil {
			t.Fatal(err)
		}
		if cmp.Diff.Estimate <= 0 {
			t.Fatalf("expected positive difference, got %f", cmp.Diff.Estimate)
		}
		if !cmp.Significant {
			t.Fatalf("expected significant difference, got p=%f", cmp.PValue)
		}
		if cmp.DF < 1 {
			t.Fatalf("unexpected welch df %f", cmp.DF)
		}
	})

	t.Run("overlapping groups are not significant", func(t *testing.T) {
		a := []float64{10, 20, 30, 40}
		b := []float64{15, 25, 35, 45}

		cmp, err := CompareMeans("a", a, "b", b, 0.95)
		if err != nil {
			t.Fatal(err)
		}
		if cmp.Significant {
			t.Fatalf("expected no significance, got p=%f", cmp.PValue)
		}
		if !cmp.Diff.Contains(0) {
			t.Fatalf("expected interval to contain 0, got [%f, %f]", cmp.Diff.Lower, cmp.Diff.Upper)
		}
	})

	t.Run("rejects single-observation groups", func(t *testing.T) {
		_, err := CompareMeans("a", []float64{30}, "b", []float64{22, 23, 24, 25, 26}, 0.95)
		if !errors.Is(err, ErrTooFewObservations) {
			t.Fatalf("expected ErrTooFewObservations, got %v", err)
		}
		_, err = CompareMeans("a", []float64{22, 23, 24, 25, 26}, "b", []float64{30}, 0.95)
		if !errors.Is(err, ErrTooFewObservations) {
			t.Fatalf("expected ErrTooFewObservations, got %v", err)
		}
	})

	t.Run("drops missing values", func(t *testing.T) {
		a := []float64{1, 2, 3, math.NaN()}
		b := []float64{math.NaN(), 2, 3, 4}

		cmp, err := CompareMeans("a", a, "b", b, 0.95)
		if err != nil {
			t.Fatal(err)
		}
		if cmp.Group1.N != 3 || cmp.Group2.N != 3 {
			t.Fatalf("expected n=3 per group, got %d and %d", cmp.Group1.N, cmp.Group2.N)
		}
	})
}

func TestMannWhitneyU(t *testing.T) {
	t.Run("disjoint groups give small p", func(t *testing.T) {
		a := []float64{1, 2, 3, 4, 5, 6, 7, 8}
		b := []float64{11, 12, 13, 14, 15, 16, 17, 18}
		if p := MannWhitneyU(a, b); p >= 0.05 {
			t.Fatalf("expected p < 0.05, got %f", p)
		}
	})

	t.Run("identical groups give p near 1", func(t *testing.T) {
		a := []float64{1, 2, 3, 4}
		if p := MannWhitneyU(a, a); p < 0.5 {
			t.Fatalf("expected large p, got %f", p)
		}
	})

	t.Run("empty group gives p of 1", func(t *testing.T) {
		if p := MannWhitneyU(nil, []float64{1, 2}); p != 1 {
			t.Fatalf("expected p=1, got %f", p)
		}
	})
}
