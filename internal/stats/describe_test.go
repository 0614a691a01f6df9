package stats

import (
	"errors"
	"math"
	"testing"
)

func TestDescribe(t *testing.T) {
	t.Run("basic summary", func(t *testing.T) {
		s, err := Describe([]float64{40, 10, 30, 20})
		if err != nil {
			t.Fatal(err)
		}
		if s.N != 4 || s.Missing != 0 {
			t.Fatalf("unexpected counts: %+v", s)
		}
		if s.Min != 10 || s.Max != 40 {
			t.Fatalf("unexpected min/max: %+v", s)
		}
		if !almostEqual(s.Mean, 25, 1e-9) {
			t.Fatalf("expected mean 25, got %f", s.Mean)
		}
		if !almostEqual(s.Median, 25, 1e-9) {
			t.Fatalf("expected median 25, got %f", s.Median)
		}
		// Sample sd of {10,20,30,40} is sqrt(500/3).
		if !almostEqual(s.StdDev, math.Sqrt(500.0/3.0), 1e-9) {
			t.Fatalf("unexpected sd %f", s.StdDev)
		}
		if !almostEqual(s.SE, s.StdDev/2, 1e-9) {
			t.Fatalf("unexpected se %f", s.SE)
		}
	})

	t.Run("skips missing values", func(t *testing.T) {
		s, err := Describe([]float64{1, math.NaN(), 3, math.NaN()})
		if err != nil {
			t.Fatal(err)
		}
		if s.N != 2 || s.Missing != 2 {
			t.Fatalf("unexpected counts: %+v", s)
		}
		if !almostEqual(s.Mean, 2, 1e-9) {
			t.Fatalf("expected mean 2, got %f", s.Mean)
		}
	})

	t.Run("errors on all-missing input", func(t *testing.T) {
		if _, err := Describe([]float64{math.NaN()}); !errors.Is(err, ErrNoData) {
			t.Fatalf("expected ErrNoData, got %v", err)
		}
		if _, err := Describe(nil); !errors.Is(err, ErrNoData) {
			t.Fatalf("expected ErrNoData, got %v", err)
		}
	})
}

func TestMeanIntervalOf(t *testing.T) {
	values := []float64{12, 14, 16, 18, 20}
	iv, err := MeanIntervalOf(values, 0.95)
	if err != nil {
		t.Fatal(err)
	}

	s, err := Describe(values)
	if err != nil {
		t.Fatal(err)
	}
	want, err := MeanInterval(s.Mean, s.StdDev, s.N, 0.95)
	if err != nil {
		t.Fatal(err)
	}
	if iv != want {
		t.Fatalf("expected %+v, got %+v", want, iv)
	}
}
