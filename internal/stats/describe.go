package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary holds descriptive statistics for one numeric variable.
type Summary struct {
	N       int64
	Missing int64
	Mean    float64
	StdDev  float64
	SE      float64
	Min     float64
	Q1      float64
	Median  float64
	Q3      float64
	Max     float64
}

// Describe computes a descriptive summary over values, skipping NaN entries.
// Returns ErrNoData when no non-missing observation remains.
func Describe(values []float64) (Summary, error) {
	clean := DropMissing(values)
	if len(clean) == 0 {
		return Summary{}, ErrNoData
	}

	sorted := make([]float64, len(clean))
	copy(sorted, clean)
	sort.Float64s(sorted)

	n := len(sorted)
	mean := stat.Mean(sorted, nil)

	sd := 0.0
	if n >= 2 {
		sd = stat.StdDev(sorted, nil)
	}

	se := 0.0
	if sd > 0 {
		se = sd / math.Sqrt(float64(n))
	}

	return Summary{
		N:       int64(n),
		Missing: int64(len(values) - n),
		Mean:    mean,
		StdDev:  sd,
		SE:      se,
		Min:     sorted[0],
		Q1:      stat.Quantile(0.25, stat.LinInterp, sorted, nil),
		Median:  stat.Quantile(0.50, stat.LinInterp, sorted, nil),
		Q3:      stat.Quantile(0.75, stat.LinInterp, sorted, nil),
		Max:     sorted[n-1],
	}, nil
}

// MeanIntervalOf is a convenience wrapper computing the t-based mean interval
// directly from raw values, skipping NaN entries.
func MeanIntervalOf(values []float64, level float64) (Interval, error) {
	s, err := Describe(values)
	if err != nil {
		return Interval{}, err
	}
	return MeanInterval(s.Mean, s.StdDev, s.N, level)
}

// DropMissing returns values with NaN entries removed.
func DropMissing(values []float64) []float64 {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	return clean
}
