package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrTooFewObservations rejects mean comparisons where a group has a single
// valid observation and no degrees of freedom remain.
var ErrTooFewObservations = errors.New("fewer than two observations")

// GroupEstimate is one group's estimate entering a two-group comparison.
type GroupEstimate struct {
	Label    string
	N        int64
	Estimate float64
	SE       float64
}

// Comparison is the outcome of comparing two independent groups.
// Diff is the interval for group1 - group2.
type Comparison struct {
	Group1      GroupEstimate
	Group2      GroupEstimate
	Diff        Interval
	Stat        float64 // z for proportions, Welch t for means
	DF          float64 // 0 for the normal-approximation z test
	PValue      float64 // two-sided
	RankPValue  float64 // Mann-Whitney p for means, 0 for proportions
	Significant bool    // PValue < 1 - level
}

// CompareProportions compares two independent proportions. The difference
// interval uses SE_diff = sqrt(SE1²+SE2²); the significance test is the
// two-sided pooled z test.
func CompareProportions(g1, g2 GroupEstimate, x1, x2 int64, level float64) (Comparison, error) {
	if level <= 0 || level >= 1 {
		return Comparison{}, ErrBadLevel
	}
	if g1.N < 1 || g2.N < 1 {
		return Comparison{}, ErrNoData
	}

	diff := DiffInterval(g1.Estimate, g1.SE, g1.N, g2.Estimate, g2.SE, g2.N, level)

	// Pooled SE under H0: p1 == p2.
	pooled := float64(x1+x2) / float64(g1.N+g2.N)
	seP := math.Sqrt(pooled * (1 - pooled) * (1/float64(g1.N) + 1/float64(g2.N)))

	var z, p float64
	if seP > 0 {
		z = (g1.Estimate - g2.Estimate) / seP
		p = 2 * distuv.UnitNormal.CDF(-math.Abs(z))
	} else {
		p = 1
	}

	return Comparison{
		Group1:      g1,
		Group2:      g2,
		Diff:        diff,
		Stat:        z,
		PValue:      p,
		Significant: p < 1-level,
	}, nil
}

// CompareMeans compares two independent samples with the unpooled (Welch)
// t test. NaN entries are dropped before computation.
func CompareMeans(label1 string, a []float64, label2 string, b []float64, level float64) (Comparison, error) {
	if level <= 0 || level >= 1 {
		return Comparison{}, ErrBadLevel
	}

	s1, err := Describe(a)
	if err != nil {
		return Comparison{}, err
	}
	s2, err := Describe(b)
	if err != nil {
		return Comparison{}, err
	}
	// Welch df needs at least two observations per group.
	if s1.N < 2 {
		return Comparison{}, fmt.Errorf("group %s: %w", label1, ErrTooFewObservations)
	}
	if s2.N < 2 {
		return Comparison{}, fmt.Errorf("group %s: %w", label2, ErrTooFewObservations)
	}

	g1 := GroupEstimate{Label: label1, N: s1.N, Estimate: s1.Mean, SE: s1.SE}
	g2 := GroupEstimate{Label: label2, N: s2.N, Estimate: s2.Mean, SE: s2.SE}

	diff := DiffInterval(g1.Estimate, g1.SE, g1.N, g2.Estimate, g2.SE, g2.N, level)

	se := diff.SE
	var t, df, p float64
	if se > 0 {
		t = (g1.Estimate - g2.Estimate) / se
		df = welchDF(s1, s2)
		dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
		p = 2 * dist.CDF(-math.Abs(t))
	} else {
		p = 1
	}

	return Comparison{
		Group1:      g1,
		Group2:      g2,
		Diff:        diff,
		Stat:        t,
		DF:          df,
		PValue:      p,
		RankPValue:  MannWhitneyU(a, b),
		Significant: p < 1-level,
	}, nil
}

// welchDF is the Welch-Satterthwaite degrees of freedom approximation.
func welchDF(s1, s2 Summary) float64 {
	v1 := s1.SE * s1.SE
	v2 := s2.SE * s2.SE
	num := (v1 + v2) * (v1 + v2)
	den := v1*v1/float64(s1.N-1) + v2*v2/float64(s2.N-1)
	if den == 0 {
		return 1
	}
	df := num / den
	if df < 1 {
		df = 1
	}
	return df
}

// MannWhitneyU runs a two-sided Mann-Whitney U test with the normal
// approximation and returns the p-value. Ties receive averaged ranks.
func MannWhitneyU(a, b []float64) float64 {
	a = DropMissing(a)
	b = DropMissing(b)
	if len(a) == 0 || len(b) == 0 {
		return 1
	}

	n1 := len(a)
	n2 := len(b)

	type rankItem struct {
		value float64
		first bool
	}
	combined := make([]rankItem, 0, n1+n2)
	for _, v := range a {
		combined = append(combined, rankItem{v, true})
	}
	for _, v := range b {
		combined = append(combined, rankItem{v, false})
	}
	sort.Slice(combined, func(i, j int) bool { return combined[i].value < combined[j].value })

	ranks := make([]float64, len(combined))
	for i := 0; i < len(combined); {
		j := i
		for j < len(combined) && combined[j].value == combined[i].value {
			j++
		}
		avgRank := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[k] = avgRank
		}
		i = j
	}

	rankSum := 0.0
	for i, item := range combined {
		if item.first {
			rankSum += ranks[i]
		}
	}

	u1 := rankSum - float64(n1*(n1+1))/2
	u2 := float64(n1*n2) - u1
	u := math.Min(u1, u2)

	meanU := float64(n1*n2) / 2
	stdU := math.Sqrt(float64(n1*n2*(n1+n2+1)) / 12)
	if stdU == 0 {
		return 1
	}

	z := (u - meanU) / stdU
	return 2 * distuv.UnitNormal.CDF(-math.Abs(z))
}
