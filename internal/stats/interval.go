package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Interval is a two-sided confidence interval around a point estimate.
type Interval struct {
	Estimate float64
	SE       float64
	Lower    float64
	Upper    float64
	Level    float64
	N        int64
}

// Width returns the total width of the interval.
func (iv Interval) Width() float64 {
	return iv.Upper - iv.Lower
}

// Contains reports whether v lies inside the interval.
func (iv Interval) Contains(v float64) bool {
	return v >= iv.Lower && v <= iv.Upper
}

var (
	ErrNoData   = errors.New("no observations")
	ErrBadLevel = errors.New("confidence level must be in (0, 1)")
	ErrBadCount = errors.New("success count exceeds sample size")
)

// ZCritical returns the two-sided standard normal critical value for the
// given confidence level, e.g. 1.96 for 0.95.
func ZCritical(level float64) float64 {
	return distuv.UnitNormal.Quantile(1 - (1-level)/2)
}

// TCritical returns the two-sided Student's t critical value for df degrees
// of freedom. Falls back to the normal value for large df, where the two
// are indistinguishable at the precision reported here.
func TCritical(df int64, level float64) float64 {
	if df < 1 {
		df = 1
	}
	if df >= 200 {
		return ZCritical(level)
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	return t.Quantile(1 - (1-level)/2)
}

// MeanInterval computes a t-based confidence interval for a population mean
// from the sample mean, sample standard deviation, and sample size.
// SE = sd/sqrt(n). With fewer than two observations or zero spread the
// interval degenerates to the point estimate.
//
// The lower bound clamps at zero: every measure this tool handles
// (height, weight, BMI, age) is non-negative.
func MeanInterval(mean, sd float64, n int64, level float64) (Interval, error) {
	if level <= 0 || level >= 1 {
		return Interval{}, ErrBadLevel
	}
	if n < 1 {
		return Interval{}, ErrNoData
	}
	if n < 2 || sd == 0 {
		return Interval{Estimate: mean, Lower: mean, Upper: mean, Level: level, N: n}, nil
	}

	se := sd / math.Sqrt(float64(n))
	margin := TCritical(n-1, level) * se

	lower := mean - margin
	if lower < 0 {
		lower = 0
	}

	return Interval{
		Estimate: mean,
		SE:       se,
		Lower:    lower,
		Upper:    mean + margin,
		Level:    level,
		N:        n,
	}, nil
}

// ProportionInterval computes a normal-approximation (Wald) confidence
// interval for a proportion: p ± z·sqrt(p(1-p)/n), clamped to [0, 1].
func ProportionInterval(successes, n int64, level float64) (Interval, error) {
	if level <= 0 || level >= 1 {
		return Interval{}, ErrBadLevel
	}
	if n < 1 {
		return Interval{}, ErrNoData
	}
	if successes < 0 || successes > n {
		return Interval{}, ErrBadCount
	}

	p := float64(successes) / float64(n)
	se := math.Sqrt(p * (1 - p) / float64(n))
	margin := ZCritical(level) * se

	return Interval{
		Estimate: p,
		SE:       se,
		Lower:    clamp01(p - margin),
		Upper:    clamp01(p + margin),
		Level:    level,
		N:        n,
	}, nil
}

// WilsonInterval computes the Wilson score interval for a proportion.
// Unlike the Wald interval it behaves sensibly near 0 and 1 and never
// needs clamping.
func WilsonInterval(successes, n int64, level float64) (Interval, error) {
	if level <= 0 || level >= 1 {
		return Interval{}, ErrBadLevel
	}
	if n < 1 {
		return Interval{}, ErrNoData
	}
	if successes < 0 || successes > n {
		return Interval{}, ErrBadCount
	}

	z := ZCritical(level)
	p := float64(successes) / float64(n)
	nf := float64(n)

	center := p + z*z/(2*nf)
	rad := z * math.Sqrt(p*(1-p)/nf+z*z/(4*nf*nf))
	den := 1 + z*z/nf

	return Interval{
		Estimate: p,
		SE:       math.Sqrt(p * (1 - p) / nf),
		Lower:    (center - rad) / den,
		Upper:    (center + rad) / den,
		Level:    level,
		N:        n,
	}, nil
}

// DiffInterval combines two independent estimates into an interval for
// their difference: SE_diff = sqrt(SE1² + SE2²), diff ± z·SE_diff.
func DiffInterval(est1, se1 float64, n1 int64, est2, se2 float64, n2 int64, level float64) Interval {
	diff := est1 - est2
	se := math.Sqrt(se1*se1 + se2*se2)
	margin := ZCritical(level) * se

	return Interval{
		Estimate: diff,
		SE:       se,
		Lower:    diff - margin,
		Upper:    diff + margin,
		Level:    level,
		N:        n1 + n2,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
