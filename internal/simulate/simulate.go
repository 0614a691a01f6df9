// Package simulate draws repeated subsamples from a dataset to show how
// confidence interval width shrinks as the sample size grows.
package simulate

import (
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"nhanes-ci/internal/dataset"
	"nhanes-ci/internal/stats"
)

var ErrTooFewValues = errors.New("simulate: fewer usable values than the largest subsample size")

// Config controls one simulation run.
type Config struct {
	Variable string  // numeric variable or SMQ020 for a proportion
	Sizes    []int   // subsample sizes to sweep, ascending
	Draws    int     // repeated draws per size
	Seed     int64   // 0 seeds from the size/draw mix for reproducible defaults
	Level    float64 // confidence level, default 0.95
}

// SizeResult aggregates the draws at one subsample size.
type SizeResult struct {
	Size      int
	Draws     int
	MeanWidth float64 // average interval width over draws
	MeanSE    float64
	Coverage  float64 // fraction of draws whose interval covers the full-sample estimate
}

// Result is the full sweep plus the full-sample reference estimate.
type Result struct {
	Variable  string
	Level     float64
	Reference stats.Interval
	Sizes     []SizeResult
}

// DefaultSizes doubles from 50 up to 1600, the range where width halving
// per quadrupling of n is easy to see.
var DefaultSizes = []int{50, 100, 200, 400, 800, 1600}

// Run sweeps the configured subsample sizes. Each draw takes a without-
// replacement subsample via a partial permutation and recomputes the
// interval from scratch.
func Run(persons []dataset.Person, cfg Config, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Level == 0 {
		cfg.Level = 0.95
	}
	if cfg.Draws <= 0 {
		cfg.Draws = 100
	}
	if len(cfg.Sizes) == 0 {
		cfg.Sizes = DefaultSizes
	}
	for i := 1; i < len(cfg.Sizes); i++ {
		if cfg.Sizes[i] <= cfg.Sizes[i-1] {
			return nil, fmt.Errorf("simulate: sizes must be ascending, got %v", cfg.Sizes)
		}
	}

	values, proportion, err := extract(persons, cfg.Variable)
	if err != nil {
		return nil, err
	}
	maxSize := cfg.Sizes[len(cfg.Sizes)-1]
	if len(values) < maxSize {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrTooFewValues, len(values), maxSize)
	}

	reference, err := intervalOf(values, proportion, cfg.Level)
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = int64(maxSize)*1e6 + int64(cfg.Draws)
	}
	rng := rand.New(rand.NewSource(seed))

	logger.Debug("simulation start",
		zap.String("variable", cfg.Variable),
		zap.Ints("sizes", cfg.Sizes),
		zap.Int("draws", cfg.Draws),
		zap.Int64("seed", seed),
		zap.Float64("reference", reference.Estimate))

	res := &Result{
		Variable:  cfg.Variable,
		Level:     cfg.Level,
		Reference: reference,
	}
	for _, size := range cfg.Sizes {
		sr, err := sweepSize(values, proportion, size, cfg, reference.Estimate, rng)
		if err != nil {
			return nil, fmt.Errorf("size %d: %w", size, err)
		}
		logger.Debug("size swept",
			zap.Int("size", size),
			zap.Float64("mean_width", sr.MeanWidth),
			zap.Float64("coverage", sr.Coverage))
		res.Sizes = append(res.Sizes, sr)
	}
	return res, nil
}

func sweepSize(values []float64, proportion bool, size int, cfg Config, reference float64, rng *rand.Rand) (SizeResult, error) {
	sub := make([]float64, size)
	var widthSum, seSum float64
	covered := 0

	for d := 0; d < cfg.Draws; d++ {
		perm := rng.Perm(len(values))
		for i := 0; i < size; i++ {
			sub[i] = values[perm[i]]
		}
		iv, err := intervalOf(sub, proportion, cfg.Level)
		if err != nil {
			return SizeResult{}, err
		}
		widthSum += iv.Width()
		seSum += iv.SE
		if iv.Contains(reference) {
			covered++
		}
	}

	return SizeResult{
		Size:      size,
		Draws:     cfg.Draws,
		MeanWidth: widthSum / float64(cfg.Draws),
		MeanSE:    seSum / float64(cfg.Draws),
		Coverage:  float64(covered) / float64(cfg.Draws),
	}, nil
}

// extract returns the usable values for the variable and whether the
// sweep estimates a proportion.
func extract(persons []dataset.Person, variable string) ([]float64, bool, error) {
	for _, v := range dataset.BinaryVars {
		if variable == v {
			values, err := dataset.BinaryValues(persons, variable)
			return values, true, err
		}
	}
	values, err := dataset.Values(persons, variable)
	if err != nil {
		return nil, false, err
	}
	return stats.DropMissing(values), false, nil
}

func intervalOf(values []float64, proportion bool, level float64) (stats.Interval, error) {
	if proportion {
		var successes int64
		for _, v := range values {
			if v == 1 {
				successes++
			}
		}
		return stats.ProportionInterval(successes, int64(len(values)), level)
	}
	return stats.MeanIntervalOf(values, level)
}
