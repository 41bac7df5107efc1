// Package scoring turns item ratings into dimension averages, weighted
// instrument scores and evaluator-blended percentages.
//
// Every function here is pure: the same inputs always produce bit-identical
// outputs, and nothing is cached or shared between calls.
package scoring

import (
	"math"
	"sort"

	"github.com/okian/appraisal/internal/domain/instrument"
)

// displayPrecision is the number of decimals percentages are shown with.
const displayPrecision = 10 // one decimal place

// DimensionResult is the aggregate of one dimension's answered items.
type DimensionResult struct {
	DimensionID string
	// Average is the mean of the answered ratings; 0 when nothing is answered.
	Average float64
	// Percentage is Average mapped onto [0,100], unrounded.
	Percentage float64
	Answered   int
	Total      int
	// Scored is false when no item of the dimension is answered. Such a
	// dimension is incomplete, not zero.
	Scored bool
}

// DisplayPercentage returns Percentage rounded to one decimal.
func (r DimensionResult) DisplayPercentage() float64 { return Round(r.Percentage) }

// AggregateDimension averages the ratings present for dim's items. Missing
// items are excluded from the average, never counted as zero.
func AggregateDimension(dim instrument.Dimension, ratings map[string]float64, scale instrument.Scale) DimensionResult {
	res := DimensionResult{DimensionID: dim.ID, Total: len(dim.Items)}
	sum := 0.0
	for _, it := range dim.Items {
		v, ok := ratings[it.ID]
		if !ok || math.IsNaN(v) {
			continue
		}
		sum += v
		res.Answered++
	}
	if res.Answered == 0 {
		return res
	}
	res.Scored = true
	res.Average = sum / float64(res.Answered)
	res.Percentage = ScoreToPercentage(res.Average, float64(scale.Min), float64(scale.Max))
	return res
}

// Weighted pairs a dimension result with its dimension weight.
type Weighted struct {
	Weight float64
	Result DimensionResult
}

// ComposeScore returns Σ(weight·average) / Σ(weight) over scored dimensions
// only, so an unanswered dimension does not drag the score toward zero. The
// result is on the original rating scale. With no scored dimension (or no
// positive weight among them) it returns ErrInsufficientData.
func ComposeScore(parts []Weighted) (float64, error) {
	num, den := 0.0, 0.0
	for _, p := range parts {
		if !p.Result.Scored {
			continue
		}
		num += p.Weight * p.Result.Average
		den += p.Weight
	}
	if den <= 0 {
		return 0, ErrInsufficientData
	}
	return num / den, nil
}

// NormalizedWeights returns the effective weight of each part after
// re-normalizing over the scored dimensions. Unscored parts get 0. When
// anything is scored the result sums to 1.
func NormalizedWeights(parts []Weighted) []float64 {
	out := make([]float64, len(parts))
	den := 0.0
	for _, p := range parts {
		if p.Result.Scored {
			den += p.Weight
		}
	}
	if den <= 0 {
		return out
	}
	for i, p := range parts {
		if p.Result.Scored {
			out[i] = p.Weight / den
		}
	}
	return out
}

// ScoreToPercentage maps raw linearly from [scaleMin,scaleMax] to [0,100].
// The value is not rounded; use Round for display.
func ScoreToPercentage(raw, scaleMin, scaleMax float64) float64 {
	if scaleMax <= scaleMin {
		return 0
	}
	return (raw - scaleMin) / (scaleMax - scaleMin) * 100
}

// Round rounds a percentage to one decimal place.
func Round(v float64) float64 {
	return math.Round(v*displayPrecision) / displayPrecision
}

// ScoreDimensions aggregates every dimension of a set and composes them.
// The returned results follow the order of dims.
func ScoreDimensions(dims []instrument.Dimension, ratings map[string]float64, scale instrument.Scale) (float64, []DimensionResult, error) {
	results := make([]DimensionResult, len(dims))
	parts := make([]Weighted, len(dims))
	for i, d := range dims {
		results[i] = AggregateDimension(d, ratings, scale)
		parts[i] = Weighted{Weight: d.Weight, Result: results[i]}
	}
	raw, err := ComposeScore(parts)
	if err != nil {
		return 0, results, err
	}
	return ScoreToPercentage(raw, float64(scale.Min), float64(scale.Max)), results, nil
}

// sortedSum adds values in ascending order so the total does not depend on
// input order.
func sortedSum(values []float64) float64 {
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	total := 0.0
	for _, v := range s {
		total += v
	}
	return total
}

// Mean returns the order-independent arithmetic mean of values. It returns
// false for an empty input.
func Mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	return sortedSum(values) / float64(len(values)), true
}
